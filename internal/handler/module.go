package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/normrepo/nrs-go/internal/model"
	"github.com/normrepo/nrs-go/internal/service"
	"github.com/normrepo/nrs-go/internal/validation"
)

// ModuleHandler handles HTTP requests for the modules of a project.
type ModuleHandler struct {
	base
	service *service.ModuleService
}

func NewModuleHandler(svc *service.ModuleService, val *validation.Validator, log *zap.Logger) *ModuleHandler {
	return &ModuleHandler{base: base{log: log, validate: val}, service: svc}
}

// HandleList handles GET /project/{project_id}/module requests.
func (h *ModuleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, projectID, err := projectScope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.service.List(r.Context(), userID, projectID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleCreate handles POST /project/{project_id}/module requests. A body
// without a name gets the next default name of its sibling scope.
func (h *ModuleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, projectID, err := projectScope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	req, err := decodeValid[model.CreateModuleRequest](h.base, w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.service.Create(r.Context(), userID, projectID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleGet handles GET /project/{project_id}/module/{module_id} requests.
func (h *ModuleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, projectID, moduleID, err := moduleScope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.service.Get(r.Context(), userID, projectID, moduleID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdate handles PUT /project/{project_id}/module/{module_id} requests.
func (h *ModuleHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, projectID, moduleID, err := moduleScope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	req, err := decodeValid[model.UpdateModuleRequest](h.base, w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.service.Update(r.Context(), userID, projectID, moduleID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDelete handles DELETE /project/{project_id}/module/{module_id} requests.
func (h *ModuleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, projectID, moduleID, err := moduleScope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID, projectID, moduleID); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func moduleScope(r *http.Request) (userID, projectID, moduleID int64, err error) {
	if userID, projectID, err = projectScope(r); err != nil {
		return 0, 0, 0, err
	}
	if moduleID, err = pathID(r, "module_id"); err != nil {
		return 0, 0, 0, err
	}
	return userID, projectID, moduleID, nil
}
