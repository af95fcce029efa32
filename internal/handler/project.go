package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/normrepo/nrs-go/internal/model"
	"github.com/normrepo/nrs-go/internal/service"
	"github.com/normrepo/nrs-go/internal/validation"
)

// ProjectHandler handles HTTP requests for projects.
type ProjectHandler struct {
	base
	service *service.ProjectService
}

func NewProjectHandler(svc *service.ProjectService, val *validation.Validator, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{base: base{log: log, validate: val}, service: svc}
}

// HandleList handles GET /project requests.
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleCreate handles POST /project requests.
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	req, err := decodeValid[model.CreateProjectRequest](h.base, w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleGet handles GET /project/{project_id} requests.
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, projectID, err := projectScope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.service.Get(r.Context(), userID, projectID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdate handles PUT /project/{project_id} requests.
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, projectID, err := projectScope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	req, err := decodeValid[model.UpdateProjectRequest](h.base, w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.service.Update(r.Context(), userID, projectID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDelete handles DELETE /project/{project_id} requests.
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, projectID, err := projectScope(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID, projectID); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// projectScope returns the caller and the {project_id} path parameter.
func projectScope(r *http.Request) (userID, projectID int64, err error) {
	if userID, err = callerID(r); err != nil {
		return 0, 0, err
	}
	if projectID, err = pathID(r, "project_id"); err != nil {
		return 0, 0, err
	}
	return userID, projectID, nil
}
