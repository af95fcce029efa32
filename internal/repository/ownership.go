package repository

import (
	sq "github.com/Masterminds/squirrel"
)

// Every query on owned rows goes through one of these predicates. A row
// owned by someone else is filtered out, so callers see ErrNotFound for it
// exactly as for a missing row.

// ownedProject restricts projects to those of userID.
func ownedProject(userID int64) sq.Sqlizer {
	return sq.Eq{"user_id": userID}
}

// ownedModule restricts modules to the given project, and only if userID
// owns that project.
func ownedModule(userID, projectID int64) sq.Sqlizer {
	return sq.And{
		sq.Eq{"project_id": projectID},
		sq.Expr("project_id IN (SELECT id FROM projects WHERE user_id = ?)", userID),
	}
}
