package services

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/models"
)

// Principal is the authenticated actor, as extracted from the JWT by the
// auth middleware.
type Principal struct {
	ID   bson.ObjectID
	Role string
}

func (p Principal) IsAdmin() bool { return p.Role == models.RoleAdmin }

type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// CanAccess is the single place that decides who may do what to a job
// item. Handlers and the service never compare roles directly.
//
// Admins can do everything. Anyone may read a posting; otherwise only the
// owner may read, and only the owner may update or delete — and never a
// posting.
func CanAccess(p Principal, item models.JobItem, action Action) bool {
	if p.IsAdmin() {
		return true
	}
	isOwner := item.User == p.ID

	switch action {
	case ActionRead:
		return item.IsJobPosting || isOwner
	case ActionUpdate, ActionDelete:
		return !item.IsJobPosting && isOwner
	}
	return false
}

// CanChangeStatus guards status mutation. Writing the current status back
// is always allowed so full-object saves from the client stay idempotent.
// Once an application reaches a terminal status, only an admin can move
// it again.
func CanChangeStatus(p Principal, item models.JobItem, requested string) bool {
	if requested == item.Status {
		return true
	}
	if p.IsAdmin() {
		return true
	}
	if !item.IsJobPosting && models.IsTerminalStatus(item.Status) {
		return false
	}
	return true
}
