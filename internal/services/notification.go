package services

import (
	"fmt"

	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/dto"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/models"
)

type EventKind string

const (
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event is one jobUpdate notification addressed to a single user's room.
type Event struct {
	TargetUserID string
	Kind         EventKind
	Payload      dto.JobUpdatePayload
}

// Publisher delivers events to whatever realtime transport is wired in.
// Delivery is best-effort: errors are logged by the caller, never
// returned to the HTTP client.
type Publisher interface {
	Publish(event Event) error
}

func attribution(actor Principal, item models.JobItem) string {
	if actor.ID == item.User {
		return "self"
	}
	return "admin"
}

// UpdatedEvent notifies the application's owner about a status/notes
// change. Carries the full post-write document so the client can render
// without a re-fetch.
func UpdatedEvent(actor Principal, item models.JobItem) Event {
	return Event{
		TargetUserID: item.User.Hex(),
		Kind:         EventUpdated,
		Payload: dto.JobUpdatePayload{
			Message:        fmt.Sprintf("Your job application for %s was updated to %s", item.Company, item.Status),
			JobApplication: &item,
			UpdatedBy:      attribution(actor, item),
		},
	}
}

// DeletedEvent notifies the application's owner that their application is
// gone. cascaded marks deletions caused by the linked posting being
// removed; the payload then also carries the posting id so clients can
// drop the posting from their view in the same pass.
func DeletedEvent(actor Principal, item models.JobItem, cascaded bool) Event {
	payload := dto.JobUpdatePayload{
		Message:   fmt.Sprintf("Your job application for %s has been deleted", item.Company),
		Deleted:   true,
		JobID:     item.ID.Hex(),
		UpdatedBy: attribution(actor, item),
	}
	if cascaded && item.OriginalJobPostingID != nil {
		payload.PostingID = item.OriginalJobPostingID.Hex()
		payload.Message = fmt.Sprintf("The job opportunity for %s was removed, so your application has been deleted", item.Company)
	}
	return Event{
		TargetUserID: item.User.Hex(),
		Kind:         EventDeleted,
		Payload:      payload,
	}
}
