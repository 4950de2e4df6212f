package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Posting statuses. A posting is a job opportunity published by an admin.
const (
	PostingStatusOpen   = "Open"
	PostingStatusClosed = "Closed"
)

// Application statuses, in the order they usually progress.
const (
	StatusApplied   = "Applied"
	StatusInterview = "Interview"
	StatusOffer     = "Offer"
	StatusRejected  = "Rejected"
	StatusAccepted  = "Accepted"
)

// JobItem is a single document that is either a job posting (admin-created
// opportunity) or a user's application against one, discriminated by
// IsJobPosting. Use NewJobPosting / NewApplication so the two shapes can't
// be mixed up: only applications carry OriginalJobPostingID.
type JobItem struct {
	ID                   bson.ObjectID  `bson:"_id,omitempty" json:"_id,omitempty"`
	Company              string         `bson:"company" json:"company"`
	Role                 string         `bson:"role" json:"role"`
	Status               string         `bson:"status" json:"status"`
	AppliedDate          time.Time      `bson:"appliedDate" json:"appliedDate"`
	Notes                string         `bson:"notes,omitempty" json:"notes,omitempty"`
	User                 bson.ObjectID  `bson:"user" json:"user"`
	IsJobPosting         bool           `bson:"isJobPosting" json:"isJobPosting"`
	OriginalJobPostingID *bson.ObjectID `bson:"originalJobPostingId,omitempty" json:"originalJobPostingId,omitempty"`
	UpdatedAt            time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// NewJobPosting builds an opportunity owned by the admin who posted it.
// AppliedDate doubles as the posted date for postings.
func NewJobPosting(owner bson.ObjectID, company, role, status, notes string, postedDate time.Time) JobItem {
	if status == "" {
		status = PostingStatusOpen
	}
	return JobItem{
		Company:      company,
		Role:         role,
		Status:       status,
		AppliedDate:  postedDate,
		Notes:        notes,
		User:         owner,
		IsJobPosting: true,
		UpdatedAt:    postedDate,
	}
}

// NewApplication builds an application against posting. Company and role
// are copied from the posting at apply time and stay frozen even if the
// posting changes later.
func NewApplication(posting JobItem, applicant bson.ObjectID, notes string, appliedDate time.Time) JobItem {
	postingID := posting.ID
	return JobItem{
		Company:              posting.Company,
		Role:                 posting.Role,
		Status:               StatusApplied,
		AppliedDate:          appliedDate,
		Notes:                notes,
		User:                 applicant,
		IsJobPosting:         false,
		OriginalJobPostingID: &postingID,
		UpdatedAt:            appliedDate,
	}
}

// IsTerminalStatus reports whether an application status locks further
// status changes for non-admins. "hired" is the pre-rename spelling of
// Accepted and still exists in older documents.
func IsTerminalStatus(status string) bool {
	switch strings.ToLower(status) {
	case "rejected", "accepted", "hired":
		return true
	}
	return false
}

func ValidPostingStatus(status string) bool {
	return status == PostingStatusOpen || status == PostingStatusClosed
}

func ValidApplicationStatus(status string) bool {
	switch status {
	case StatusApplied, StatusInterview, StatusOffer, StatusRejected, StatusAccepted:
		return true
	}
	return false
}

// JobFilter is a conjunction of predicates the repository translates into
// a Mongo query. Company and Role match as case-insensitive substrings.
type JobFilter struct {
	IsJobPosting         *bool
	User                 *bson.ObjectID
	OriginalJobPostingID *bson.ObjectID
	Status               string
	Company              string
	Role                 string
}
