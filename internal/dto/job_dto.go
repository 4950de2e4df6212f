package dto

import (
	"time"

	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/models"
)

type CreateOpportunityRequest struct {
	Company    string     `json:"company"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	Notes      string     `json:"notes"`
	PostedDate *time.Time `json:"postedDate"`
}

type ApplyRequest struct {
	Notes string `json:"notes"`
}

// UpdateJobItemRequest carries only the fields a caller may touch; which
// ones actually apply depends on the caller's role and the item kind (see
// services.JobService.UpdateItem).
type UpdateJobItemRequest struct {
	Company     string     `json:"company"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	Notes       *string    `json:"notes"`
	AppliedDate *time.Time `json:"appliedDate"`
}

// List view types, matching the frontend's fetch configs.
const (
	ListOpportunities       = "opportunities"
	ListMyApplications      = "my_applications"
	ListUserApplications    = "user_applications"
	ListAllUserApplications = "all_user_applications"
)

type ListQuery struct {
	Type                 string `query:"type"`
	Status               string `query:"status"`
	Sort                 string `query:"sort"`
	Company              string `query:"company"`
	Role                 string `query:"role"`
	OriginalJobPostingID string `query:"originalJobPostingId"`
	UserID               string `query:"userId"`
}

// JobItemWithOwner is a list row with the owner resolved to the
// display-safe subset.
type JobItemWithOwner struct {
	models.JobItem
	Owner *models.UserInfo `json:"owner,omitempty"`
}

// JobUpdatePayload is the body of a jobUpdate socket event. JobApplication
// is set for updates, Deleted/JobID for deletions; PostingID is set when
// the deletion was a cascade from a removed posting.
type JobUpdatePayload struct {
	Message        string          `json:"message"`
	JobApplication *models.JobItem `json:"jobApplication,omitempty"`
	Deleted        bool            `json:"deleted,omitempty"`
	JobID          string          `json:"jobId,omitempty"`
	PostingID      string          `json:"postingId,omitempty"`
	UpdatedBy      string          `json:"updatedBy"`
}
