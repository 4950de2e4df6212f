package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/apperr"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/dto"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/models"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/repository"
)

// JobStore is the slice of the job repository the service needs.
type JobStore interface {
	Find(ctx context.Context, f models.JobFilter, newestFirst bool) ([]models.JobItem, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.JobItem, error)
	Insert(ctx context.Context, item *models.JobItem) error
	Save(ctx context.Context, item *models.JobItem) error
	Delete(ctx context.Context, id bson.ObjectID) error
	HasApplication(ctx context.Context, owner, posting bson.ObjectID) (bool, error)
	FindApplicationsFor(ctx context.Context, posting bson.ObjectID) ([]models.JobItem, error)
}

// UserStore resolves owners for list responses.
type UserStore interface {
	FindByIDs(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]models.User, error)
}

type JobService struct {
	store     JobStore
	users     UserStore
	publisher Publisher
	now       func() time.Time
}

func NewJobService(store JobStore, users UserStore, publisher Publisher) *JobService {
	return &JobService{
		store:     store,
		users:     users,
		publisher: publisher,
		now:       time.Now,
	}
}

// notify publishes on a separate goroutine so the HTTP response never
// waits on, or fails because of, socket delivery.
func (s *JobService) notify(ev Event) {
	go func() {
		if err := s.publisher.Publish(ev); err != nil {
			slog.Error("jobUpdate publish failed", "user", ev.TargetUserID, "kind", ev.Kind, "err", err)
		}
	}()
}

func (s *JobService) CreateOpportunity(ctx context.Context, p Principal, req dto.CreateOpportunityRequest) (*models.JobItem, error) {
	if !p.IsAdmin() {
		return nil, apperr.Forbidden("Only admins can create job opportunities")
	}
	if strings.TrimSpace(req.Company) == "" || strings.TrimSpace(req.Role) == "" {
		return nil, apperr.Validation("Company and role are required")
	}
	if req.Status != "" && !models.ValidPostingStatus(req.Status) {
		return nil, apperr.Validation(fmt.Sprintf("Invalid posting status '%s'", req.Status))
	}

	postedDate := s.now()
	if req.PostedDate != nil {
		postedDate = *req.PostedDate
	}

	item := models.NewJobPosting(p.ID, req.Company, req.Role, req.Status, req.Notes, postedDate)
	if err := s.store.Insert(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *JobService) ApplyToOpportunity(ctx context.Context, p Principal, postingID bson.ObjectID, req dto.ApplyRequest) (*models.JobItem, error) {
	posting, err := s.store.FindByID(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if posting == nil || !posting.IsJobPosting {
		return nil, apperr.NotFound("Job opportunity not found")
	}
	if posting.Status == models.PostingStatusClosed {
		return nil, apperr.InvalidState("This job opportunity is closed")
	}

	exists, err := s.store.HasApplication(ctx, p.ID, postingID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Duplicate("You have already applied to this job opportunity")
	}

	item := models.NewApplication(*posting, p.ID, req.Notes, s.now())
	if err := s.store.Insert(ctx, &item); err != nil {
		// The unique index catches the race two concurrent applies can win
		// past the check above.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperr.Duplicate("You have already applied to this job opportunity")
		}
		return nil, err
	}
	return &item, nil
}

func (s *JobService) ListItems(ctx context.Context, p Principal, q dto.ListQuery) ([]dto.JobItemWithOwner, error) {
	filter, err := buildListFilter(p, q)
	if err != nil {
		return nil, err
	}

	newestFirst := q.Sort == "" || q.Sort == "newest"
	items, err := s.store.Find(ctx, filter, newestFirst)
	if err != nil {
		return nil, err
	}
	return s.resolveOwners(ctx, items)
}

func buildListFilter(p Principal, q dto.ListQuery) (models.JobFilter, error) {
	isPosting := true
	isApplication := false

	listType := q.Type
	if listType == "" {
		listType = dto.ListOpportunities
	}

	switch listType {
	case dto.ListOpportunities:
		f := models.JobFilter{
			IsJobPosting: &isPosting,
			Company:      q.Company,
			Role:         q.Role,
		}
		switch {
		case q.Status != "" && q.Status != "All":
			f.Status = q.Status
		case !p.IsAdmin():
			// Applicants only browse open postings unless they ask
			// explicitly; admins see everything by default.
			f.Status = models.PostingStatusOpen
		}
		return f, nil

	case dto.ListMyApplications:
		f := models.JobFilter{IsJobPosting: &isApplication, User: &p.ID}
		if q.Status != "" && q.Status != "All" {
			f.Status = q.Status
		}
		return f, nil

	case dto.ListUserApplications:
		if !p.IsAdmin() {
			return models.JobFilter{}, apperr.Forbidden("Only admins can view applications for an opportunity")
		}
		postingID, err := bson.ObjectIDFromHex(q.OriginalJobPostingID)
		if err != nil {
			return models.JobFilter{}, apperr.Validation("A valid originalJobPostingId is required")
		}
		f := models.JobFilter{IsJobPosting: &isApplication, OriginalJobPostingID: &postingID}
		if q.Status != "" && q.Status != "All" {
			f.Status = q.Status
		}
		return f, nil

	case dto.ListAllUserApplications:
		if !p.IsAdmin() {
			return models.JobFilter{}, apperr.Forbidden("Only admins can view all applications")
		}
		f := models.JobFilter{
			IsJobPosting: &isApplication,
			Company:      q.Company,
			Role:         q.Role,
		}
		if q.Status != "" && q.Status != "All" {
			f.Status = q.Status
		}
		if q.UserID != "" {
			owner, err := bson.ObjectIDFromHex(q.UserID)
			if err != nil {
				return models.JobFilter{}, apperr.Validation("Invalid userId")
			}
			f.User = &owner
		}
		return f, nil
	}

	return models.JobFilter{}, apperr.Validation(fmt.Sprintf("Unknown list type '%s'", q.Type))
}

func (s *JobService) resolveOwners(ctx context.Context, items []models.JobItem) ([]dto.JobItemWithOwner, error) {
	idSet := map[bson.ObjectID]struct{}{}
	for _, item := range items {
		idSet[item.User] = struct{}{}
	}
	ids := make([]bson.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.JobItemWithOwner, 0, len(items))
	for _, item := range items {
		row := dto.JobItemWithOwner{JobItem: item}
		if u, ok := users[item.User]; ok {
			info := u.Info()
			row.Owner = &info
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *JobService) GetItem(ctx context.Context, p Principal, id bson.ObjectID) (*models.JobItem, error) {
	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.NotFound("Job item not found")
	}
	if !CanAccess(p, *item, ActionRead) {
		return nil, apperr.Unauthorized("Not authorized to view this job item")
	}
	return item, nil
}

func (s *JobService) UpdateItem(ctx context.Context, p Principal, id bson.ObjectID, req dto.UpdateJobItemRequest) (*models.JobItem, error) {
	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.NotFound("Job item not found")
	}
	if !CanAccess(p, *item, ActionUpdate) {
		return nil, apperr.Unauthorized("Not authorized to update this job item")
	}

	// Writing the current status back is a no-op and always allowed,
	// including for statuses the present vocabulary no longer issues.
	if req.Status != "" && req.Status != item.Status {
		if !CanChangeStatus(p, *item, req.Status) {
			return nil, apperr.FinalStatusLocked(item.Status)
		}
		if item.IsJobPosting && !models.ValidPostingStatus(req.Status) {
			return nil, apperr.Validation(fmt.Sprintf("Invalid posting status '%s'", req.Status))
		}
		if !item.IsJobPosting && !models.ValidApplicationStatus(req.Status) {
			return nil, apperr.Validation(fmt.Sprintf("Invalid application status '%s'", req.Status))
		}
	}

	applyItemUpdate(p, item, req)
	item.UpdatedAt = s.now()

	if err := s.store.Save(ctx, item); err != nil {
		return nil, err
	}

	// Postings have no single subscriber; only application owners get
	// pushed updates.
	if !item.IsJobPosting {
		s.notify(UpdatedEvent(p, *item))
	}
	return item, nil
}

// applyItemUpdate enforces the field-level write matrix: admins may
// reshape postings fully but only steer status/notes on applications;
// owners may only edit their application's notes — company, role, status
// and dates are frozen for them.
func applyItemUpdate(p Principal, item *models.JobItem, req dto.UpdateJobItemRequest) {
	if p.IsAdmin() && item.IsJobPosting {
		if req.Company != "" {
			item.Company = req.Company
		}
		if req.Role != "" {
			item.Role = req.Role
		}
		if req.AppliedDate != nil {
			item.AppliedDate = *req.AppliedDate
		}
	}
	if p.IsAdmin() && req.Status != "" {
		item.Status = req.Status
	}
	if req.Notes != nil {
		item.Notes = *req.Notes
	}
}

func (s *JobService) DeleteItem(ctx context.Context, p Principal, id bson.ObjectID) (string, error) {
	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if item == nil {
		return "", apperr.NotFound("Job item not found")
	}
	if item.IsJobPosting && !p.IsAdmin() {
		return "", apperr.Forbidden("Only admins can delete job opportunities")
	}
	if !CanAccess(p, *item, ActionDelete) {
		return "", apperr.Unauthorized("Not authorized to delete this job item")
	}

	if item.IsJobPosting {
		return s.deletePostingCascade(ctx, p, *item)
	}

	if err := s.store.Delete(ctx, item.ID); err != nil {
		return "", err
	}
	s.notify(DeletedEvent(p, *item, false))
	return "Job application removed", nil
}

// deletePostingCascade removes every application linked to the posting,
// one event per former applicant, then the posting itself.
func (s *JobService) deletePostingCascade(ctx context.Context, p Principal, posting models.JobItem) (string, error) {
	apps, err := s.store.FindApplicationsFor(ctx, posting.ID)
	if err != nil {
		return "", err
	}
	for _, app := range apps {
		if err := s.store.Delete(ctx, app.ID); err != nil {
			return "", err
		}
		s.notify(DeletedEvent(p, app, true))
	}
	if err := s.store.Delete(ctx, posting.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Job opportunity removed along with %d linked application(s)", len(apps)), nil
}
