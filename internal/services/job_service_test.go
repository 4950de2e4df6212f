package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/apperr"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/dto"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/models"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/repository"
)

type fakeJobStore struct {
	mu        sync.Mutex
	items     map[bson.ObjectID]models.JobItem
	insertErr error
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{items: make(map[bson.ObjectID]models.JobItem)}
}

func matches(item models.JobItem, f models.JobFilter) bool {
	if f.IsJobPosting != nil && item.IsJobPosting != *f.IsJobPosting {
		return false
	}
	if f.User != nil && item.User != *f.User {
		return false
	}
	if f.OriginalJobPostingID != nil {
		if item.OriginalJobPostingID == nil || *item.OriginalJobPostingID != *f.OriginalJobPostingID {
			return false
		}
	}
	if f.Status != "" && item.Status != f.Status {
		return false
	}
	if f.Company != "" && !strings.Contains(strings.ToLower(item.Company), strings.ToLower(f.Company)) {
		return false
	}
	if f.Role != "" && !strings.Contains(strings.ToLower(item.Role), strings.ToLower(f.Role)) {
		return false
	}
	return true
}

func (s *fakeJobStore) Find(_ context.Context, f models.JobFilter, newestFirst bool) ([]models.JobItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.JobItem
	for _, item := range s.items {
		if matches(item, f) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].AppliedDate.After(out[j].AppliedDate)
		}
		return out[i].AppliedDate.Before(out[j].AppliedDate)
	})
	return out, nil
}

func (s *fakeJobStore) FindByID(_ context.Context, id bson.ObjectID) (*models.JobItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *fakeJobStore) Insert(_ context.Context, item *models.JobItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	item.ID = bson.NewObjectID()
	s.items[item.ID] = *item
	return nil
}

func (s *fakeJobStore) Save(_ context.Context, item *models.JobItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = *item
	return nil
}

func (s *fakeJobStore) Delete(_ context.Context, id bson.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *fakeJobStore) HasApplication(_ context.Context, owner, posting bson.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if !item.IsJobPosting && item.User == owner &&
			item.OriginalJobPostingID != nil && *item.OriginalJobPostingID == posting {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeJobStore) FindApplicationsFor(ctx context.Context, posting bson.ObjectID) ([]models.JobItem, error) {
	isApplication := false
	return s.Find(ctx, models.JobFilter{IsJobPosting: &isApplication, OriginalJobPostingID: &posting}, true)
}

func (s *fakeJobStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

type fakeUserStore struct {
	users map[bson.ObjectID]models.User
}

func (s *fakeUserStore) FindByIDs(_ context.Context, ids []bson.ObjectID) (map[bson.ObjectID]models.User, error) {
	out := map[bson.ObjectID]models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

func waitForEvents(t *testing.T, p *recordingPublisher, n int) []Event {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(p.Events()) >= n
	}, time.Second, 5*time.Millisecond, "expected %d published events", n)
	return p.Events()
}

type fixture struct {
	svc   *JobService
	store *fakeJobStore
	users *fakeUserStore
	pub   *recordingPublisher
	admin Principal
	alice Principal
	bob   Principal
}

func newFixture() *fixture {
	store := newFakeJobStore()
	pub := &recordingPublisher{}

	admin := Principal{ID: bson.NewObjectID(), Role: models.RoleAdmin}
	alice := Principal{ID: bson.NewObjectID(), Role: models.RoleApplicant}
	bob := Principal{ID: bson.NewObjectID(), Role: models.RoleApplicant}

	users := &fakeUserStore{users: map[bson.ObjectID]models.User{
		admin.ID: {ID: admin.ID, Name: "Admin User", Email: "admin@example.com", Role: models.RoleAdmin, PasswordHash: "x"},
		alice.ID: {ID: alice.ID, Name: "Alice", Email: "alice@example.com", Role: models.RoleApplicant, PasswordHash: "x"},
		bob.ID:   {ID: bob.ID, Name: "Bob", Email: "bob@example.com", Role: models.RoleApplicant, PasswordHash: "x"},
	}}

	return &fixture{
		svc:   NewJobService(store, users, pub),
		store: store,
		users: users,
		pub:   pub,
		admin: admin,
		alice: alice,
		bob:   bob,
	}
}

func (f *fixture) mustCreatePosting(t *testing.T, company, role string) *models.JobItem {
	t.Helper()
	posting, err := f.svc.CreateOpportunity(context.Background(), f.admin, dto.CreateOpportunityRequest{
		Company: company,
		Role:    role,
	})
	require.NoError(t, err)
	return posting
}

func (f *fixture) mustApply(t *testing.T, p Principal, postingID bson.ObjectID, notes string) *models.JobItem {
	t.Helper()
	app, err := f.svc.ApplyToOpportunity(context.Background(), p, postingID, dto.ApplyRequest{Notes: notes})
	require.NoError(t, err)
	return app
}

func TestCreateOpportunity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	t.Run("defaults to Open and marks the posting", func(t *testing.T) {
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		assert.Equal(t, models.PostingStatusOpen, posting.Status)
		assert.True(t, posting.IsJobPosting)
		assert.Nil(t, posting.OriginalJobPostingID)
		assert.Equal(t, f.admin.ID, posting.User)
	})

	t.Run("rejects non-admins", func(t *testing.T) {
		_, err := f.svc.CreateOpportunity(ctx, f.alice, dto.CreateOpportunityRequest{Company: "Acme", Role: "Engineer"})
		assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	})

	t.Run("requires company and role", func(t *testing.T) {
		_, err := f.svc.CreateOpportunity(ctx, f.admin, dto.CreateOpportunityRequest{Company: " ", Role: "Engineer"})
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("rejects application statuses on postings", func(t *testing.T) {
		_, err := f.svc.CreateOpportunity(ctx, f.admin, dto.CreateOpportunityRequest{
			Company: "Acme", Role: "Engineer", Status: models.StatusApplied,
		})
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})
}

func TestApplyToOpportunity(t *testing.T) {
	ctx := context.Background()

	t.Run("copies company and role and links the posting", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		app := f.mustApply(t, f.alice, posting.ID, "excited")

		assert.Equal(t, "Acme", app.Company)
		assert.Equal(t, "Engineer", app.Role)
		assert.Equal(t, models.StatusApplied, app.Status)
		assert.False(t, app.IsJobPosting)
		require.NotNil(t, app.OriginalJobPostingID)
		assert.Equal(t, posting.ID, *app.OriginalJobPostingID)
		assert.Equal(t, f.alice.ID, app.User)
	})

	t.Run("unknown posting id", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.ApplyToOpportunity(ctx, f.alice, bson.NewObjectID(), dto.ApplyRequest{})
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("applying to an application is not found", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		app := f.mustApply(t, f.alice, posting.ID, "")

		_, err := f.svc.ApplyToOpportunity(ctx, f.bob, app.ID, dto.ApplyRequest{})
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("closed posting rejects every applicant", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		_, err := f.svc.UpdateItem(ctx, f.admin, posting.ID, dto.UpdateJobItemRequest{Status: models.PostingStatusClosed})
		require.NoError(t, err)

		_, err = f.svc.ApplyToOpportunity(ctx, f.alice, posting.ID, dto.ApplyRequest{})
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
	})

	t.Run("second application is a duplicate", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		f.mustApply(t, f.alice, posting.ID, "first")

		_, err := f.svc.ApplyToOpportunity(ctx, f.alice, posting.ID, dto.ApplyRequest{Notes: "second"})
		assert.True(t, apperr.IsKind(err, apperr.KindDuplicate))

		// A different applicant is fine.
		f.mustApply(t, f.bob, posting.ID, "me too")
	})

	t.Run("index rejection surfaces as a duplicate", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")

		// Two racing applies can both pass the pre-check; the unique
		// index then fails the loser's insert.
		f.store.insertErr = repository.ErrDuplicateKey
		_, err := f.svc.ApplyToOpportunity(ctx, f.alice, posting.ID, dto.ApplyRequest{})
		assert.True(t, apperr.IsKind(err, apperr.KindDuplicate))
	})
}

func TestListItems(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin opportunity browsing hides closed postings", func(t *testing.T) {
		f := newFixture()
		open := f.mustCreatePosting(t, "Acme", "Engineer")
		closed := f.mustCreatePosting(t, "Globex", "Designer")
		_, err := f.svc.UpdateItem(ctx, f.admin, closed.ID, dto.UpdateJobItemRequest{Status: models.PostingStatusClosed})
		require.NoError(t, err)

		rows, err := f.svc.ListItems(ctx, f.alice, dto.ListQuery{Type: dto.ListOpportunities})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, open.ID, rows[0].ID)

		// Admin default shows everything.
		rows, err = f.svc.ListItems(ctx, f.admin, dto.ListQuery{Type: dto.ListOpportunities})
		require.NoError(t, err)
		assert.Len(t, rows, 2)

		// An explicit status overrides the applicant default.
		rows, err = f.svc.ListItems(ctx, f.alice, dto.ListQuery{Type: dto.ListOpportunities, Status: models.PostingStatusClosed})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, closed.ID, rows[0].ID)
	})

	t.Run("company and role filter as case-insensitive substrings", func(t *testing.T) {
		f := newFixture()
		f.mustCreatePosting(t, "Acme Corp", "Backend Engineer")
		f.mustCreatePosting(t, "Globex", "Designer")

		rows, err := f.svc.ListItems(ctx, f.alice, dto.ListQuery{Type: dto.ListOpportunities, Company: "acme"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Acme Corp", rows[0].Company)

		rows, err = f.svc.ListItems(ctx, f.alice, dto.ListQuery{Type: dto.ListOpportunities, Role: "engineer"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
	})

	t.Run("my_applications is scoped to the caller", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		mine := f.mustApply(t, f.alice, posting.ID, "")
		f.mustApply(t, f.bob, posting.ID, "")

		rows, err := f.svc.ListItems(ctx, f.alice, dto.ListQuery{Type: dto.ListMyApplications})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, mine.ID, rows[0].ID)
	})

	t.Run("user_applications is admin only and needs a posting id", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		f.mustApply(t, f.alice, posting.ID, "")
		f.mustApply(t, f.bob, posting.ID, "")

		_, err := f.svc.ListItems(ctx, f.alice, dto.ListQuery{Type: dto.ListUserApplications, OriginalJobPostingID: posting.ID.Hex()})
		assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

		_, err = f.svc.ListItems(ctx, f.admin, dto.ListQuery{Type: dto.ListUserApplications})
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))

		rows, err := f.svc.ListItems(ctx, f.admin, dto.ListQuery{Type: dto.ListUserApplications, OriginalJobPostingID: posting.ID.Hex()})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("all_user_applications filters by owner", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		f.mustApply(t, f.alice, posting.ID, "")
		f.mustApply(t, f.bob, posting.ID, "")

		rows, err := f.svc.ListItems(ctx, f.admin, dto.ListQuery{Type: dto.ListAllUserApplications, UserID: f.bob.ID.Hex()})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, f.bob.ID, rows[0].User)
	})

	t.Run("owners resolve to the display-safe subset", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		f.mustApply(t, f.alice, posting.ID, "")

		rows, err := f.svc.ListItems(ctx, f.admin, dto.ListQuery{Type: dto.ListAllUserApplications})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.NotNil(t, rows[0].Owner)
		assert.Equal(t, "Alice", rows[0].Owner.Name)
		assert.Equal(t, "alice@example.com", rows[0].Owner.Email)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.ListItems(ctx, f.alice, dto.ListQuery{Type: "everything"})
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})
}

func TestGetItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	posting := f.mustCreatePosting(t, "Acme", "Engineer")
	app := f.mustApply(t, f.alice, posting.ID, "")

	t.Run("missing id", func(t *testing.T) {
		_, err := f.svc.GetItem(ctx, f.alice, bson.NewObjectID())
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("postings are public reads", func(t *testing.T) {
		got, err := f.svc.GetItem(ctx, f.bob, posting.ID)
		require.NoError(t, err)
		assert.Equal(t, posting.ID, got.ID)
	})

	t.Run("applications are owner-or-admin reads", func(t *testing.T) {
		_, err := f.svc.GetItem(ctx, f.bob, app.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

		_, err = f.svc.GetItem(ctx, f.admin, app.ID)
		require.NoError(t, err)
	})
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()

	t.Run("terminal lock blocks non-admins, admin overrides", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		app := f.mustApply(t, f.alice, posting.ID, "")

		_, err := f.svc.UpdateItem(ctx, f.admin, app.ID, dto.UpdateJobItemRequest{Status: models.StatusRejected})
		require.NoError(t, err)

		_, err = f.svc.UpdateItem(ctx, f.alice, app.ID, dto.UpdateJobItemRequest{Status: models.StatusApplied})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
		assert.Contains(t, err.Error(), models.StatusRejected)

		got, err := f.svc.UpdateItem(ctx, f.admin, app.ID, dto.UpdateJobItemRequest{Status: models.StatusInterview})
		require.NoError(t, err)
		assert.Equal(t, models.StatusInterview, got.Status)
	})

	t.Run("writing the current status back is idempotent even when locked", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		app := f.mustApply(t, f.alice, posting.ID, "")
		_, err := f.svc.UpdateItem(ctx, f.admin, app.ID, dto.UpdateJobItemRequest{Status: models.StatusAccepted})
		require.NoError(t, err)

		_, err = f.svc.UpdateItem(ctx, f.alice, app.ID, dto.UpdateJobItemRequest{Status: models.StatusAccepted})
		require.NoError(t, err)
	})

	t.Run("same-status write succeeds on legacy statuses too", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		app := f.mustApply(t, f.alice, posting.ID, "")

		// Documents written before the current status vocabulary.
		app.Status = "hired"
		require.NoError(t, f.store.Save(ctx, app))

		got, err := f.svc.UpdateItem(ctx, f.alice, app.ID, dto.UpdateJobItemRequest{Status: "hired"})
		require.NoError(t, err)
		assert.Equal(t, "hired", got.Status)

		_, err = f.svc.UpdateItem(ctx, f.alice, app.ID, dto.UpdateJobItemRequest{Status: models.StatusInterview})
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
	})

	t.Run("owner may only change notes", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		app := f.mustApply(t, f.alice, posting.ID, "old notes")

		notes := "new notes"
		got, err := f.svc.UpdateItem(ctx, f.alice, app.ID, dto.UpdateJobItemRequest{
			Company: "Evil Corp",
			Role:    "CEO",
			Notes:   &notes,
		})
		require.NoError(t, err)
		assert.Equal(t, "Acme", got.Company)
		assert.Equal(t, "Engineer", got.Role)
		assert.Equal(t, "new notes", got.Notes)
	})

	t.Run("admin updating an application touches only status and notes", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		app := f.mustApply(t, f.alice, posting.ID, "")

		got, err := f.svc.UpdateItem(ctx, f.admin, app.ID, dto.UpdateJobItemRequest{
			Company: "Other",
			Status:  models.StatusOffer,
		})
		require.NoError(t, err)
		assert.Equal(t, "Acme", got.Company)
		assert.Equal(t, models.StatusOffer, got.Status)
	})

	t.Run("admin may reshape a posting", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")

		got, err := f.svc.UpdateItem(ctx, f.admin, posting.ID, dto.UpdateJobItemRequest{
			Company: "Acme Ltd",
			Role:    "Senior Engineer",
			Status:  models.PostingStatusClosed,
		})
		require.NoError(t, err)
		assert.Equal(t, "Acme Ltd", got.Company)
		assert.Equal(t, "Senior Engineer", got.Role)
		assert.Equal(t, models.PostingStatusClosed, got.Status)
	})

	t.Run("non-admin cannot update a posting", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		_, err := f.svc.UpdateItem(ctx, f.alice, posting.ID, dto.UpdateJobItemRequest{Status: models.PostingStatusClosed})
		assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
	})

	t.Run("application update notifies the owner, posting update does not", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		app := f.mustApply(t, f.alice, posting.ID, "")

		_, err := f.svc.UpdateItem(ctx, f.admin, app.ID, dto.UpdateJobItemRequest{Status: models.StatusInterview})
		require.NoError(t, err)

		events := waitForEvents(t, f.pub, 1)
		require.Len(t, events, 1)
		assert.Equal(t, f.alice.ID.Hex(), events[0].TargetUserID)
		assert.Equal(t, EventUpdated, events[0].Kind)
		assert.Equal(t, "admin", events[0].Payload.UpdatedBy)

		_, err = f.svc.UpdateItem(ctx, f.admin, posting.ID, dto.UpdateJobItemRequest{Status: models.PostingStatusClosed})
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
		assert.Len(t, f.pub.Events(), 1)
	})
}

func TestDeleteItem(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin cannot delete a posting", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		_, err := f.svc.DeleteItem(ctx, f.alice, posting.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	})

	t.Run("stranger cannot delete another's application", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		app := f.mustApply(t, f.alice, posting.ID, "")
		_, err := f.svc.DeleteItem(ctx, f.bob, app.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
	})

	t.Run("owner deletes own application with one event", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		app := f.mustApply(t, f.alice, posting.ID, "")

		summary, err := f.svc.DeleteItem(ctx, f.alice, app.ID)
		require.NoError(t, err)
		assert.Equal(t, "Job application removed", summary)

		events := waitForEvents(t, f.pub, 1)
		assert.Equal(t, f.alice.ID.Hex(), events[0].TargetUserID)
		assert.True(t, events[0].Payload.Deleted)
		assert.Equal(t, "self", events[0].Payload.UpdatedBy)
		assert.Empty(t, events[0].Payload.PostingID)
	})

	t.Run("deleting a posting cascades with one event per applicant", func(t *testing.T) {
		f := newFixture()
		posting := f.mustCreatePosting(t, "Acme", "Engineer")
		f.mustApply(t, f.alice, posting.ID, "")
		f.mustApply(t, f.bob, posting.ID, "")

		summary, err := f.svc.DeleteItem(ctx, f.admin, posting.ID)
		require.NoError(t, err)
		assert.Contains(t, summary, "2 linked application(s)")
		assert.Equal(t, 0, f.store.count())

		events := waitForEvents(t, f.pub, 2)
		targets := map[string]bool{}
		for _, ev := range events {
			assert.Equal(t, EventDeleted, ev.Kind)
			assert.True(t, ev.Payload.Deleted)
			assert.Equal(t, posting.ID.Hex(), ev.Payload.PostingID)
			targets[ev.TargetUserID] = true
		}
		assert.True(t, targets[f.alice.ID.Hex()])
		assert.True(t, targets[f.bob.ID.Hex()])

		// Nothing left to list for that posting.
		rows, err := f.svc.ListItems(ctx, f.admin, dto.ListQuery{
			Type:                 dto.ListUserApplications,
			OriginalJobPostingID: posting.ID.Hex(),
		})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

// Full walkthrough: post, apply, interview, delete, matching the way the
// product is actually used.
func TestOpportunityLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	posting := f.mustCreatePosting(t, "Acme", "Engineer")
	assert.Equal(t, models.PostingStatusOpen, posting.Status)

	app := f.mustApply(t, f.alice, posting.ID, "excited")
	assert.Equal(t, models.StatusApplied, app.Status)
	assert.Equal(t, "Acme", app.Company)

	_, err := f.svc.UpdateItem(ctx, f.admin, app.ID, dto.UpdateJobItemRequest{Status: models.StatusInterview})
	require.NoError(t, err)

	events := waitForEvents(t, f.pub, 1)
	assert.Equal(t, f.alice.ID.Hex(), events[0].TargetUserID)
	assert.Equal(t, "admin", events[0].Payload.UpdatedBy)
	require.NotNil(t, events[0].Payload.JobApplication)
	assert.Equal(t, models.StatusInterview, events[0].Payload.JobApplication.Status)

	_, err = f.svc.DeleteItem(ctx, f.admin, posting.ID)
	require.NoError(t, err)

	events = waitForEvents(t, f.pub, 2)
	last := events[len(events)-1]
	assert.Equal(t, f.alice.ID.Hex(), last.TargetUserID)
	assert.True(t, last.Payload.Deleted)
	assert.Equal(t, app.ID.Hex(), last.Payload.JobID)
	assert.Equal(t, posting.ID.Hex(), last.Payload.PostingID)
	assert.Equal(t, 0, f.store.count())
}
