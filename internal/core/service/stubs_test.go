package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/taskboard/tracker/internal/core/domain"
	"github.com/taskboard/tracker/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs shared by the service tests
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID      map[string]*domain.User
	createErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

// Create mirrors a unique index on email.
func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, domain.ErrDuplicateIdentity
		}
	}
	r.byID[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

// stubHasher prefixes instead of hashing and counts Burn calls.
type stubHasher struct {
	burns int
}

func (h *stubHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }

func (h *stubHasher) Verify(plaintext, digest string) bool { return digest == "hashed:"+plaintext }

func (h *stubHasher) Burn(string) { h.burns++ }

type stubProjectRepo struct {
	byID      map[string]*domain.Project
	createErr error
	// detach is called by Delete to emulate ON DELETE SET NULL.
	detach func(projectID string)
}

func newStubProjectRepo() *stubProjectRepo {
	return &stubProjectRepo{byID: make(map[string]*domain.Project)}
}

func (r *stubProjectRepo) owned(userID, id string) (*domain.Project, bool) {
	p, ok := r.byID[id]
	if !ok || p.UserID != userID {
		return nil, false
	}
	return p, true
}

func (r *stubProjectRepo) List(_ context.Context, userID string) ([]*domain.Project, error) {
	var out []*domain.Project
	for _, p := range r.byID {
		if p.UserID == userID {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubProjectRepo) Create(_ context.Context, p *domain.Project) error {
	if r.createErr != nil {
		return r.createErr
	}
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *stubProjectRepo) FindByID(_ context.Context, userID, id string) (*domain.Project, error) {
	p, ok := r.owned(userID, id)
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProjectRepo) Exists(_ context.Context, userID, id string) (bool, error) {
	_, ok := r.owned(userID, id)
	return ok, nil
}

func (r *stubProjectRepo) Update(_ context.Context, userID, id string, patch ports.ProjectPatch, now time.Time) (*domain.Project, error) {
	p, ok := r.owned(userID, id)
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.ScheduledCompletion.Set {
		p.ScheduledCompletion = patch.ScheduledCompletion.Value
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	p.UpdatedAt = now
	clone := *p
	return &clone, nil
}

func (r *stubProjectRepo) Delete(_ context.Context, userID, id string) (*domain.Project, error) {
	p, ok := r.owned(userID, id)
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	delete(r.byID, id)
	if r.detach != nil {
		r.detach(id)
	}
	return p, nil
}

type stubTaskRepo struct {
	byID      map[string]*domain.Task
	createErr error
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{byID: make(map[string]*domain.Task)}
}

func (r *stubTaskRepo) owned(userID, id string) (*domain.Task, bool) {
	t, ok := r.byID[id]
	if !ok || t.UserID != userID {
		return nil, false
	}
	return t, true
}

func (r *stubTaskRepo) List(_ context.Context, userID string) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range r.byID {
		if t.UserID == userID {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubTaskRepo) ListByProject(_ context.Context, userID, projectID string) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range r.byID {
		if t.UserID == userID && t.ProjectID != nil && *t.ProjectID == projectID {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubTaskRepo) Create(_ context.Context, t *domain.Task) error {
	if r.createErr != nil {
		return r.createErr
	}
	clone := *t
	r.byID[t.ID] = &clone
	return nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, userID, id string) (*domain.Task, error) {
	t, ok := r.owned(userID, id)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *stubTaskRepo) Update(_ context.Context, userID, id string, patch ports.TaskPatch, now time.Time) (*domain.Task, error) {
	t, ok := r.owned(userID, id)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.DueDate.Set {
		t.DueDate = patch.DueDate.Value
	}
	if patch.Progress != nil {
		t.Progress = *patch.Progress
	}
	if patch.ProjectID.Set {
		t.ProjectID = patch.ProjectID.Value
	}
	t.UpdatedAt = now
	clone := *t
	return &clone, nil
}

func (r *stubTaskRepo) Delete(_ context.Context, userID, id string) (*domain.Task, error) {
	t, ok := r.owned(userID, id)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	delete(r.byID, id)
	return t, nil
}

func (r *stubTaskRepo) detach(projectID string) {
	for _, t := range r.byID {
		if t.ProjectID != nil && *t.ProjectID == projectID {
			t.ProjectID = nil
		}
	}
}

// stubIdempotency holds "" for a pending reservation.
type stubIdempotency struct {
	keys       map[string]string
	reserveErr error
	releases   int
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]string)}
}

func (s *stubIdempotency) Reserve(_ context.Context, userID, scope, key string) (ports.IdempotencyClaim, bool, error) {
	if s.reserveErr != nil {
		return ports.IdempotencyClaim{}, false, s.reserveErr
	}
	k := userID + "|" + scope + "|" + key
	if id, ok := s.keys[k]; ok {
		return ports.IdempotencyClaim{ResourceID: id}, false, nil
	}
	s.keys[k] = ""
	return ports.IdempotencyClaim{}, true, nil
}

func (s *stubIdempotency) Complete(_ context.Context, userID, scope, key, resourceID string) error {
	s.keys[userID+"|"+scope+"|"+key] = resourceID
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, userID, scope, key string) error {
	delete(s.keys, userID+"|"+scope+"|"+key)
	s.releases++
	return nil
}

var errStoreDown = errors.New("store unavailable")

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
