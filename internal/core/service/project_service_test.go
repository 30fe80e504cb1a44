package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskboard/tracker/internal/core/domain"
	"github.com/taskboard/tracker/internal/core/ports"
)

type projectFixture struct {
	svc      *ProjectService
	projects *stubProjectRepo
	tasks    *stubTaskRepo
	idem     *stubIdempotency
}

func newProjectFixture() projectFixture {
	projects := newStubProjectRepo()
	tasks := newStubTaskRepo()
	projects.detach = tasks.detach
	idem := newStubIdempotency()
	return projectFixture{
		svc:      NewProjectService(projects, tasks, idem, zerolog.Nop()),
		projects: projects,
		tasks:    tasks,
		idem:     idem,
	}
}

func TestProjectService_Create_Defaults(t *testing.T) {
	f := newProjectFixture()

	p, err := f.svc.Create(context.Background(), ports.CreateProjectInput{UserID: "u1", Name: "  Garden  "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Name != "Garden" {
		t.Fatalf("name = %q", p.Name)
	}
	if p.Status != domain.ProjectNotStarted {
		t.Fatalf("status = %q, want default", p.Status)
	}
	if p.UserID != "u1" {
		t.Fatalf("owner = %q", p.UserID)
	}
}

func TestProjectService_Create_InvalidStatus(t *testing.T) {
	f := newProjectFixture()

	_, err := f.svc.Create(context.Background(), ports.CreateProjectInput{UserID: "u1", Name: "x", Status: "Paused"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestProjectService_Create_IdempotentReplay(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	in := ports.CreateProjectInput{UserID: "u1", Name: "Garden", IdempotencyKey: "k-1"}

	first, err := f.svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	second, err := f.svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("replay created a new project: %s vs %s", first.ID, second.ID)
	}
	if len(f.projects.byID) != 1 {
		t.Fatalf("expected 1 stored project, got %d", len(f.projects.byID))
	}

	// Same key from another user is a different request.
	other, _ := f.svc.Create(ctx, ports.CreateProjectInput{UserID: "u2", Name: "Garden", IdempotencyKey: "k-1"})
	if other.ID == first.ID {
		t.Fatalf("idempotency keys leaked across users")
	}
}

func TestProjectService_Create_IdempotencyStoreDown(t *testing.T) {
	f := newProjectFixture()
	f.idem.reserveErr = errStoreDown

	if _, err := f.svc.Create(context.Background(), ports.CreateProjectInput{UserID: "u1", Name: "x", IdempotencyKey: "k"}); err != nil {
		t.Fatalf("store failure should degrade to plain create, got %v", err)
	}
}

func TestProjectService_Create_KeyInFlightCreatesNothing(t *testing.T) {
	f := newProjectFixture()
	// Another request reserved the key and has not finished.
	f.idem.keys["u1|project|k-1"] = ""

	_, err := f.svc.Create(context.Background(), ports.CreateProjectInput{UserID: "u1", Name: "Garden", IdempotencyKey: "k-1"})
	if !errors.Is(err, domain.ErrRequestInProgress) {
		t.Fatalf("expected ErrRequestInProgress, got %v", err)
	}
	if len(f.projects.byID) != 0 {
		t.Fatalf("in-flight key must not create, got %d projects", len(f.projects.byID))
	}
}

func TestProjectService_Create_FailedCreateReleasesKey(t *testing.T) {
	f := newProjectFixture()
	f.projects.createErr = errStoreDown
	in := ports.CreateProjectInput{UserID: "u1", Name: "Garden", IdempotencyKey: "k-1"}

	if _, err := f.svc.Create(context.Background(), in); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if f.idem.releases != 1 {
		t.Fatalf("expected the reservation to be released")
	}

	f.projects.createErr = nil
	p, err := f.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if f.idem.keys["u1|project|k-1"] != p.ID {
		t.Fatalf("retry did not record the new project")
	}
}

func TestProjectService_Create_InvalidInputLeavesKeyFree(t *testing.T) {
	f := newProjectFixture()

	_, err := f.svc.Create(context.Background(), ports.CreateProjectInput{UserID: "u1", Name: " ", IdempotencyKey: "k-1"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, held := f.idem.keys["u1|project|k-1"]; held {
		t.Fatalf("validation failure reserved the key")
	}
}

func TestProjectService_CrossUserIsNotFound(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	p, _ := f.svc.Create(ctx, ports.CreateProjectInput{UserID: "owner", Name: "Secret"})

	if _, err := f.svc.Get(ctx, "intruder", p.ID); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("Get: expected ErrProjectNotFound, got %v", err)
	}
	name := "Hijacked"
	if _, err := f.svc.Update(ctx, "intruder", p.ID, ports.ProjectPatch{Name: &name}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Update: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Delete(ctx, "intruder", p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Delete: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.ListTasks(ctx, "intruder", p.ID); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("ListTasks: expected ErrProjectNotFound, got %v", err)
	}

	list, _ := f.svc.List(ctx, "intruder")
	if len(list) != 0 {
		t.Fatalf("intruder sees %d projects", len(list))
	}
	if stored := f.projects.byID[p.ID]; stored.Name != "Secret" {
		t.Fatalf("foreign update leaked through")
	}
}

func TestProjectService_Update(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p, _ := f.svc.Create(ctx, ports.CreateProjectInput{UserID: "u1", Name: "Garden", ScheduledCompletion: &due})

	if _, err := f.svc.Update(ctx, "u1", p.ID, ports.ProjectPatch{}); !errors.Is(err, domain.ErrNoFieldsToUpdate) {
		t.Fatalf("expected ErrNoFieldsToUpdate, got %v", err)
	}

	bad := domain.ProjectStatus("Paused")
	if _, err := f.svc.Update(ctx, "u1", p.ID, ports.ProjectPatch{Status: &bad}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	status := domain.ProjectInProgress
	updated, err := f.svc.Update(ctx, "u1", p.ID, ports.ProjectPatch{
		Status:              &status,
		ScheduledCompletion: ports.Nullable[time.Time]{Set: true},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != domain.ProjectInProgress || updated.ScheduledCompletion != nil {
		t.Fatalf("unexpected project: %+v", updated)
	}
	if updated.Name != "Garden" {
		t.Fatalf("untouched field changed: %q", updated.Name)
	}
}

func TestProjectService_DeleteDetachesTasks(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	p, _ := f.svc.Create(ctx, ports.CreateProjectInput{UserID: "u1", Name: "Garden"})

	tasks := NewTaskService(f.tasks, f.projects, nil, zerolog.Nop())
	task, err := tasks.Create(ctx, ports.CreateTaskInput{UserID: "u1", Title: "Dig", ProjectID: &p.ID})
	if err != nil {
		t.Fatalf("task Create: %v", err)
	}

	listed, err := f.svc.ListTasks(ctx, "u1", p.ID)
	if err != nil || len(listed) != 1 {
		t.Fatalf("ListTasks = %d, %v", len(listed), err)
	}

	if _, err := f.svc.Delete(ctx, "u1", p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, err := tasks.Get(ctx, "u1", task.ID)
	if err != nil {
		t.Fatalf("task should survive project deletion: %v", err)
	}
	if got.ProjectID != nil {
		t.Fatalf("task still points at deleted project")
	}
}
