package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/tasktrack/tasktrack/internal/shared"
)

// OwnerDirectory resolves task owners to registered users.
type OwnerDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// Service implements the task lifecycle. Every operation is checked against the
// acting identity with shared.AuthorizeOwner.
type Service struct {
	repo    Repository
	owners  OwnerDirectory
	now     func() time.Time
	exports singleflight.Group
}

// NewService constructs a Service.
func NewService(repo Repository, owners OwnerDirectory) *Service {
	return &Service{repo: repo, owners: owners, now: time.Now}
}

// Create validates and stores a new task owned by the caller.
func (s *Service) Create(ctx context.Context, actor shared.Identity, in CreateInput) (*Task, error) {
	status, err := ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, shared.Validationf("title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, shared.Validationf("description is required")
	}
	if in.DueDate.IsZero() {
		return nil, shared.Validationf("dueDate is required")
	}

	owner, err := s.claimedOwner(actor, in.UserID)
	if err != nil {
		return nil, err
	}
	exists, err := s.owners.Exists(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("tasks: resolve owner: %w", err)
	}
	if !exists {
		return nil, shared.ErrUnknownUser
	}

	now := s.now().UTC()
	task := &Task{
		ID:          uuid.NewString(),
		UserID:      owner,
		Title:       title,
		Description: in.Description,
		DueDate:     in.DueDate.UTC(),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Get returns a single task of the caller.
func (s *Service) Get(ctx context.Context, actor shared.Identity, rawID string) (*Task, error) {
	id, err := parseTaskID(rawID)
	if err != nil {
		return nil, err
	}
	return s.owned(ctx, actor, id)
}

// List returns all tasks of owner, which must be the caller. An empty owner means the caller.
func (s *Service) List(ctx context.Context, actor shared.Identity, owner string) ([]Task, error) {
	owner, err := s.claimedOwner(actor, owner)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// Update merges the supplied fields into the task.
func (s *Service) Update(ctx context.Context, actor shared.Identity, ref Ref, in UpdateInput) (*Task, error) {
	var status Status
	if in.Status != nil {
		parsed, err := ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, shared.Validationf("title cannot be empty")
	}
	id, err := parseTaskID(ref.TaskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.claimedOwner(actor, ref.UserID); err != nil {
		return nil, err
	}

	task, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	in.apply(task, status)
	task.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task of the caller.
func (s *Service) Delete(ctx context.Context, actor shared.Identity, ref Ref) error {
	id, err := parseTaskID(ref.TaskID)
	if err != nil {
		return err
	}
	if _, err := s.claimedOwner(actor, ref.UserID); err != nil {
		return err
	}
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ExportTasks loads the tasks to render for rawUserID. The id is format-checked
// before any storage access, and concurrent exports of one owner share a fetch.
func (s *Service) ExportTasks(ctx context.Context, actor shared.Identity, rawUserID string) ([]Task, error) {
	rawUserID = strings.TrimSpace(rawUserID)
	if rawUserID == "" {
		return nil, shared.ErrUserIDRequired
	}
	parsed, err := uuid.Parse(rawUserID)
	if err != nil {
		return nil, shared.ErrInvalidUserID
	}
	owner := parsed.String()
	if err := shared.AuthorizeOwner(actor, owner); err != nil {
		return nil, err
	}

	ch := s.exports.DoChan(owner, func() (any, error) {
		return s.repo.ListByOwner(context.WithoutCancel(ctx), owner)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		tasks, _ := res.Val.([]Task)
		if len(tasks) == 0 {
			return nil, shared.ErrNoTasks
		}
		return tasks, nil
	}
}

func (s *Service) owned(ctx context.Context, actor shared.Identity, id string) (*Task, error) {
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := shared.AuthorizeOwner(actor, task.UserID); err != nil {
		return nil, err
	}
	return task, nil
}

// claimedOwner normalises a client-supplied owner id and checks it against the caller.
func (s *Service) claimedOwner(actor shared.Identity, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return "", shared.ErrInvalidUserID
		}
		raw = parsed.String()
	}
	return shared.AuthorizeClaimedOwner(actor, raw)
}

func parseTaskID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", shared.Validationf("Task ID is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", shared.ErrInvalidTaskID
	}
	return parsed.String(), nil
}
