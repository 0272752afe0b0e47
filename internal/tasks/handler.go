package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tasktrack/tasktrack/internal/platform/httpx"
	"github.com/tasktrack/tasktrack/internal/shared"
)

// PDFRenderer turns a task list into a PDF byte stream.
type PDFRenderer interface {
	RenderTasks(ctx context.Context, tasks []Task) (io.ReadCloser, error)
}

// Handler exposes task CRUD and export. It accepts task and owner ids as route
// params, query params or body fields.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	renderer  PDFRenderer
	validator *validator.Validate
}

// NewHandler constructs a Handler. renderer may be nil, in which case export answers 503.
func NewHandler(logger *slog.Logger, service *Service, renderer PDFRenderer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, renderer: renderer, validator: httpx.NewValidator()}
}

// MountRoutes registers task routes. The router is expected to be behind the authenticator.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.createTask)
	r.Get("/", h.listTasks)
	r.Put("/", h.updateTask)
	r.Delete("/", h.deleteTask)
	r.Get("/generate-pdf", h.exportPDF)
	r.Get("/{taskId}", h.getTask)
	r.Put("/{taskId}", h.updateTask)
	r.Delete("/{taskId}", h.deleteTask)
	r.Put("/{userId}/{taskId}", h.updateTask)
}

type createTaskRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
	DueDate     string `json:"dueDate" validate:"required"`
	Status      string `json:"status" validate:"required"`
	UserID      string `json:"userId"`
}

type updateTaskRequest struct {
	TaskID      string  `json:"taskId"`
	UserID      string  `json:"userId"`
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	DueDate     *string `json:"dueDate"`
	Status      *string `json:"status"`
}

type taskView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	Status      Status    `json:"status"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func viewOf(t *Task) taskView {
	return taskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Status:      t.Status,
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	var req createTaskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validationf("Invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	task, err := h.service.Create(r.Context(), actor, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
		Status:      req.Status,
		UserID:      req.UserID,
	})
	if err != nil {
		h.fail(w, "create task", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewOf(task))
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	q := r.URL.Query()
	tasks, err := h.service.List(r.Context(), actor, firstNonEmpty(q.Get("id"), q.Get("userId")))
	if err != nil {
		h.fail(w, "list tasks", err)
		return
	}
	views := make([]taskView, 0, len(tasks))
	for i := range tasks {
		views = append(views, viewOf(&tasks[i]))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	task, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "taskId"))
	if err != nil {
		h.fail(w, "get task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(task))
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	var req updateTaskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.RespondError(w, shared.Validationf("Invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}

	in := UpdateInput{
		Title:       nonEmpty(req.Title),
		Description: nonEmpty(req.Description),
		Status:      nonEmpty(req.Status),
	}
	if raw := nonEmpty(req.DueDate); raw != nil {
		due, err := parseDueDate(*raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		in.DueDate = &due
	}

	task, err := h.service.Update(r.Context(), actor, resolveRef(r, req.TaskID, req.UserID), in)
	if err != nil {
		h.fail(w, "update task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(task))
}

type deleteTaskRequest struct {
	TaskID string `json:"taskId"`
	UserID string `json:"userId"`
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	var req deleteTaskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.RespondError(w, shared.Validationf("Invalid request body"))
		return
	}
	if err := h.service.Delete(r.Context(), actor, resolveRef(r, req.TaskID, req.UserID)); err != nil {
		h.fail(w, "delete task", err)
		return
	}
	httpx.Message(w, http.StatusOK, "Task deleted successfully")
}

func (h *Handler) exportPDF(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	tasks, err := h.service.ExportTasks(r.Context(), actor, r.URL.Query().Get("userId"))
	if err != nil {
		h.fail(w, "export tasks", err)
		return
	}
	if h.renderer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "pdf_unavailable", "PDF export is not configured")
		return
	}

	stream, err := h.renderer.RenderTasks(r.Context(), tasks)
	if err != nil {
		h.logger.Error("render tasks pdf", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "pdf_failed", "PDF generation failed")
		return
	}
	defer func() { _ = stream.Close() }()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="tasks_%s.pdf"`, tasks[0].UserID))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, stream); err != nil {
		h.logger.Warn("stream tasks pdf", slog.Any("error", err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if shared.KindOf(err) == shared.KindInternal {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

// resolveRef collects task and owner ids with precedence route > query > body.
func resolveRef(r *http.Request, bodyTaskID, bodyUserID string) Ref {
	q := r.URL.Query()
	return Ref{
		TaskID: firstNonEmpty(chi.URLParam(r, "taskId"), q.Get("taskId"), q.Get("id"), bodyTaskID),
		UserID: firstNonEmpty(chi.URLParam(r, "userId"), q.Get("userId"), bodyUserID),
	}
}

func parseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, shared.Validationf("dueDate must be an RFC3339 timestamp or a YYYY-MM-DD date")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// nonEmpty treats empty strings as absent so they never overwrite stored values.
func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
