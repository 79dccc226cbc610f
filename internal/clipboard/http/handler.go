// Package clipboardhttp exposes the conversation clipboard over HTTP.
package clipboardhttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/conversation-clipboard/internal/clipboard"
	"github.com/odyssey-erp/conversation-clipboard/internal/conversation"
	"github.com/odyssey-erp/conversation-clipboard/internal/observability"
	"github.com/odyssey-erp/conversation-clipboard/internal/platform/httpx"
	"github.com/odyssey-erp/conversation-clipboard/internal/rbac"
	"github.com/odyssey-erp/conversation-clipboard/internal/shared"
)

// ConversationLoader resolves marked identifiers to conversations.
type ConversationLoader interface {
	LoadByIDs(ctx context.Context, ids []int64) ([]conversation.Conversation, error)
}

// MarkStore persists the conversations an actor has marked.
type MarkStore interface {
	Mark(ctx context.Context, actorID int64, ids ...int64) error
	Unmark(ctx context.Context, actorID int64, ids ...int64) error
	Marked(ctx context.Context, actorID int64) ([]int64, error)
	Clear(ctx context.Context, actorID int64) error
}

// Enqueuer hands an authorized descriptor to the bulk executor.
type Enqueuer interface {
	EnqueueBulkAction(ctx context.Context, actorID int64, d *clipboard.Descriptor, labelIDs []int64) (string, error)
}

// Recorder counts clipboard action outcomes.
type Recorder interface {
	RecordClipboardAction(action, outcome string)
}

// Deps groups handler collaborators.
type Deps struct {
	Logger        *slog.Logger
	Conversations ConversationLoader
	Participants  clipboard.ParticipationStore
	Labels        clipboard.LabelCounter
	Marks         MarkStore
	Jobs          Enqueuer
	Metrics       Recorder
	RBAC          rbac.Middleware
	Language      language.Tag
}

// Handler serves clipboard endpoints for conversations.
type Handler struct {
	logger        *slog.Logger
	conversations ConversationLoader
	marks         MarkStore
	jobs          Enqueuer
	metrics       Recorder
	rbac          rbac.Middleware
	lang          language.Tag

	validator *clipboard.Validator
	builder   *clipboard.Builder
	validate  *validator.Validate
}

// NewHandler constructs the clipboard handler.
func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:        logger,
		conversations: deps.Conversations,
		marks:         deps.Marks,
		jobs:          deps.Jobs,
		metrics:       deps.Metrics,
		rbac:          deps.RBAC,
		lang:          deps.Language,
		validator:     clipboard.NewValidator(deps.Participants),
		builder:       clipboard.NewBuilder(deps.Labels),
		validate:      validator.New(),
	}
}

// MountRoutes registers clipboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/clipboard/conversations", func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermConversationUse))
		r.Get("/", h.list)
		r.Post("/marks", h.mark)
		r.Delete("/marks", h.unmark)
		r.Get("/actions/{action}", h.showAction)
		r.Post("/actions/{action}", h.executeAction)
	})
}

type markRequest struct {
	ObjectIDs []int64 `json:"object_ids" validate:"required,min=1,dive,gt=0"`
}

type unmarkRequest struct {
	ObjectIDs []int64 `json:"object_ids" validate:"omitempty,dive,gt=0"`
}

type executeRequest struct {
	LabelIDs []int64 `json:"label_ids" validate:"omitempty,dive,gt=0"`
}

type clipboardView struct {
	Type    string                 `json:"type"`
	Label   string                 `json:"label"`
	Marked  int                    `json:"marked"`
	Count   int                    `json:"count"`
	Actions []clipboard.Descriptor `json:"actions"`
}

type enqueuedView struct {
	TaskID     string                `json:"task_id"`
	Descriptor *clipboard.Descriptor `json:"descriptor"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := shared.ActorFromContext(ctx)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	provider, err := h.provider(ctx, actorID)
	if err != nil {
		h.fail(w, "list", err)
		return
	}
	actions, err := provider.Actions(ctx)
	if err != nil {
		h.fail(w, "list", err)
		return
	}
	sel, err := provider.Selection(ctx)
	if err != nil {
		h.fail(w, "list", err)
		return
	}
	if actions == nil {
		actions = []clipboard.Descriptor{}
	}
	httpx.JSON(w, http.StatusOK, clipboardView{
		Type:    provider.TypeName(),
		Label:   clipboard.EditorLabel(h.lang, provider.MarkedCount()),
		Marked:  provider.MarkedCount(),
		Count:   sel.Len(),
		Actions: actions,
	})
}

func (h *Handler) showAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := shared.ActorFromContext(ctx)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	token := chi.URLParam(r, "action")
	action, err := clipboard.ParseAction(token)
	if err != nil {
		h.record(token, observability.OutcomeUnsupported)
		h.fail(w, token, err)
		return
	}
	d, err := h.build(ctx, actorID, action)
	if err != nil {
		h.fail(w, token, err)
		return
	}
	if d == nil {
		httpx.NoContent(w)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) executeAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := shared.ActorFromContext(ctx)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	token := chi.URLParam(r, "action")
	action, err := clipboard.ParseAction(token)
	if err != nil {
		h.record(token, observability.OutcomeUnsupported)
		h.fail(w, token, err)
		return
	}
	var req executeRequest
	if err := h.decode(r, &req, true); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if action == clipboard.ActionAssignLabel && len(req.LabelIDs) == 0 {
		httpx.RespondError(w, fmt.Errorf("%w: label_ids required for %s", httpx.ErrValidation, action))
		return
	}
	if h.jobs == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "")
		return
	}
	d, err := h.build(ctx, actorID, action)
	if err != nil {
		h.fail(w, token, err)
		return
	}
	if d == nil {
		httpx.NoContent(w)
		return
	}
	taskID, err := h.jobs.EnqueueBulkAction(ctx, actorID, d, req.LabelIDs)
	if err != nil {
		h.fail(w, token, err)
		return
	}
	h.logger.Info("clipboard action queued",
		slog.String("action", token),
		slog.Int64("actor_id", actorID),
		slog.String("task_id", taskID),
	)
	httpx.JSON(w, http.StatusAccepted, enqueuedView{TaskID: taskID, Descriptor: d})
}

func (h *Handler) mark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := shared.ActorFromContext(ctx)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req markRequest
	if err := h.decode(r, &req, false); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.marks.Mark(ctx, actorID, req.ObjectIDs...); err != nil {
		h.fail(w, "mark", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) unmark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := shared.ActorFromContext(ctx)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req unmarkRequest
	if err := h.decode(r, &req, true); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var err error
	if len(req.ObjectIDs) == 0 {
		err = h.marks.Clear(ctx, actorID)
	} else {
		err = h.marks.Unmark(ctx, actorID, req.ObjectIDs...)
	}
	if err != nil {
		h.fail(w, "unmark", err)
		return
	}
	httpx.NoContent(w)
}

// provider loads the actor's marked conversations into a request-scoped Provider.
func (h *Handler) provider(ctx context.Context, actorID int64) (*clipboard.Provider, error) {
	ids, err := h.marks.Marked(ctx, actorID)
	if err != nil {
		return nil, err
	}
	var candidates []conversation.Conversation
	if len(ids) > 0 {
		candidates, err = h.conversations.LoadByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
	}
	return clipboard.NewProvider(h.validator, h.builder, actorID, candidates), nil
}

func (h *Handler) build(ctx context.Context, actorID int64, action clipboard.Action) (*clipboard.Descriptor, error) {
	provider, err := h.provider(ctx, actorID)
	if err != nil {
		h.record(action.String(), observability.OutcomeError)
		return nil, err
	}
	d, err := provider.Build(ctx, action)
	switch {
	case err != nil:
		h.record(action.String(), observability.OutcomeError)
	case d == nil:
		h.record(action.String(), observability.OutcomeEmpty)
	default:
		h.record(action.String(), observability.OutcomeBuilt)
	}
	return d, err
}

// decode reads and validates a JSON body. With allowEmpty an absent body
// leaves target at its zero value.
func (h *Handler) decode(r *http.Request, target any, allowEmpty bool) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if err := h.validate.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("%w: %s failed on %s", httpx.ErrValidation, fieldErrs[0].Namespace(), fieldErrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	return nil
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, clipboard.ErrUnsupportedAction) {
		httpx.Problem(w, http.StatusBadRequest, "Unsupported Action", err.Error())
		return
	}
	h.logger.Error("clipboard request failed", slog.String("op", op), slog.Any("error", err))
	httpx.RespondError(w, err)
}

func (h *Handler) record(action, outcome string) {
	if h.metrics != nil {
		h.metrics.RecordClipboardAction(action, outcome)
	}
}
