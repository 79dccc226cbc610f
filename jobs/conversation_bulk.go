package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/conversation-clipboard/internal/clipboard"
	jobmetrics "github.com/odyssey-erp/conversation-clipboard/internal/jobs"
)

const (
	// TaskConversationBulkAction applies a clipboard action to many conversations.
	TaskConversationBulkAction = "conversation:bulk_action"

	bulkActionJobName = "conversation_bulk_action"
)

// ErrInvalidBulkAction marks payloads that can never succeed.
var ErrInvalidBulkAction = errors.New("jobs: invalid conversation bulk action")

// BulkActionPayload is the queued form of an authorized clipboard descriptor.
type BulkActionPayload struct {
	ActorID   int64            `json:"actor_id"`
	Action    clipboard.Action `json:"action"`
	ObjectIDs []int64          `json:"object_ids"`
	LabelIDs  []int64          `json:"label_ids,omitempty"`
}

// Validate ensures the payload can be executed.
func (p BulkActionPayload) Validate() error {
	switch {
	case p.ActorID <= 0:
		return fmt.Errorf("%w: actor required", ErrInvalidBulkAction)
	case !p.Action.Valid():
		return fmt.Errorf("%w: %s", clipboard.ErrUnsupportedAction, p.Action)
	case len(p.ObjectIDs) == 0:
		return fmt.Errorf("%w: no conversations", ErrInvalidBulkAction)
	case p.Action == clipboard.ActionAssignLabel && len(p.LabelIDs) == 0:
		return fmt.Errorf("%w: assignLabel requires label ids", ErrInvalidBulkAction)
	}
	return nil
}

// NewBulkActionPayload turns a descriptor built for actorID into a queue payload.
func NewBulkActionPayload(actorID int64, d *clipboard.Descriptor, labelIDs []int64) (BulkActionPayload, error) {
	if d == nil {
		return BulkActionPayload{}, fmt.Errorf("%w: descriptor required", ErrInvalidBulkAction)
	}
	payload := BulkActionPayload{
		ActorID:   actorID,
		Action:    d.Action,
		ObjectIDs: d.ObjectIDs(),
		LabelIDs:  labelIDs,
	}
	if err := payload.Validate(); err != nil {
		return BulkActionPayload{}, err
	}
	return payload, nil
}

// NewBulkActionTask builds the asynq task for payload.
func NewBulkActionTask(payload BulkActionPayload, opts ...asynq.Option) (*asynq.Task, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	opts = append([]asynq.Option{asynq.Queue(QueueDefault)}, opts...)
	return asynq.NewTask(TaskConversationBulkAction, body, opts...), nil
}

// ConversationStore applies bulk state changes. Every method scopes the change
// to rows the user may touch and returns the number of rows changed.
type ConversationStore interface {
	SetClosed(ctx context.Context, ids []int64, ownerID int64, closed bool) (int64, error)
	Leave(ctx context.Context, ids []int64, userID int64, permanent bool) (int64, error)
	AssignLabels(ctx context.Context, ids, labelIDs []int64, userID int64) (int64, error)
}

// MarkRemover drops executed conversations from the actor's clipboard.
type MarkRemover interface {
	Unmark(ctx context.Context, actorID int64, ids ...int64) error
}

// BulkActionJob executes queued clipboard descriptors.
type BulkActionJob struct {
	Store   ConversationStore
	Marks   MarkRemover
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewBulkActionJob wires dependencies for the bulk action handler.
func NewBulkActionJob(store ConversationStore, marks MarkRemover, logger *slog.Logger, metrics *jobmetrics.Metrics) *BulkActionJob {
	return &BulkActionJob{Store: store, Marks: marks, Logger: logger, Metrics: metrics}
}

// Handle processes TaskConversationBulkAction tasks.
func (j *BulkActionJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Store == nil {
		return errors.New("conversation bulk action: handler not configured")
	}
	tracker := j.metrics().Track(bulkActionJobName)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	var payload BulkActionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("conversation bulk action: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("conversation bulk action: %v: %w", err, asynq.SkipRetry)
	}

	logger := j.logger().With(
		slog.String("action", payload.Action.String()),
		slog.Int64("actor_id", payload.ActorID),
		slog.Int("objects", len(payload.ObjectIDs)),
	)

	affected, err := j.apply(ctx, payload)
	if err != nil {
		logger.Error("conversation bulk action failed", slog.Any("error", err))
		return err
	}
	j.metrics().AddAffected(payload.Action.String(), affected)

	if j.Marks != nil {
		if err := j.Marks.Unmark(ctx, payload.ActorID, payload.ObjectIDs...); err != nil {
			logger.Warn("unmark executed conversations", slog.Any("error", err))
		}
	}
	logger.Info("conversation bulk action applied", slog.Int64("affected", affected))
	return nil
}

func (j *BulkActionJob) apply(ctx context.Context, p BulkActionPayload) (int64, error) {
	switch p.Action {
	case clipboard.ActionClose:
		return j.Store.SetClosed(ctx, p.ObjectIDs, p.ActorID, true)
	case clipboard.ActionOpen:
		return j.Store.SetClosed(ctx, p.ObjectIDs, p.ActorID, false)
	case clipboard.ActionLeave:
		return j.Store.Leave(ctx, p.ObjectIDs, p.ActorID, false)
	case clipboard.ActionLeavePermanently:
		return j.Store.Leave(ctx, p.ObjectIDs, p.ActorID, true)
	case clipboard.ActionAssignLabel:
		return j.Store.AssignLabels(ctx, p.ObjectIDs, p.LabelIDs, p.ActorID)
	default:
		return 0, fmt.Errorf("%w: %s", clipboard.ErrUnsupportedAction, p.Action)
	}
}

func (j *BulkActionJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *BulkActionJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
