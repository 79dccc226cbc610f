package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/conversation-clipboard/jobs"
)

// QueueInspector is the subset of asynq.Inspector used by the jobs commands.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	ListRetryTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	RunTask(queue, id string) error
}

// JobsCLI wraps manual management helpers for bulk action tasks.
type JobsCLI struct {
	inspector QueueInspector
	closer    io.Closer
}

// NewJobsCLI initialises the CLI helpers against the queue's Redis database.
func NewJobsCLI(redisOpts asynq.RedisClientOpt) *JobsCLI {
	inspector := asynq.NewInspector(redisOpts)
	return &JobsCLI{inspector: inspector, closer: inspector}
}

// NewJobsCLIWithInspector builds the helpers around an existing inspector.
func NewJobsCLIWithInspector(inspector QueueInspector) *JobsCLI {
	return &JobsCLI{inspector: inspector}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
	}
	return stats, nil
}

// RetryBulkActions immediately reruns bulk action tasks waiting for retry and
// returns how many were moved back to pending.
func (c *JobsCLI) RetryBulkActions(ctx context.Context, size int) (int, error) {
	if c == nil || c.inspector == nil {
		return 0, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 50
	}
	tasks, err := c.inspector.ListRetryTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, task := range tasks {
		if task.Type != jobs.TaskConversationBulkAction {
			continue
		}
		if err := ctx.Err(); err != nil {
			return moved, err
		}
		if err := c.inspector.RunTask(jobs.QueueDefault, task.ID); err != nil {
			return moved, fmt.Errorf("jobs cli: run %s: %w", task.ID, err)
		}
		moved++
	}
	return moved, nil
}

// JobsOptions defines the flags accepted by the jobs command.
type JobsOptions struct {
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// Run executes a jobs subcommand and returns the process exit code.
func (c *JobsCLI) Run(ctx context.Context, sub string, opts JobsOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	switch sub {
	case "stats":
		stats, err := c.InspectQueue(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "jobs stats: %v\n", err)
			return 1
		}
		if opts.JSONOutput {
			if err := json.NewEncoder(opts.Stdout).Encode(stats); err != nil {
				_, _ = fmt.Fprintf(opts.Stderr, "jobs stats: encode json: %v\n", err)
				return 1
			}
			return 0
		}
		_, _ = fmt.Fprintf(opts.Stdout, "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
		return 0
	case "retry":
		moved, err := c.RetryBulkActions(ctx, 0)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "jobs retry: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(opts.Stdout, "requeued %d bulk action task(s)\n", moved)
		return 0
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "jobs: unknown subcommand %q (expected stats or retry)\n", sub)
		return 2
	}
}
