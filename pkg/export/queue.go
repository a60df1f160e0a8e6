package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeExportGenerate is the task type consumed by the report generator
const TypeExportGenerate = "export:generate"

// ErrQueueRequired is returned when no queue name is configured
var ErrQueueRequired = errors.New("export queue is required")

// Config contains export queue settings
type Config struct {
	Queue    string        `yaml:"queue" default:"exports"`
	MaxRetry int           `yaml:"maxRetry" default:"3"`
	Timeout  time.Duration `yaml:"timeout" default:"30m"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Queue == "" {
		return ErrQueueRequired
	}
	return nil
}

// Enqueuer is the subset of asynq.Client the queue uses
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Queue hands export requests to the generator
type Queue struct {
	client Enqueuer
	queue  string
	cfg    *Config
}

// NewQueue creates a queue. queueName is the prefixed asynq queue.
func NewQueue(client Enqueuer, queueName string, cfg *Config) *Queue {
	return &Queue{
		client: client,
		queue:  queueName,
		cfg:    cfg,
	}
}

// NewTask encodes req as an export task
func NewTask(req Request) (*asynq.Task, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode export request: %w", err)
	}
	return asynq.NewTask(TypeExportGenerate, data), nil
}

// ParseTask decodes an export task payload
func ParseTask(t *asynq.Task) (Request, error) {
	var req Request
	if t.Type() != TypeExportGenerate {
		return req, fmt.Errorf("unexpected task type %q", t.Type())
	}
	if err := json.Unmarshal(t.Payload(), &req); err != nil {
		return req, fmt.Errorf("failed to decode export request: %w", err)
	}
	return req, nil
}

// Enqueue submits req with the request id as task id, so a request is
// never queued twice
func (q *Queue) Enqueue(ctx context.Context, req Request, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	task, err := NewTask(req)
	if err != nil {
		return nil, err
	}

	allOpts := []asynq.Option{
		asynq.TaskID(req.ID),
		asynq.Queue(q.queue),
		asynq.MaxRetry(q.cfg.MaxRetry),
		asynq.Timeout(q.cfg.Timeout),
	}
	allOpts = append(allOpts, opts...)

	info, err := q.client.EnqueueContext(ctx, task, allOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue export: %w", err)
	}
	return info, nil
}

// Close closes the underlying client
func (q *Queue) Close() error {
	return q.client.Close()
}
