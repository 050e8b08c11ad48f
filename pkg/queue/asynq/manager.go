package asynq

import (
	"context"
	"fmt"
	"time"

	"shiftboard/internal/model"
	"shiftboard/pkg/config"
	"shiftboard/pkg/interfaces"
	"shiftboard/pkg/logger"

	"github.com/hibiken/asynq"
)

const (
	TypeNotificationDeliver = "notification:deliver"
	queueName               = "default"
)

// Manager queue manager for outbound notification delivery
type Manager struct {
	client   *asynq.Client
	server   *asynq.Server
	mux      *asynq.ServeMux
	queueCfg config.QueueConfig
}

// NewManager creates queue manager
func NewManager(cfg *config.Config) (*Manager, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			Queues: map[string]int{
				queueName: 10,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Second
			},
		},
	)

	return &Manager{
		client:   client,
		server:   server,
		mux:      asynq.NewServeMux(),
		queueCfg: cfg.Queue,
	}, nil
}

// EnqueueNotification enqueues a notification for delivery with retries.
// The notification id doubles as the task id so a duplicate enqueue is rejected.
func (m *Manager) EnqueueNotification(ctx context.Context, n *model.Notification) error {
	payload, err := n.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	opts := []asynq.Option{
		asynq.Queue(queueName),
		asynq.Timeout(time.Duration(m.queueCfg.TaskTimeout) * time.Second),
		asynq.MaxRetry(m.queueCfg.MaxRetry),
	}
	if n.ID != "" {
		opts = append(opts, asynq.TaskID(n.ID))
	}

	info, err := m.client.EnqueueContext(ctx, asynq.NewTask(TypeNotificationDeliver, payload), opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	logger.DebugCtx(ctx, "notification enqueued, id: %s, type: %s, queue: %s", n.ID, n.Type, info.Queue)
	return nil
}

// NewNotificationHandler decodes delivery tasks and hands them to notifier.
// Returning an error lets asynq retry with backoff.
func NewNotificationHandler(notifier interfaces.Notifier) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var n model.Notification
		if err := n.FromJSON(task.Payload()); err != nil {
			// a malformed payload will never decode, do not retry it
			return fmt.Errorf("invalid notification payload: %v: %w", err, asynq.SkipRetry)
		}
		if err := notifier.Send(ctx, &n); err != nil {
			logger.WarnCtx(ctx, "notification %s (%s) delivery failed: %v", n.ID, n.Type, err)
			return err
		}
		return nil
	}
}

// RegisterHandler registers task handler
func (m *Manager) RegisterHandler(pattern string, handler asynq.Handler) {
	m.mux.Handle(pattern, handler)
}

// Start starts queue processor
func (m *Manager) Start() error {
	logger.InfoCtx(context.Background(), "starting queue server")
	return m.server.Start(m.mux)
}

// Stop stops queue processor
func (m *Manager) Stop() {
	logger.InfoCtx(context.Background(), "stopping queue server")
	m.server.Stop()
	m.server.Shutdown()
}

// Close closes client
func (m *Manager) Close() error {
	return m.client.Close()
}
