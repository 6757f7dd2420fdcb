package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/civiceye/civiceye/internal/jobs"
	"github.com/civiceye/civiceye/internal/shared"
)

// Worker wraps the Asynq server and optional scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// TaskHandler allows injecting custom Asynq handlers during worker setup.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// CronRegistration wires a cron expression to a prepared task.
type CronRegistration struct {
	Spec    string
	Task    *asynq.Task
	Options []asynq.Option
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts asynq.RedisClientOpt
	Logger    *slog.Logger
	Pool      *pgxpool.Pool
	Metrics   *jobmetrics.Metrics
	Handlers  []TaskHandler
	Cron      []CronRegistration
}

// instrument records run counts and durations for every task execution.
func instrument(metrics *jobmetrics.Metrics, taskType string, fn asynq.HandlerFunc) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return metrics.Track(taskType).End(fn(ctx, t))
	}
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeSendEmail, instrument(cfg.Metrics, TaskTypeSendEmail, HandleSendEmailTask))
	mux.HandleFunc(TaskTypeIssueUpdate, instrument(cfg.Metrics, TaskTypeIssueUpdate, NewIssueUpdateHandler(cfg.Pool, cfg.Logger)))
	mux.HandleFunc(TaskTypeIdempotencyCleanup, instrument(cfg.Metrics, TaskTypeIdempotencyCleanup, NewIdempotencyCleanupHandler(shared.NewIdempotencyStore(cfg.Pool), cfg.Logger)))
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, instrument(cfg.Metrics, h.Type, h.Handler))
	}

	var scheduler *asynq.Scheduler
	if len(cfg.Cron) > 0 {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		for _, entry := range cfg.Cron {
			if entry.Spec == "" || entry.Task == nil {
				continue
			}
			if _, err := scheduler.Register(entry.Spec, entry.Task, entry.Options...); err != nil {
				return nil, err
			}
		}
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: cfg.Logger}, nil
}

// NewIssueUpdateHandler notifies the reporter by email that their issue
// moved to a new status.
func NewIssueUpdateHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload IssueUpdatePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		var email string
		err := pool.QueryRow(ctx, `SELECT email FROM profiles WHERE id = $1`, payload.OwnerUserID).Scan(&email)
		if err != nil {
			logger.Warn("issue update: owner lookup", slog.Int64("issue_id", payload.IssueID), slog.Any("error", err))
			return err
		}
		return HandleSendEmailTask(ctx, mustSendEmailTask(SendEmailPayload{
			To:      email,
			Subject: fmt.Sprintf("Your issue #%d is now %s", payload.IssueID, payload.Status),
			Body:    fmt.Sprintf("The status of your report #%d changed to %s.", payload.IssueID, payload.Status),
		}))
	}
}

func mustSendEmailTask(payload SendEmailPayload) *asynq.Task {
	task, err := NewSendEmailTask(payload)
	if err != nil {
		panic(err)
	}
	return task
}

// NewIdempotencyCleanupHandler prunes request keys older than a day.
func NewIdempotencyCleanupHandler(store *shared.IdempotencyStore, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		if err := store.Cleanup(ctx, 24*time.Hour); err != nil {
			logger.Warn("idempotency cleanup", slog.Any("error", err))
			return err
		}
		return nil
	}
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	client := asynq.NewClient(redisOpts)
	return &Client{client: client}, nil
}

// EnqueueSendEmail enqueues a send-email task.
func (c *Client) EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error) {
	task, err := NewSendEmailTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// EnqueueWelcomeEmail enqueues the post-registration email.
func (c *Client) EnqueueWelcomeEmail(ctx context.Context, email, fullName string) error {
	_, err := c.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      email,
		Subject: "Welcome to CivicEye",
		Body:    fmt.Sprintf("Hi %s, your account is ready. Report your first issue any time.", fullName),
	})
	return err
}

// EnqueueIssueUpdate enqueues a status change notification for the reporter.
func (c *Client) EnqueueIssueUpdate(ctx context.Context, issueID int64, ownerUserID string, status string) error {
	task, err := NewIssueUpdateTask(IssueUpdatePayload{IssueID: issueID, OwnerUserID: ownerUserID, Status: status})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

// Handler exposes HTTP endpoints for job observability.
type Handler struct {
	inspector *asynq.Inspector
	logger    *slog.Logger
}

// NewHandler constructs an HTTP handler for jobs endpoints.
func NewHandler(inspector *asynq.Inspector, logger *slog.Logger) *Handler {
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"queue":"default","pending":0}`))
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		h.logger.Warn("jobs health", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	pending := 0
	queueName := QueueDefault
	if info != nil {
		pending = int(info.Pending)
		queueName = info.Queue
	}
	_, _ = w.Write([]byte(`{"queue":"` + queueName + `","pending":` + itoa(pending) + `}`))
}

func itoa(i int) string {
	return strconv.FormatInt(int64(i), 10)
}
