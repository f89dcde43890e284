package jobs

import (
	"context"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/jobfolio/auth-service/internal/domain/auth/repo"
)

// Worker runs the in-process Asynq server that drains the mail queue.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewWorker(redisOpts asynq.RedisClientOpt, mailer repo.Mailer, logger *zap.Logger) *Worker {
	srv := asynq.NewServer(redisOpts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeSendEmail, NewSendEmailHandler(mailer))

	return &Worker{server: srv, mux: mux, logger: logger}
}

// Run processes jobs until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	<-ctx.Done()
	w.logger.Info("stopping job worker")
	w.server.Shutdown()
	return nil
}

// Client enqueues tasks onto the shared Redis.
type Client struct {
	client *asynq.Client
}

func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

func (c *Client) Close() error { return c.client.Close() }

func (c *Client) EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) error {
	task, err := NewSendEmailTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
	return err
}

// Send implements the Mailer interface by deferring delivery to the worker.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	return c.EnqueueSendEmail(ctx, SendEmailPayload{To: to, Subject: subject, Body: body})
}
