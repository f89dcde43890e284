package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/jobfolio/auth-service/internal/domain/auth/repo"
)

const (
	// QueueDefault is the queue all auth-service jobs run on.
	QueueDefault = "default"
	// TaskTypeSendEmail delivers transactional mail (password resets).
	TaskTypeSendEmail = "mail:send"
)

type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewSendEmailHandler processes TaskTypeSendEmail tasks with the given mailer.
func NewSendEmailHandler(mailer repo.Mailer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return mailer.Send(ctx, payload.To, payload.Subject, payload.Body)
	}
}
