// Package jobs holds the background task definitions and the Asynq worker
// that processes them.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeIssueUpdate notifies a reporter that an issue's status changed.
	TaskTypeIssueUpdate = "issues:notify_update"
	// TaskTypeIdempotencyCleanup prunes processed request keys.
	TaskTypeIdempotencyCleanup = "maintenance:cleanup_idempotency"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: integrate with SMTP once an outbound relay is provisioned.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// IssueUpdatePayload identifies the issue and the status it moved to.
type IssueUpdatePayload struct {
	IssueID     int64  `json:"issue_id"`
	OwnerUserID string `json:"owner_user_id"`
	Status      string `json:"status"`
}

// NewIssueUpdateTask constructs an Asynq task.
func NewIssueUpdateTask(payload IssueUpdatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeIssueUpdate, data), nil
}

// NewIdempotencyCleanupTask constructs the nightly cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeIdempotencyCleanup, nil)
}
