package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jobsetu/backend/internal/queue"
	"github.com/jobsetu/backend/internal/services/notify"
)

// NotificationJob dispatches templated messages enqueued by the workflows.
type NotificationJob struct {
	notify *notify.Service
}

// NewNotificationJob creates a new notification job handler.
func NewNotificationJob(notifySvc *notify.Service) *NotificationJob {
	return &NotificationJob{notify: notifySvc}
}

// RegisterNotificationJobHandler registers the handler with the queue.
func RegisterNotificationJobHandler(q *queue.Queue, notifySvc *notify.Service) {
	handler := NewNotificationJob(notifySvc)
	q.RegisterHandler(queue.JobTypeSendNotification, handler.Run)
}

// Run sends one templated message. Errors feed the queue's retry policy.
func (j *NotificationJob) Run(ctx context.Context, job queue.Job) error {
	var payload queue.NotificationJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal notification payload: %w", err)
	}

	return j.notify.Send(payload.Channel, notify.TemplateMessage{
		Phone:    payload.Phone,
		Template: payload.Template,
		Params:   payload.Params,
	})
}
