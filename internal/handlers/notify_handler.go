package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jobsetu/backend/internal/queue"
	"github.com/jobsetu/backend/internal/services/notify"
)

// NotifyHandler accepts outbound message requests and hands them to the
// queue. Delivery is best-effort so these endpoints always accept.
type NotifyHandler struct {
	queue queue.Enqueuer
}

// NewNotifyHandler creates a new notify handler
func NewNotifyHandler(q queue.Enqueuer) *NotifyHandler {
	return &NotifyHandler{queue: q}
}

type notifyInput struct {
	Phone    string            `json:"phone" binding:"required"`
	Template string            `json:"template" binding:"required"`
	Params   map[string]string `json:"params"`
}

// SendRCS enqueues an RCS message
func (h *NotifyHandler) SendRCS(c *gin.Context) {
	h.enqueue(c, notify.ChannelRCS)
}

// SendWhatsApp enqueues a WhatsApp message
func (h *NotifyHandler) SendWhatsApp(c *gin.Context) {
	h.enqueue(c, notify.ChannelWhatsApp)
}

func (h *NotifyHandler) enqueue(c *gin.Context, channel string) {
	var input notifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, err := h.queue.EnqueueJob(queue.JobTypeSendNotification, queue.NotificationJobPayload{
		Phone:    input.Phone,
		Channel:  channel,
		Template: input.Template,
		Params:   input.Params,
	})
	if err != nil {
		// Message delivery never blocks a caller, accept anyway.
		log.Printf("Failed to enqueue %s notification: %v", channel, err)
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "job_id": jobID})
}
