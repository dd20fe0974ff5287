package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Channels understood by the dispatcher.
const (
	ChannelRCS      = "rcs"
	ChannelWhatsApp = "whatsapp"
	ChannelAll      = "all"
)

// ErrNoChannels means no provider is configured for the requested channel.
var ErrNoChannels = errors.New("no notification channel configured")

// TemplateMessage is one templated message dispatch.
type TemplateMessage struct {
	Phone    string            `json:"phone"`
	Template string            `json:"template"`
	Params   map[string]string `json:"params,omitempty"`
}

// Dispatcher sends a templated message over one channel.
type Dispatcher interface {
	Send(msg TemplateMessage) error
	Channel() string
}

// Service fans a message out to the configured dispatchers. Callers reach it
// through the queue, so a provider outage shows up in logs and job retries,
// never in a workflow response.
type Service struct {
	dispatchers map[string]Dispatcher
}

// NewService creates a dispatcher registry.
func NewService(dispatchers ...Dispatcher) *Service {
	m := make(map[string]Dispatcher, len(dispatchers))
	for _, d := range dispatchers {
		m[d.Channel()] = d
	}
	return &Service{dispatchers: m}
}

// Send routes the message to one channel, or all of them. With multiple
// channels, one success is enough; per-channel failures are logged.
func (s *Service) Send(channel string, msg TemplateMessage) error {
	if channel != ChannelAll {
		d, ok := s.dispatchers[channel]
		if !ok {
			return ErrNoChannels
		}
		return d.Send(msg)
	}

	if len(s.dispatchers) == 0 {
		return ErrNoChannels
	}

	var sent bool
	for name, d := range s.dispatchers {
		if err := d.Send(msg); err != nil {
			log.Printf("Notification via %s failed for %s: %v", name, msg.Phone, err)
			continue
		}
		sent = true
	}
	if !sent {
		return fmt.Errorf("all notification channels failed for %s", msg.Phone)
	}
	return nil
}

// RCSConfig holds configuration for the RCS message provider.
type RCSConfig struct {
	Endpoint string
	APIKey   string
}

// RCSDispatcher sends template messages through the RCS business-messaging
// provider.
type RCSDispatcher struct {
	config RCSConfig
	client *http.Client
}

// NewRCSDispatcher creates a new RCS dispatcher.
func NewRCSDispatcher(config RCSConfig) *RCSDispatcher {
	return &RCSDispatcher{
		config: config,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Channel implements Dispatcher.
func (d *RCSDispatcher) Channel() string { return ChannelRCS }

// Send implements Dispatcher.
func (d *RCSDispatcher) Send(msg TemplateMessage) error {
	body := map[string]interface{}{
		"phone":    msg.Phone,
		"template": msg.Template,
		"params":   msg.Params,
	}
	return post(d.client, d.config.Endpoint, d.config.APIKey, body)
}

// WhatsAppConfig holds configuration for the WhatsApp template provider.
type WhatsAppConfig struct {
	Endpoint string
	Token    string
}

// WhatsAppDispatcher sends template messages through the WhatsApp Business
// API provider.
type WhatsAppDispatcher struct {
	config WhatsAppConfig
	client *http.Client
}

// NewWhatsAppDispatcher creates a new WhatsApp dispatcher.
func NewWhatsAppDispatcher(config WhatsAppConfig) *WhatsAppDispatcher {
	return &WhatsAppDispatcher{
		config: config,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Channel implements Dispatcher.
func (d *WhatsAppDispatcher) Channel() string { return ChannelWhatsApp }

// Send implements Dispatcher.
func (d *WhatsAppDispatcher) Send(msg TemplateMessage) error {
	components := make([]map[string]string, 0, len(msg.Params))
	for k, v := range msg.Params {
		components = append(components, map[string]string{"name": k, "value": v})
	}
	body := map[string]interface{}{
		"to":         msg.Phone,
		"template":   msg.Template,
		"components": components,
	}
	return post(d.client, d.config.Endpoint, d.config.Token, body)
}

func post(client *http.Client, endpoint, token string, body interface{}) error {
	if endpoint == "" {
		return ErrNoChannels
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error marshaling notification payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error creating notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notification provider returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
