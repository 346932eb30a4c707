package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fitspin/rewards-engine/internal/config"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Gateway delivers a notification to a client through an external
// channel (push, SMS, in-app) and returns the provider message id.
type Gateway interface {
	Send(clientRef, category, priority, message string) (string, error)
}

// PushGateway delivers notifications over the gym platform's push API
type PushGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// MockGateway simulates deliveries for local development and tests
type MockGateway struct {
	Name string
}

// NewPushGateway creates a new PushGateway
func NewPushGateway(cfg *config.Config) Gateway {
	return &PushGateway{
		baseURL: cfg.Notifier.BaseURL,
		apiKey:  cfg.Notifier.APIKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewMockGateway creates a new MockGateway
func NewMockGateway(name string) Gateway {
	return &MockGateway{Name: name}
}

type pushRequest struct {
	ClientRef string `json:"client_ref"`
	Category  string `json:"category"`
	Priority  string `json:"priority"`
	Message   string `json:"message"`
}

type pushResponse struct {
	MessageID string `json:"message_id"`
}

// Send delivers the notification through the push API
func (g *PushGateway) Send(clientRef, category, priority, message string) (string, error) {
	body, err := json.Marshal(pushRequest{
		ClientRef: clientRef,
		Category:  category,
		Priority:  priority,
		Message:   message,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode push request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, g.baseURL+"/v1/notifications", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("push delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("push delivery failed with status %d", resp.StatusCode)
	}

	var parsed pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode push response: %w", err)
	}
	return parsed.MessageID, nil
}

// Send simulates a delivery and returns a generated message id
func (g *MockGateway) Send(clientRef, category, priority, message string) (string, error) {
	messageID := fmt.Sprintf("%s-MOCK-%s", g.Name, uuid.NewString())
	slog.Info("MOCK notification", "gateway", g.Name, "clientRef", clientRef,
		"category", category, "priority", priority, "messageId", messageID)
	return messageID, nil
}
