package line

import "encoding/json"

// Webhook event types this service handles. Other event types are carried
// through parsing and ignored by the dispatcher.
const (
	EventTypeMessage = "message"
	EventTypeFollow  = "follow"

	MessageTypeText = "text"
)

// WebhookRequest is the envelope delivered to the webhook endpoint. A single
// delivery may batch multiple events.
type WebhookRequest struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

type Event struct {
	Type       string        `json:"type"`
	ReplyToken string        `json:"replyToken,omitempty"`
	Timestamp  int64         `json:"timestamp"`
	Source     EventSource   `json:"source"`
	Message    *EventMessage `json:"message,omitempty"`
}

type EventSource struct {
	Type   string `json:"type"`
	UserID string `json:"userId,omitempty"`
}

type EventMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ParseWebhookRequest decodes a raw webhook body. An empty events array is
// valid; the provider sends such deliveries to verify the endpoint.
func ParseWebhookRequest(body []byte) (*WebhookRequest, error) {
	var req WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
