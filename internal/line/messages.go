package line

// Message is one outbound messaging payload. Implementations marshal to the
// provider's message object format.
type Message interface {
	messageType() string
}

// TextMessage is a plain text message.
type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func NewTextMessage(text string) TextMessage {
	return TextMessage{Type: "text", Text: text}
}

func (TextMessage) messageType() string { return "text" }

// TemplateAction is a tappable action attached to a template or flex button.
type TemplateAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URI   string `json:"uri,omitempty"`
	Text  string `json:"text,omitempty"`
}

// URIAction opens a URL when tapped.
func URIAction(label, uri string) TemplateAction {
	return TemplateAction{Type: "uri", Label: label, URI: uri}
}

// MessageAction sends text into the chat on the user's behalf when tapped.
func MessageAction(label, text string) TemplateAction {
	return TemplateAction{Type: "message", Label: label, Text: text}
}

// ButtonsTemplate is the buttons-style template payload.
type ButtonsTemplate struct {
	Type    string           `json:"type"`
	Title   string           `json:"title,omitempty"`
	Text    string           `json:"text"`
	Actions []TemplateAction `json:"actions"`
}

// TemplateMessage wraps a template payload with its chat-list alt text.
type TemplateMessage struct {
	Type     string          `json:"type"`
	AltText  string          `json:"altText"`
	Template ButtonsTemplate `json:"template"`
}

func NewButtonsMessage(altText, title, text string, actions ...TemplateAction) TemplateMessage {
	return TemplateMessage{
		Type:    "template",
		AltText: altText,
		Template: ButtonsTemplate{
			Type:    "buttons",
			Title:   title,
			Text:    text,
			Actions: actions,
		},
	}
}

func (TemplateMessage) messageType() string { return "template" }
