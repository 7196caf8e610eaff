package line

import (
	"time"

	"yoyaku/pkg/model"
)

// Flex message component types. Only the fields this service renders are
// modelled; the provider ignores absent optional fields.

type FlexComponent interface {
	componentType() string
}

type FlexBox struct {
	Type            string          `json:"type"`
	Layout          string          `json:"layout"`
	Contents        []FlexComponent `json:"contents"`
	Margin          string          `json:"margin,omitempty"`
	Spacing         string          `json:"spacing,omitempty"`
	BackgroundColor string          `json:"backgroundColor,omitempty"`
	PaddingAll      string          `json:"paddingAll,omitempty"`
	Flex            *int            `json:"flex,omitempty"`
}

func (FlexBox) componentType() string { return "box" }

type FlexText struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Weight string `json:"weight,omitempty"`
	Size   string `json:"size,omitempty"`
	Color  string `json:"color,omitempty"`
	Align  string `json:"align,omitempty"`
	Margin string `json:"margin,omitempty"`
	Wrap   bool   `json:"wrap,omitempty"`
	Flex   *int   `json:"flex,omitempty"`
}

func (FlexText) componentType() string { return "text" }

type FlexSeparator struct {
	Type   string `json:"type"`
	Margin string `json:"margin,omitempty"`
}

func (FlexSeparator) componentType() string { return "separator" }

type FlexButton struct {
	Type   string         `json:"type"`
	Style  string         `json:"style,omitempty"`
	Action TemplateAction `json:"action"`
}

func (FlexButton) componentType() string { return "button" }

type FlexImage struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	Size        string `json:"size,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	AspectMode  string `json:"aspectMode,omitempty"`
}

func (FlexImage) componentType() string { return "image" }

type FlexBubble struct {
	Type   string     `json:"type"`
	Header *FlexBox   `json:"header,omitempty"`
	Hero   *FlexImage `json:"hero,omitempty"`
	Body   *FlexBox   `json:"body,omitempty"`
	Footer *FlexBox   `json:"footer,omitempty"`
}

type FlexMessage struct {
	Type     string     `json:"type"`
	AltText  string     `json:"altText"`
	Contents FlexBubble `json:"contents"`
}

func (FlexMessage) messageType() string { return "flex" }

// FormatDateTime renders a slot timestamp for chat display.
func FormatDateTime(t time.Time) string {
	return t.Format("2006/01/02 15:04")
}

func flexInt(v int) *int { return &v }

func labelValueRow(label, value, margin string) FlexBox {
	return FlexBox{
		Type:   "box",
		Layout: "horizontal",
		Margin: margin,
		Contents: []FlexComponent{
			FlexText{Type: "text", Text: label, Size: "sm", Color: "#555555", Flex: flexInt(2)},
			FlexText{Type: "text", Text: value, Size: "sm", Color: "#111111", Align: "end", Flex: flexInt(3), Wrap: true},
		},
	}
}

// ConfirmationFlex builds the booking confirmation bubble pushed to a user
// after a reservation is accepted.
func ConfirmationFlex(reservation *model.Reservation, liffURL, siteURL string) FlexMessage {
	content := reservation.Content
	if content == "" {
		content = "(not provided)"
	}

	return FlexMessage{
		Type:    "flex",
		AltText: "Your booking is confirmed",
		Contents: FlexBubble{
			Type: "bubble",
			Header: &FlexBox{
				Type:   "box",
				Layout: "vertical",
				Contents: []FlexComponent{
					FlexText{Type: "text", Text: "Booking complete", Weight: "bold", Size: "xl", Color: "#ffffff"},
				},
				BackgroundColor: "#27ACB2",
				PaddingAll:      "20px",
			},
			Body: &FlexBox{
				Type:   "box",
				Layout: "vertical",
				Contents: []FlexComponent{
					FlexText{Type: "text", Text: "Counseling session details", Weight: "bold", Size: "lg", Margin: "md"},
					FlexSeparator{Type: "separator", Margin: "lg"},
					FlexBox{
						Type:    "box",
						Layout:  "vertical",
						Margin:  "lg",
						Spacing: "sm",
						Contents: []FlexComponent{
							labelValueRow("Name", reservation.Name, ""),
							labelValueRow("Date", FormatDateTime(reservation.DesiredDate), "md"),
						},
					},
					FlexSeparator{Type: "separator", Margin: "lg"},
					FlexBox{
						Type:   "box",
						Layout: "vertical",
						Margin: "lg",
						Contents: []FlexComponent{
							FlexText{Type: "text", Text: "Topic", Size: "sm", Color: "#555555"},
							FlexText{Type: "text", Text: content, Size: "sm", Color: "#111111", Margin: "md", Wrap: true},
						},
					},
				},
			},
			Footer: &FlexBox{
				Type:    "box",
				Layout:  "vertical",
				Spacing: "md",
				Flex:    flexInt(0),
				Contents: []FlexComponent{
					FlexButton{Type: "button", Style: "primary", Action: URIAction("Change booking", liffURL)},
					FlexButton{Type: "button", Style: "secondary", Action: URIAction("Visit website", siteURL)},
				},
			},
		},
	}
}

// ReminderFlex builds the upcoming-session reminder bubble.
func ReminderFlex(reservation *model.Reservation) FlexMessage {
	return FlexMessage{
		Type:    "flex",
		AltText: "Counseling session reminder",
		Contents: FlexBubble{
			Type: "bubble",
			Header: &FlexBox{
				Type:   "box",
				Layout: "vertical",
				Contents: []FlexComponent{
					FlexText{Type: "text", Text: "Reminder", Weight: "bold", Size: "xl", Color: "#ffffff"},
				},
				BackgroundColor: "#F39C12",
				PaddingAll:      "20px",
			},
			Body: &FlexBox{
				Type:   "box",
				Layout: "vertical",
				Contents: []FlexComponent{
					FlexText{Type: "text", Text: "Your counseling session is coming up", Weight: "bold", Size: "md", Wrap: true},
					FlexBox{
						Type:    "box",
						Layout:  "vertical",
						Margin:  "lg",
						Spacing: "sm",
						Contents: []FlexComponent{
							labelValueRow("Date", FormatDateTime(reservation.DesiredDate), ""),
						},
					},
					FlexText{Type: "text", Text: "The session is held online. We will contact you on chat when it starts.", Margin: "lg", Size: "sm", Wrap: true},
				},
			},
			Footer: &FlexBox{
				Type:    "box",
				Layout:  "vertical",
				Spacing: "md",
				Flex:    flexInt(0),
				Contents: []FlexComponent{
					FlexButton{Type: "button", Style: "primary", Action: MessageAction("View booking", "reservation confirm")},
					FlexButton{Type: "button", Style: "secondary", Action: MessageAction("Cancel", "cancel confirm")},
				},
			},
		},
	}
}

// ReservationDetailFlex builds the current-booking bubble sent when a user
// asks to review their reservation. The cancel button feeds the cancellation
// confirmation phrase back into the conversation.
func ReservationDetailFlex(reservation *model.Reservation) FlexMessage {
	content := reservation.Content
	if content == "" {
		content = "(not provided)"
	}

	return FlexMessage{
		Type:    "flex",
		AltText: "Your current booking",
		Contents: FlexBubble{
			Type: "bubble",
			Header: &FlexBox{
				Type:   "box",
				Layout: "vertical",
				Contents: []FlexComponent{
					FlexText{Type: "text", Text: "Your booking", Weight: "bold", Size: "xl", Color: "#ffffff"},
				},
				BackgroundColor: "#27ACB2",
				PaddingAll:      "20px",
			},
			Body: &FlexBox{
				Type:   "box",
				Layout: "vertical",
				Contents: []FlexComponent{
					FlexBox{
						Type:    "box",
						Layout:  "vertical",
						Spacing: "sm",
						Contents: []FlexComponent{
							labelValueRow("Name", reservation.Name, ""),
							labelValueRow("Date", FormatDateTime(reservation.DesiredDate), "md"),
							labelValueRow("Status", string(reservation.Status), "md"),
						},
					},
					FlexSeparator{Type: "separator", Margin: "lg"},
					FlexBox{
						Type:   "box",
						Layout: "vertical",
						Margin: "lg",
						Contents: []FlexComponent{
							FlexText{Type: "text", Text: "Topic", Size: "sm", Color: "#555555"},
							FlexText{Type: "text", Text: content, Size: "sm", Color: "#111111", Margin: "md", Wrap: true},
						},
					},
				},
			},
			Footer: &FlexBox{
				Type:    "box",
				Layout:  "vertical",
				Spacing: "md",
				Flex:    flexInt(0),
				Contents: []FlexComponent{
					FlexButton{Type: "button", Style: "secondary", Action: MessageAction("Cancel this booking", "cancel confirm")},
				},
			},
		},
	}
}
