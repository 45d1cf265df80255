package notify

import (
	"fmt"
	"time"
)

const (
	// Icon is the Awtrix icon id shown next to every notification.
	Icon = 7555
	// ClientName identifies this program to the display.
	ClientName = "invader-notifier"
)

// Payload is the JSON message published to the display topic.
type Payload struct {
	Text   string `json:"text"`
	Icon   int    `json:"icon"`
	Client string `json:"client"`
	Color  string `json:"color,omitempty"`
}

// NewPayload builds a payload; an empty color leaves the device default.
func NewPayload(text, color string) Payload {
	return Payload{
		Text:   text,
		Icon:   Icon,
		Client: ClientName,
		Color:  color,
	}
}

// Label formats the text shown for one invader, e.g. "7 Mar: PA_1138".
func Label(date time.Time, code string) string {
	return fmt.Sprintf("%d %s: %s", date.Day(), date.Format("Jan"), code)
}
