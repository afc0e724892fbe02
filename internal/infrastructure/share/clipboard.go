package share

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"

	"terranova/internal/infrastructure/metrics"
)

var ErrClipboardUnavailable = errors.New("clipboard is not available on this system")

// Message is what a native share sheet would show.
type Message struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

func NewMessage(cityName, link string) Message {
	return Message{
		Title: "TerraNova: " + cityName,
		Text:  "Check out my AI-generated sustainable city: " + cityName,
		URL:   link,
	}
}

// Copy puts the link on the system clipboard.
func Copy(link string) error {
	if clipboard.Unsupported {
		metrics.IncShareLink("copy", "unsupported")
		return ErrClipboardUnavailable
	}
	if err := clipboard.WriteAll(link); err != nil {
		metrics.IncShareLink("copy", "error")
		return fmt.Errorf("copy share link: %w", err)
	}
	metrics.IncShareLink("copy", "ok")
	return nil
}
