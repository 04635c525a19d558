package publishers

import "time"

// Event kinds mirrored downstream.
const (
	KindView         = "view"
	KindReadProgress = "read_progress"
)

// Event is one analytics report as seen by the reader's client, mirrored
// to configured sinks after the API call finished.
type Event struct {
	Kind           string    `json:"kind"`
	Post           string    `json:"post"`
	ViewID         string    `json:"view_id"`
	ReadPercentage int       `json:"read_percentage,omitempty"`
	Referrer       string    `json:"referrer,omitempty"`
	Delivered      bool      `json:"delivered"`
	Error          string    `json:"error,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// attributes are the routing attributes attached by queue and topic sinks.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"kind":    e.Kind,
		"post":    e.Post,
		"view_id": e.ViewID,
	}
}
