package webhook

import (
	"time"
)

// EventChanged is sent after experiments were set or removed.
const EventChanged = "experiments.changed"

// Event is the JSON body delivered to every target.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"event"`
	Timestamp   time.Time `json:"timestamp"`
	Batch       string    `json:"batch,omitempty"`
	Experiments []string  `json:"experiments"`
}

// Target is one receiving endpoint. An empty Secret sends unsigned requests.
type Target struct {
	URL    string
	Secret string
}
