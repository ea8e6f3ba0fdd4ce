package model

import (
	"time"
)

// Channel tags the source a feedback item arrived through. Free-form by
// design: new channels appear without a schema change.
type Channel = string

// Common channel values seen in practice.
const (
	ChannelPhone  = "phone"
	ChannelEmail  = "email"
	ChannelChat   = "chat"
	ChannelApp    = "mobile_app"
	ChannelWeb    = "web_form"
	ChannelSocial = "social_media"
)

// Origin describes how a feedback item entered the system.
type Origin string

const (
	OriginDirect    Origin = "direct"    // submitted via API or CLI
	OriginBatch     Origin = "batch"     // bulk import (file, FTP drop)
	OriginSynthetic Origin = "synthetic" // generated test data
)

// FeedbackItem is one raw customer submission. Created once at ingestion
// and never mutated afterwards.
type FeedbackItem struct {
	ID         string         `json:"feedback_id"`
	CustomerID string         `json:"customer_id,omitempty"` // empty = anonymous
	Text       string         `json:"feedback_text"`
	Channel    Channel        `json:"channel"`
	Rating     *int           `json:"rating,omitempty"` // 1–5, fallback signal only
	Origin     Origin         `json:"origin"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	ReceivedAt time.Time      `json:"received_at"`
}

// HasRating reports whether a usable 1–5 rating is present.
func (f *FeedbackItem) HasRating() bool {
	return f.Rating != nil && *f.Rating >= 1 && *f.Rating <= 5
}
