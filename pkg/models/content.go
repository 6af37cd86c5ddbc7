package models

// ContentItem is the read-only attribute view of a piece of content that
// applicability matching and condition evaluation consume. The full content
// record lives with the surrounding system; the engine only ever reads
// these fields and never validates that the referenced users or clients
// exist.
type ContentItem struct {
	ID               string   `json:"id"`
	Type             string   `json:"type"`
	Platform         string   `json:"platform"`
	Priority         string   `json:"priority"`
	ClientID         string   `json:"client_id"`
	Tags             []string `json:"tags,omitempty"`
	EstimatedRevenue float64  `json:"estimated_revenue"` // 0 when the source field is absent
}
