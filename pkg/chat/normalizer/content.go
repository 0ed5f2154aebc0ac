package normalizer

import "encoding/json"

// Content is the tagged variant behind a normalized message body: either
// plain text or structured segments with citations. The shape is resolved
// exactly once, here; downstream code switches on the concrete type instead
// of re-inspecting JSON.
type Content interface {
	isContent()
}

// PlainText is an unstructured message body.
type PlainText string

func (PlainText) isContent() {}

func (t PlainText) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

// Structured is an assistant body decomposed into citation-tagged segments.
type Structured struct {
	Segments  []Segment  `json:"segments"`
	Citations []Citation `json:"citations"`
}

func (Structured) isContent() {}

// Segment is a span of assistant text, optionally tied to a citation marker.
type Segment struct {
	Text       string `json:"text"`
	CitationID int    `json:"citation_id,omitempty"`
}

// Citation points a span of assistant text at the source chunk supporting it.
// CitationID is 1-based and sequential within one message.
type Citation struct {
	CitationID     int     `json:"citation_id"`
	SourceID       string  `json:"source_id"`
	SourceTitle    string  `json:"source_title"`
	SourceType     string  `json:"source_type"`
	ChunkIndex     *int    `json:"chunk_index,omitempty"`
	ChunkLinesFrom *int    `json:"chunk_lines_from,omitempty"`
	ChunkLinesTo   *int    `json:"chunk_lines_to,omitempty"`
	Excerpt        *string `json:"excerpt,omitempty"`
}

// Message is one normalized chat turn. Derived, never persisted; recomputed
// from the stored row on every read.
type Message struct {
	ID        string  `json:"id"`
	SessionID string  `json:"session_id"`
	Role      Role    `json:"role"`
	Content   Content `json:"content"`
}
