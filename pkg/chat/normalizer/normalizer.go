package normalizer

import (
	"encoding/json"
	"fmt"
)

// Role of a normalized chat turn.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

const (
	// UnknownSourceTitle is used when a citation points at a source the
	// lookup table does not contain.
	UnknownSourceTitle = "Unknown Source"

	// DefaultSourceType is assumed when neither the citation nor the lookup
	// carries a type.
	DefaultSourceType = "book"
)

// Source is one entry of the book lookup table fetched alongside messages.
type Source struct {
	Title string
	Type  string
}

// Lookup maps source id to its display metadata.
type Lookup map[string]Source

// RawCitation is a citation as stored on the chat row, before resolution.
type RawCitation struct {
	CitationID     int     `json:"citation_id,omitempty"`
	SourceID       string  `json:"source_id"`
	SourceTitle    string  `json:"source_title,omitempty"`
	SourceType     string  `json:"source_type,omitempty"`
	ChunkIndex     *int    `json:"chunk_index,omitempty"`
	ChunkLinesFrom *int    `json:"chunk_lines_from,omitempty"`
	ChunkLinesTo   *int    `json:"chunk_lines_to,omitempty"`
	Excerpt        *string `json:"excerpt,omitempty"`
}

// LegacyTurn is the older single-turn encoding: an object with type and
// content fields instead of the turn-pair row schema. Content may itself be a
// JSON string packing an output array of {text, citations[]} entries.
type LegacyTurn struct {
	Type    string `json:"type"` // "human" | "ai"
	Content string `json:"content"`
}

// Row is one stored chat row (or one freshly pushed row) in either encoding.
// When Legacy is set the turn-pair fields are ignored.
type Row struct {
	ID                string        `json:"id"`
	NotebookID        string        `json:"notebook_id"`
	UserMessage       string        `json:"user_message"`
	AssistantResponse string        `json:"assistant_response"`
	Citations         []RawCitation `json:"citations,omitempty"`
	Legacy            *LegacyTurn   `json:"legacy,omitempty"`
}

// Normalize converts one row into its ordered turns: the human message first,
// then the assistant message if a response exists. It is a pure function:
// ids are derived from the row id and the same input always produces the
// same output.
func Normalize(row Row, lookup Lookup) []Message {
	if row.Legacy != nil {
		return []Message{normalizeLegacy(row, lookup)}
	}

	messages := []Message{{
		ID:        row.ID + "-user",
		SessionID: row.NotebookID,
		Role:      RoleHuman,
		Content:   PlainText(row.UserMessage),
	}}

	if row.AssistantResponse == "" {
		return messages
	}

	assistant := Message{
		ID:        row.ID + "-assistant",
		SessionID: row.NotebookID,
		Role:      RoleAssistant,
	}

	if len(row.Citations) == 0 {
		assistant.Content = PlainText(row.AssistantResponse)
	} else {
		citations := make([]Citation, 0, len(row.Citations))
		for i, raw := range row.Citations {
			citations = append(citations, resolveCitation(raw, i+1, lookup))
		}
		assistant.Content = Structured{
			Segments:  []Segment{{Text: row.AssistantResponse, CitationID: 1}},
			Citations: citations,
		}
	}

	return append(messages, assistant)
}

// NormalizeAll flattens a batch of rows, ordered as given, into one message
// sequence.
func NormalizeAll(rows []Row, lookup Lookup) []Message {
	messages := make([]Message, 0, len(rows)*2)
	for _, row := range rows {
		messages = append(messages, Normalize(row, lookup)...)
	}
	return messages
}

func normalizeLegacy(row Row, lookup Lookup) Message {
	role := RoleAssistant
	suffix := "-assistant"
	if row.Legacy.Type == "human" {
		role = RoleHuman
		suffix = "-user"
	}

	content, ok := decodeLegacyOutput(row.Legacy.Content, lookup)
	if !ok {
		// Malformed history must never surface to the caller.
		content = PlainText(row.Legacy.Content)
	}

	return Message{
		ID:        row.ID + suffix,
		SessionID: row.NotebookID,
		Role:      role,
		Content:   content,
	}
}

// legacyOutputEnvelope is the shape packed into LegacyTurn.Content by the old
// pipeline: a JSON string holding an output array of text/citation pairs.
type legacyOutputEnvelope struct {
	Output []legacyOutputItem `json:"output"`
}

type legacyOutputItem struct {
	Text      string        `json:"text"`
	Citations []RawCitation `json:"citations"`
}

// decodeLegacyOutput flattens the output-array encoding into segments and
// citations. The citation counter increments once per output item that
// carries at least one citation, not once per citation; all citations from
// the same item share that item's id.
func decodeLegacyOutput(content string, lookup Lookup) (Content, bool) {
	var envelope legacyOutputEnvelope
	if err := json.Unmarshal([]byte(content), &envelope); err != nil {
		return nil, false
	}
	if len(envelope.Output) == 0 {
		return nil, false
	}

	segments := make([]Segment, 0, len(envelope.Output))
	citations := make([]Citation, 0)
	nextID := 1

	for _, item := range envelope.Output {
		segment := Segment{Text: item.Text}
		if len(item.Citations) > 0 {
			segment.CitationID = nextID
			for _, raw := range item.Citations {
				citations = append(citations, resolveCitation(raw, nextID, lookup))
			}
			nextID++
		}
		segments = append(segments, segment)
	}

	return Structured{Segments: segments, Citations: citations}, true
}

// resolveCitation assigns the sequential id and fills title/type from the
// lookup table, degrading to a placeholder instead of failing when the
// source is gone.
func resolveCitation(raw RawCitation, id int, lookup Lookup) Citation {
	title := raw.SourceTitle
	sourceType := raw.SourceType

	if source, found := lookup[raw.SourceID]; found {
		if title == "" {
			title = source.Title
		}
		if sourceType == "" {
			sourceType = source.Type
		}
	}
	if title == "" {
		title = UnknownSourceTitle
	}
	if sourceType == "" {
		sourceType = DefaultSourceType
	}

	return Citation{
		CitationID:     id,
		SourceID:       raw.SourceID,
		SourceTitle:    title,
		SourceType:     sourceType,
		ChunkIndex:     raw.ChunkIndex,
		ChunkLinesFrom: raw.ChunkLinesFrom,
		ChunkLinesTo:   raw.ChunkLinesTo,
		Excerpt:        raw.Excerpt,
	}
}

// ParseCitations decodes the citations column of a stored row. An empty or
// null column yields nil.
func ParseCitations(data []byte) ([]RawCitation, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var citations []RawCitation
	if err := json.Unmarshal(data, &citations); err != nil {
		return nil, fmt.Errorf("failed to parse citations: %w", err)
	}
	return citations, nil
}
