package normalizer

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeHumanOnly(t *testing.T) {
	row := Row{ID: "r1", NotebookID: "n1", UserMessage: "Hi"}

	got := Normalize(row, nil)

	if len(got) != 1 {
		t.Fatalf("message count = %d, want 1", len(got))
	}
	if got[0].ID != "r1-user" {
		t.Errorf("ID = %q, want %q", got[0].ID, "r1-user")
	}
	if got[0].Role != RoleHuman {
		t.Errorf("Role = %q, want %q", got[0].Role, RoleHuman)
	}
	if got[0].SessionID != "n1" {
		t.Errorf("SessionID = %q, want %q", got[0].SessionID, "n1")
	}
	if got[0].Content != PlainText("Hi") {
		t.Errorf("Content = %#v, want PlainText(%q)", got[0].Content, "Hi")
	}
}

func TestNormalizePlainAssistant(t *testing.T) {
	row := Row{ID: "r2", NotebookID: "n1", UserMessage: "Q", AssistantResponse: "A"}

	got := Normalize(row, nil)

	if len(got) != 2 {
		t.Fatalf("message count = %d, want 2", len(got))
	}
	if got[1].ID != "r2-assistant" {
		t.Errorf("assistant ID = %q, want %q", got[1].ID, "r2-assistant")
	}
	if got[1].Role != RoleAssistant {
		t.Errorf("assistant Role = %q", got[1].Role)
	}
	if got[1].Content != PlainText("A") {
		t.Errorf("assistant Content = %#v, want plain text", got[1].Content)
	}
}

func TestNormalizeWithCitations(t *testing.T) {
	from, to := 1, 3
	row := Row{
		ID:                "r2",
		NotebookID:        "n1",
		UserMessage:       "Q",
		AssistantResponse: "A",
		Citations: []RawCitation{
			{SourceID: "b1", SourceTitle: "Book", ChunkLinesFrom: &from, ChunkLinesTo: &to},
		},
	}

	got := Normalize(row, nil)

	if len(got) != 2 {
		t.Fatalf("message count = %d, want 2", len(got))
	}
	structured, ok := got[1].Content.(Structured)
	if !ok {
		t.Fatalf("assistant content is %T, want Structured", got[1].Content)
	}

	wantSegments := []Segment{{Text: "A", CitationID: 1}}
	if !reflect.DeepEqual(structured.Segments, wantSegments) {
		t.Errorf("Segments = %+v, want %+v", structured.Segments, wantSegments)
	}

	wantCitations := []Citation{{
		CitationID:     1,
		SourceID:       "b1",
		SourceTitle:    "Book",
		SourceType:     "book",
		ChunkLinesFrom: &from,
		ChunkLinesTo:   &to,
	}}
	if !reflect.DeepEqual(structured.Citations, wantCitations) {
		t.Errorf("Citations = %+v, want %+v", structured.Citations, wantCitations)
	}
}

func TestCitationIDsAreContiguous(t *testing.T) {
	row := Row{
		ID:                "r3",
		NotebookID:        "n1",
		UserMessage:       "Q",
		AssistantResponse: "A",
		Citations: []RawCitation{
			{SourceID: "b1"},
			{SourceID: "b2"},
			{SourceID: "b3"},
		},
	}

	got := Normalize(row, Lookup{"b2": {Title: "Second", Type: "book"}})

	structured := got[1].Content.(Structured)
	if len(structured.Citations) != 3 {
		t.Fatalf("citation count = %d, want 3", len(structured.Citations))
	}
	for i, c := range structured.Citations {
		if c.CitationID != i+1 {
			t.Errorf("citation[%d].CitationID = %d, want %d", i, c.CitationID, i+1)
		}
	}
	if structured.Citations[0].SourceTitle != UnknownSourceTitle {
		t.Errorf("unresolved title = %q, want %q", structured.Citations[0].SourceTitle, UnknownSourceTitle)
	}
	if structured.Citations[1].SourceTitle != "Second" {
		t.Errorf("resolved title = %q, want %q", structured.Citations[1].SourceTitle, "Second")
	}
}

func TestNormalizeLegacyOutputArray(t *testing.T) {
	content, _ := json.Marshal(map[string]any{
		"output": []map[string]any{
			{"text": "First part.", "citations": []map[string]any{{"source_id": "b1"}, {"source_id": "b2"}}},
			{"text": "No citation here."},
			{"text": "Last part.", "citations": []map[string]any{{"source_id": "b3"}}},
		},
	})
	row := Row{
		ID:         "r4",
		NotebookID: "n1",
		Legacy:     &LegacyTurn{Type: "ai", Content: string(content)},
	}

	got := Normalize(row, nil)

	if len(got) != 1 {
		t.Fatalf("message count = %d, want 1", len(got))
	}
	structured, ok := got[0].Content.(Structured)
	if !ok {
		t.Fatalf("content is %T, want Structured", got[0].Content)
	}
	if len(structured.Segments) != 3 {
		t.Fatalf("segment count = %d, want 3", len(structured.Segments))
	}

	// The counter moves once per cited output item: item one gets id 1 for
	// both of its citations, item three gets id 2.
	if structured.Segments[0].CitationID != 1 {
		t.Errorf("segment[0].CitationID = %d, want 1", structured.Segments[0].CitationID)
	}
	if structured.Segments[1].CitationID != 0 {
		t.Errorf("segment[1].CitationID = %d, want 0 (uncited)", structured.Segments[1].CitationID)
	}
	if structured.Segments[2].CitationID != 2 {
		t.Errorf("segment[2].CitationID = %d, want 2", structured.Segments[2].CitationID)
	}

	wantIDs := []int{1, 1, 2}
	if len(structured.Citations) != len(wantIDs) {
		t.Fatalf("citation count = %d, want %d", len(structured.Citations), len(wantIDs))
	}
	for i, want := range wantIDs {
		if structured.Citations[i].CitationID != want {
			t.Errorf("citation[%d].CitationID = %d, want %d", i, structured.Citations[i].CitationID, want)
		}
	}
}

func TestNormalizeLegacyFallsBackToPlainText(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not JSON at all", "just a plain reply"},
		{"JSON without output", `{"answer": "hello"}`},
		{"empty output array", `{"output": []}`},
		{"truncated JSON", `{"output": [{"text": "par`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := Row{
				ID:         "r5",
				NotebookID: "n1",
				Legacy:     &LegacyTurn{Type: "ai", Content: tt.content},
			}

			got := Normalize(row, nil)

			if len(got) != 1 {
				t.Fatalf("message count = %d, want 1", len(got))
			}
			if got[0].Content != PlainText(tt.content) {
				t.Errorf("Content = %#v, want verbatim plain text", got[0].Content)
			}
		})
	}
}

func TestNormalizeLegacyHumanTurn(t *testing.T) {
	row := Row{
		ID:         "r6",
		NotebookID: "n1",
		Legacy:     &LegacyTurn{Type: "human", Content: "what about chapter two?"},
	}

	got := Normalize(row, nil)

	if got[0].ID != "r6-user" {
		t.Errorf("ID = %q, want %q", got[0].ID, "r6-user")
	}
	if got[0].Role != RoleHuman {
		t.Errorf("Role = %q, want human", got[0].Role)
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	excerpt := "passage text"
	idx := 4
	row := Row{
		ID:                "r7",
		NotebookID:        "n1",
		UserMessage:       "Q",
		AssistantResponse: "A",
		Citations: []RawCitation{
			{SourceID: "b1", ChunkIndex: &idx, Excerpt: &excerpt},
			{SourceID: "b2"},
		},
	}
	lookup := Lookup{"b1": {Title: "One", Type: "book"}}

	first, err := json.Marshal(Normalize(row, lookup))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(Normalize(row, lookup))
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != string(second) {
		t.Errorf("repeated normalization differs:\n%s\n%s", first, second)
	}
}

func TestNormalizeAllKeepsRowOrder(t *testing.T) {
	rows := []Row{
		{ID: "r1", NotebookID: "n1", UserMessage: "first", AssistantResponse: "reply"},
		{ID: "r2", NotebookID: "n1", UserMessage: "second"},
	}

	got := NormalizeAll(rows, nil)

	wantIDs := []string{"r1-user", "r1-assistant", "r2-user"}
	if len(got) != len(wantIDs) {
		t.Fatalf("message count = %d, want %d", len(got), len(wantIDs))
	}
	for i, want := range wantIDs {
		if got[i].ID != want {
			t.Errorf("message[%d].ID = %q, want %q", i, got[i].ID, want)
		}
	}
}

func TestParseCitations(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantCount int
		wantErr   bool
	}{
		{"empty", "", 0, false},
		{"null literal", "null", 0, false},
		{"valid list", `[{"source_id":"b1"},{"source_id":"b2"}]`, 2, false},
		{"malformed", `{"source_id":`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCitations([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.wantCount {
				t.Errorf("count = %d, want %d", len(got), tt.wantCount)
			}
		})
	}
}
