package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one persisted turn-pair: the user message plus the assistant
// reply once the backend answered. AssistantResponse and Citations are
// written exactly once after the model responds and never mutated again.
// LegacyMessage carries the older single-turn {type, content} encoding for
// rows that predate the turn-pair schema.
type ChatMessage struct {
	Id                uuid.UUID
	NotebookId        uuid.UUID
	UserMessage       string
	AssistantResponse string
	Citations         json.RawMessage
	LegacyMessage     json.RawMessage
	CreatedAt         time.Time
}
