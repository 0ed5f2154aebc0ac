package events

import (
	"encoding/json"
	"time"
)

// Change kinds carried by a RowChange.
const (
	ChangeInsert = "INSERT"
	ChangeUpdate = "UPDATE"
	ChangeDelete = "DELETE"
)

// Tables that emit row changes.
const (
	TableNotebooks    = "notebooks"
	TableChatMessages = "chat_messages"
)

// RowChange is a one-way notice that a row changed, used by subscribers to
// update their local view without re-querying. Row holds the raw row payload
// for inserts; it is empty for deletes.
type RowChange struct {
	Table      string          `json:"table"`
	Change     string          `json:"change"`
	UserID     string          `json:"user_id"`
	NotebookID string          `json:"notebook_id,omitempty"`
	Row        json.RawMessage `json:"row,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// EventType names the change for logs and client envelopes.
func (e RowChange) EventType() string {
	switch {
	case e.Table == TableChatMessages && e.Change == ChangeInsert:
		return "CHAT_MESSAGE_INSERTED"
	case e.Table == TableChatMessages && e.Change == ChangeDelete:
		return "CHAT_HISTORY_CLEARED"
	case e.Table == TableNotebooks && e.Change == ChangeDelete:
		return "NOTEBOOK_DELETED"
	case e.Table == TableNotebooks:
		return "NOTEBOOK_CHANGED"
	default:
		return "ROW_CHANGED"
	}
}
