package dto

import (
	"insightslm-be/pkg/chat/normalizer"

	"github.com/google/uuid"
)

// ChatHistoryResponse carries the normalized transcript for one notebook,
// oldest turn first. Each row from storage expands into one or two
// messages (human, then assistant when present).
type ChatHistoryResponse struct {
	NotebookId uuid.UUID            `json:"notebook_id"`
	Messages   []normalizer.Message `json:"messages"`
}
