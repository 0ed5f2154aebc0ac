package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ChatMessage stores one turn-pair. AssistantResponse and Citations stay
// empty until the backend answers. LegacyMessage holds the pre-turn-pair
// {type, content} encoding for rows migrated from the old pipeline; rows
// carry either the turn-pair fields or LegacyMessage, never both.
type ChatMessage struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NotebookId        uuid.UUID      `gorm:"type:uuid;not null;index"`
	UserMessage       string         `gorm:"type:text;not null;default:''"`
	AssistantResponse string         `gorm:"type:text;not null;default:''"`
	Citations         datatypes.JSON `gorm:"type:jsonb"`
	LegacyMessage     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt         time.Time      `gorm:"autoCreateTime;index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
