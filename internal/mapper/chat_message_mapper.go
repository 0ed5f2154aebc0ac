package mapper

import (
	"encoding/json"

	"insightslm-be/internal/entity"
	"insightslm-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMessageMapper struct{}

func NewChatMessageMapper() *ChatMessageMapper {
	return &ChatMessageMapper{}
}

func (m *ChatMessageMapper) ToEntity(c *model.ChatMessage) *entity.ChatMessage {
	if c == nil {
		return nil
	}
	return &entity.ChatMessage{
		Id:                c.Id,
		NotebookId:        c.NotebookId,
		UserMessage:       c.UserMessage,
		AssistantResponse: c.AssistantResponse,
		Citations:         json.RawMessage(c.Citations),
		LegacyMessage:     json.RawMessage(c.LegacyMessage),
		CreatedAt:         c.CreatedAt,
	}
}

func (m *ChatMessageMapper) ToModel(c *entity.ChatMessage) *model.ChatMessage {
	if c == nil {
		return nil
	}
	return &model.ChatMessage{
		Id:                c.Id,
		NotebookId:        c.NotebookId,
		UserMessage:       c.UserMessage,
		AssistantResponse: c.AssistantResponse,
		Citations:         datatypes.JSON(c.Citations),
		LegacyMessage:     datatypes.JSON(c.LegacyMessage),
		CreatedAt:         c.CreatedAt,
	}
}

func (m *ChatMessageMapper) ToEntities(messages []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(messages))
	for i, c := range messages {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
