package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"insightslm-be/internal/dto"
	"insightslm-be/internal/pkg/logger"
	"insightslm-be/internal/repository/specification"
	"insightslm-be/internal/repository/unitofwork"
	"insightslm-be/pkg/chat/syncstore"
	"insightslm-be/pkg/events"

	"github.com/google/uuid"
)

type IChatService interface {
	GetHistory(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID) (*dto.ChatHistoryResponse, error)
	DeleteHistory(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID) error
}

type chatService struct {
	uowFactory       unitofwork.RepositoryFactory
	syncStore        *syncstore.Store
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	syncStore *syncstore.Store,
	publisherService IPublisherService,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:       uowFactory,
		syncStore:        syncStore,
		publisherService: publisherService,
		logger:           log,
	}
}

func (c *chatService) ownedNotebook(ctx context.Context, userId, notebookId uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	notebook, err := uow.NotebookRepository().FindOne(ctx,
		specification.ByID{ID: notebookId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if notebook == nil {
		return errors.New("notebook not found")
	}
	return nil
}

// GetHistory returns the normalized transcript, cached by the sync store
// and kept current by the push feed.
func (c *chatService) GetHistory(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID) (*dto.ChatHistoryResponse, error) {
	if err := c.ownedNotebook(ctx, userId, notebookId); err != nil {
		return nil, err
	}

	messages, err := c.syncStore.ListChatMessages(ctx, notebookId.String())
	if err != nil {
		return nil, err
	}

	return &dto.ChatHistoryResponse{
		NotebookId: notebookId,
		Messages:   messages,
	}, nil
}

func (c *chatService) DeleteHistory(ctx context.Context, userId uuid.UUID, notebookId uuid.UUID) error {
	if err := c.ownedNotebook(ctx, userId, notebookId); err != nil {
		return err
	}

	if err := c.syncStore.DeleteChatHistory(ctx, notebookId.String()); err != nil {
		return err
	}

	change := events.RowChange{
		Table:      events.TableChatMessages,
		Change:     events.ChangeDelete,
		UserID:     userId.String(),
		NotebookID: notebookId.String(),
		OccurredAt: time.Now(),
	}
	payload, err := json.Marshal(change)
	if err != nil {
		return nil
	}
	if err := c.publisherService.Publish(ctx, payload); err != nil {
		c.logger.Warn("ChatService", "Failed to publish row change", map[string]interface{}{
			"event": change.EventType(),
			"error": err.Error(),
		})
	}
	return nil
}
