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

type INotebookService interface {
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.NotebookResponse, error)
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateNotebookRequest) (*dto.CreateNotebookResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.NotebookResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateNotebookRequest) (*dto.UpdateNotebookResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type notebookService struct {
	uowFactory       unitofwork.RepositoryFactory
	syncStore        *syncstore.Store
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewNotebookService(
	uowFactory unitofwork.RepositoryFactory,
	syncStore *syncstore.Store,
	publisherService IPublisherService,
	log logger.ILogger,
) INotebookService {
	return &notebookService{
		uowFactory:       uowFactory,
		syncStore:        syncStore,
		publisherService: publisherService,
		logger:           log,
	}
}

// GetAll serves from the sync store: cached after the first read, refreshed
// when a mutation or push invalidates the user's entry.
func (c *notebookService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.NotebookResponse, error) {
	notebooks, err := c.syncStore.ListNotebooks(ctx, userId.String())
	if err != nil {
		return nil, err
	}

	result := make([]*dto.NotebookResponse, 0, len(notebooks))
	for _, nb := range notebooks {
		result = append(result, storeNotebookToDto(nb))
	}
	return result, nil
}

// Create goes through the sync store so the proxy call and the cache
// invalidation stay on one path.
func (c *notebookService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateNotebookRequest) (*dto.CreateNotebookResponse, error) {
	created, err := c.syncStore.CreateNotebook(ctx, req.Name, userId.String())
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(created.Notebook.ID)
	if err != nil {
		return nil, err
	}
	return &dto.CreateNotebookResponse{Id: id}, nil
}

func (c *notebookService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.NotebookResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	notebook, err := uow.NotebookRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if notebook == nil {
		return nil, errors.New("notebook not found")
	}
	view := toStoreNotebook(notebook)
	return storeNotebookToDto(view), nil
}

func (c *notebookService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateNotebookRequest) (*dto.UpdateNotebookResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	notebook, err := uow.NotebookRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if notebook == nil {
		return nil, errors.New("notebook not found")
	}

	// Last write wins on the selections; concurrent editors can clobber
	// each other. Accepted, matches the client's save semantics.
	notebook.Name = req.Name
	notebook.SelectedBooks = req.SelectedBooks
	notebook.SelectedGenres = req.SelectedGenres
	now := time.Now()
	notebook.UpdatedAt = &now

	if err := uow.NotebookRepository().Update(ctx, notebook); err != nil {
		return nil, err
	}

	c.publishRowChange(ctx, events.RowChange{
		Table:      events.TableNotebooks,
		Change:     events.ChangeUpdate,
		UserID:     userId.String(),
		NotebookID: notebook.Id.String(),
		OccurredAt: now,
	})

	return &dto.UpdateNotebookResponse{Id: notebook.Id}, nil
}

func (c *notebookService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	notebook, err := uow.NotebookRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if notebook == nil {
		return errors.New("notebook not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByNotebookId(ctx, id); err != nil {
		return err
	}
	if err := uow.NotebookRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	c.publishRowChange(ctx, events.RowChange{
		Table:      events.TableNotebooks,
		Change:     events.ChangeDelete,
		UserID:     userId.String(),
		NotebookID: id.String(),
		OccurredAt: time.Now(),
	})
	return nil
}

func (c *notebookService) publishRowChange(ctx context.Context, change events.RowChange) {
	payload, err := json.Marshal(change)
	if err != nil {
		return
	}
	if err := c.publisherService.Publish(ctx, payload); err != nil {
		c.logger.Warn("NotebookService", "Failed to publish row change", map[string]interface{}{
			"event": change.EventType(),
			"error": err.Error(),
		})
	}
}

func storeNotebookToDto(nb syncstore.Notebook) *dto.NotebookResponse {
	id, _ := uuid.Parse(nb.ID)
	res := &dto.NotebookResponse{
		Id:             id,
		Name:           nb.Name,
		SelectedBooks:  nb.SelectedBooks,
		SelectedGenres: nb.SelectedGenres,
		SourceCount:    nb.SourceCount,
		MemorySummary:  nb.MemorySummary,
		CreatedAt:      nb.CreatedAt,
	}
	if !nb.UpdatedAt.IsZero() && !nb.UpdatedAt.Equal(nb.CreatedAt) {
		updated := nb.UpdatedAt
		res.UpdatedAt = &updated
	}
	return res
}
