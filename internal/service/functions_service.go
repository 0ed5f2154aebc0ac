package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"insightslm-be/internal/entity"
	"insightslm-be/internal/pkg/logger"
	"insightslm-be/internal/repository/specification"
	"insightslm-be/internal/repository/unitofwork"
	"insightslm-be/pkg/backend"
	"insightslm-be/pkg/chat/normalizer"
	"insightslm-be/pkg/chat/sources"
	"insightslm-be/pkg/chat/syncstore"
	"insightslm-be/pkg/events"

	"github.com/google/uuid"
)

// IFunctionsService is the edge-function pair the web client calls. It also
// satisfies syncstore.Backend, so cache invalidation follows the same calls
// the client makes.
type IFunctionsService interface {
	CreateNotebook(ctx context.Context, name, userID string) (*syncstore.CreatedNotebook, error)
	SendMessage(ctx context.Context, notebookID, text string) (*syncstore.SentMessage, error)
}

type functionsService struct {
	uowFactory       unitofwork.RepositoryFactory
	backendClient    *backend.Client
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewFunctionsService(
	uowFactory unitofwork.RepositoryFactory,
	backendClient *backend.Client,
	publisherService IPublisherService,
	log logger.ILogger,
) IFunctionsService {
	return &functionsService{
		uowFactory:       uowFactory,
		backendClient:    backendClient,
		publisherService: publisherService,
		logger:           log,
	}
}

// CreateNotebook inserts the notebook with empty source selections and
// notifies the AI backend without waiting for it. Backend unavailability
// must not block notebook creation.
func (s *functionsService) CreateNotebook(ctx context.Context, name, userID string) (*syncstore.CreatedNotebook, error) {
	if name == "" {
		return nil, errors.New("name is required")
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id: %w", err)
	}

	notebook := &entity.Notebook{
		Id:             uuid.New(),
		UserId:         uid,
		Name:           name,
		SelectedBooks:  []string{},
		SelectedGenres: []string{},
		CreatedAt:      time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.NotebookRepository().Create(ctx, notebook); err != nil {
		return nil, err
	}

	view := toStoreNotebook(notebook)
	s.publishRowChange(ctx, events.RowChange{
		Table:      events.TableNotebooks,
		Change:     events.ChangeInsert,
		UserID:     userID,
		NotebookID: view.ID,
		OccurredAt: time.Now(),
	})

	// Fire and forget. The backend prepares retrieval state on its own
	// schedule; creation already succeeded.
	go func() {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, err := s.backendClient.NotifyNotebookCreated(notifyCtx, backend.NotebookCreatedRequest{
			NotebookId: view.ID,
			UserId:     userID,
			Name:       name,
		})
		if err != nil {
			s.logger.Warn("FunctionsService", "Backend notebook notification failed", map[string]interface{}{
				"notebook_id": view.ID,
				"error":       err.Error(),
			})
		}
	}()

	return &syncstore.CreatedNotebook{Notebook: view}, nil
}

// SendMessage forwards one user turn to the AI backend, persists the
// resulting turn-pair, and announces the insert on the row-change feed.
// Backend failure here is fatal: there is no reply to persist.
func (s *functionsService) SendMessage(ctx context.Context, notebookID, text string) (*syncstore.SentMessage, error) {
	if text == "" {
		return nil, errors.New("message is required")
	}
	nid, err := uuid.Parse(notebookID)
	if err != nil {
		return nil, fmt.Errorf("invalid notebook id: %w", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	notebook, err := uow.NotebookRepository().FindOne(ctx, specification.ByID{ID: nid})
	if err != nil {
		return nil, err
	}
	if notebook == nil {
		return nil, errors.New("notebook not found")
	}

	sourceIds, err := s.resolveSourceIds(ctx, uow, notebook)
	if err != nil {
		return nil, err
	}

	reply, err := s.backendClient.SendChatMessage(ctx, backend.ChatRequest{
		Message:    text,
		NotebookId: notebook.Id.String(),
		UserId:     notebook.UserId.String(),
		SourceIds:  sourceIds,
	})
	if err != nil {
		return nil, err
	}

	citations := s.enrichCitations(ctx, uow, reply.Citations)

	row := &entity.ChatMessage{
		Id:                uuid.New(),
		NotebookId:        notebook.Id,
		UserMessage:       text,
		AssistantResponse: reply.Output,
		Citations:         citations,
		CreatedAt:         time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, row); err != nil {
		return nil, err
	}

	normRow := ToNormalizerRow(row)
	rowJson, _ := json.Marshal(normRow)
	s.publishRowChange(ctx, events.RowChange{
		Table:      events.TableChatMessages,
		Change:     events.ChangeInsert,
		UserID:     notebook.UserId.String(),
		NotebookID: notebook.Id.String(),
		Row:        rowJson,
		OccurredAt: time.Now(),
	})

	return &syncstore.SentMessage{
		Row:             normRow,
		BackendResponse: reply.Raw,
	}, nil
}

// resolveSourceIds computes the effective source set: selected books unioned
// with every book in the selected genres, duplicates once.
func (s *functionsService) resolveSourceIds(ctx context.Context, uow unitofwork.UnitOfWork, notebook *entity.Notebook) ([]string, error) {
	if len(notebook.SelectedGenres) == 0 {
		return sources.EffectiveBookSet(notebook.SelectedBooks, nil, nil), nil
	}

	books, err := uow.BookRepository().FindAll(ctx, specification.ByGenres{Genres: notebook.SelectedGenres})
	if err != nil {
		return nil, err
	}
	booksByGenre := make(map[string][]string)
	for _, b := range books {
		booksByGenre[b.Genre] = append(booksByGenre[b.Genre], b.Id.String())
	}
	return sources.EffectiveBookSet(notebook.SelectedBooks, notebook.SelectedGenres, booksByGenre), nil
}

// enrichCitations fills missing excerpts and line ranges from the chunk
// store. Anything that cannot be resolved is left as the backend sent it;
// the normalizer handles the gaps.
func (s *functionsService) enrichCitations(ctx context.Context, uow unitofwork.UnitOfWork, raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	citations, err := normalizer.ParseCitations(raw)
	if err != nil {
		s.logger.Warn("FunctionsService", "Unparseable citations from backend, storing verbatim", map[string]interface{}{
			"error": err.Error(),
		})
		return raw
	}

	changed := false
	for i := range citations {
		c := &citations[i]
		if c.Excerpt != nil || c.ChunkIndex == nil {
			continue
		}
		bookId, err := uuid.Parse(c.SourceID)
		if err != nil {
			continue
		}
		chunk, err := uow.DocumentChunkRepository().FindBySource(ctx, bookId, *c.ChunkIndex)
		if err != nil || chunk == nil {
			continue
		}
		excerpt := chunk.Content
		c.Excerpt = &excerpt
		if c.ChunkLinesFrom == nil {
			from, to := chunk.LinesFrom, chunk.LinesTo
			c.ChunkLinesFrom = &from
			c.ChunkLinesTo = &to
		}
		changed = true
	}
	if !changed {
		return raw
	}
	enriched, err := json.Marshal(citations)
	if err != nil {
		return raw
	}
	return enriched
}

func (s *functionsService) publishRowChange(ctx context.Context, change events.RowChange) {
	payload, err := json.Marshal(change)
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn("FunctionsService", "Failed to publish row change", map[string]interface{}{
			"event": change.EventType(),
			"error": err.Error(),
		})
	}
}
