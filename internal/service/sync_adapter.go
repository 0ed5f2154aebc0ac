package service

import (
	"context"
	"encoding/json"

	"insightslm-be/internal/entity"
	"insightslm-be/internal/repository/specification"
	"insightslm-be/internal/repository/unitofwork"
	"insightslm-be/pkg/chat/normalizer"
	"insightslm-be/pkg/chat/syncstore"

	"github.com/google/uuid"
)

// Adapters the sync store reads through. They translate between the store's
// string-id world and the repository layer's entities.

type notebookSourceAdapter struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewNotebookSource(uowFactory unitofwork.RepositoryFactory) syncstore.NotebookSource {
	return &notebookSourceAdapter{uowFactory: uowFactory}
}

func (a *notebookSourceAdapter) FetchByUser(ctx context.Context, userID string) ([]syncstore.Notebook, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}

	uow := a.uowFactory.NewUnitOfWork(ctx)
	notebooks, err := uow.NotebookRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: uid},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	result := make([]syncstore.Notebook, 0, len(notebooks))
	for _, nb := range notebooks {
		result = append(result, toStoreNotebook(nb))
	}
	return result, nil
}

func (a *notebookSourceAdapter) FetchGenreIndex(ctx context.Context) (map[string][]string, error) {
	uow := a.uowFactory.NewUnitOfWork(ctx)
	books, err := uow.BookRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string][]string)
	for _, b := range books {
		if b.Genre == "" {
			continue
		}
		index[b.Genre] = append(index[b.Genre], b.Id.String())
	}
	return index, nil
}

func toStoreNotebook(nb *entity.Notebook) syncstore.Notebook {
	view := syncstore.Notebook{
		ID:             nb.Id.String(),
		UserID:         nb.UserId.String(),
		Name:           nb.Name,
		SelectedBooks:  nb.SelectedBooks,
		SelectedGenres: nb.SelectedGenres,
		MemorySummary:  nb.MemorySummary,
		KeyFacts:       nb.KeyFacts,
		CreatedAt:      nb.CreatedAt,
	}
	if nb.UpdatedAt != nil {
		view.UpdatedAt = *nb.UpdatedAt
	} else {
		view.UpdatedAt = nb.CreatedAt
	}
	return view
}

type messageSourceAdapter struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewMessageSource(uowFactory unitofwork.RepositoryFactory) syncstore.MessageSource {
	return &messageSourceAdapter{uowFactory: uowFactory}
}

func (a *messageSourceAdapter) FetchRows(ctx context.Context, notebookID string) ([]normalizer.Row, error) {
	nid, err := uuid.Parse(notebookID)
	if err != nil {
		return nil, err
	}

	uow := a.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.ChatMessageRepository().FindAll(ctx, specification.ByNotebookID{NotebookID: nid})
	if err != nil {
		return nil, err
	}

	rows := make([]normalizer.Row, 0, len(messages))
	for _, m := range messages {
		rows = append(rows, ToNormalizerRow(m))
	}
	return rows, nil
}

func (a *messageSourceAdapter) FetchLookup(ctx context.Context, notebookID string) (normalizer.Lookup, error) {
	uow := a.uowFactory.NewUnitOfWork(ctx)
	books, err := uow.BookRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	lookup := make(normalizer.Lookup, len(books))
	for _, b := range books {
		lookup[b.Id.String()] = normalizer.Source{
			Title: b.Title,
			Type:  normalizer.DefaultSourceType,
		}
	}
	return lookup, nil
}

func (a *messageSourceAdapter) DeleteRows(ctx context.Context, notebookID string) error {
	nid, err := uuid.Parse(notebookID)
	if err != nil {
		return err
	}
	uow := a.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatMessageRepository().DeleteByNotebookId(ctx, nid)
}

// ToNormalizerRow converts a stored turn-pair into the normalizer's input
// shape. Broken citation JSON degrades to no citations; the row still
// renders as plain text.
func ToNormalizerRow(m *entity.ChatMessage) normalizer.Row {
	row := normalizer.Row{
		ID:                m.Id.String(),
		NotebookID:        m.NotebookId.String(),
		UserMessage:       m.UserMessage,
		AssistantResponse: m.AssistantResponse,
	}
	if len(m.Citations) > 0 {
		if cits, err := normalizer.ParseCitations(m.Citations); err == nil {
			row.Citations = cits
		}
	}
	if len(m.LegacyMessage) > 0 {
		var legacy normalizer.LegacyTurn
		if err := json.Unmarshal(m.LegacyMessage, &legacy); err == nil && legacy.Type != "" {
			row.Legacy = &legacy
		}
	}
	return row
}
