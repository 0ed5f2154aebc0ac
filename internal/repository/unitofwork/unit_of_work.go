package unitofwork

import (
	"context"

	"insightslm-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	NotebookRepository() contract.NotebookRepository
	ChatMessageRepository() contract.ChatMessageRepository
	BookRepository() contract.BookRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
	NoteRepository() contract.NoteRepository
}
