package contract

import (
	"context"

	"insightslm-be/internal/entity"
	"insightslm-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentChunkRepository interface {
	Create(ctx context.Context, chunk *entity.DocumentChunk) error
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	FindBySource(ctx context.Context, bookId uuid.UUID, chunkIndex int) (*entity.DocumentChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	DeleteByBookId(ctx context.Context, bookId uuid.UUID) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
