package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentChunk is one embedded passage of a book, addressable by chunk
// index and line range. Citations point here.
type DocumentChunk struct {
	Id         uuid.UUID
	BookId     uuid.UUID
	ChunkIndex int
	LinesFrom  int
	LinesTo    int
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
}
