package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByGenre struct {
	Genre string
}

func (s ByGenre) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("genre = ?", s.Genre)
}

type ByGenres struct {
	Genres []string
}

func (s ByGenres) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("genre IN ?", s.Genres)
}

type ByBookID struct {
	BookID uuid.UUID
}

func (s ByBookID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("book_id = ?", s.BookID)
}

type ByChunkIndex struct {
	ChunkIndex int
}

func (s ByChunkIndex) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chunk_index = ?", s.ChunkIndex)
}
