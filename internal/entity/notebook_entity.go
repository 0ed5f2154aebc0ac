// internal\entity\notebook_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Notebook binds a chat history to a set of source selections. The effective
// source set is the union of SelectedBooks and every book whose genre is in
// SelectedGenres.
type Notebook struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	Name           string
	SelectedBooks  []string
	SelectedGenres []string
	MemorySummary  string
	KeyFacts       []string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
