package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateNotebookRequest struct {
	Name string `json:"name" validate:"required"`
}

type CreateNotebookResponse struct {
	Id uuid.UUID `json:"id"`
}

// NotebookResponse is the list/show shape. SourceCount is the effective
// source set size: selected books unioned with every book in the selected
// genres, duplicates counted once.
type NotebookResponse struct {
	Id             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	SelectedBooks  []string   `json:"selected_books"`
	SelectedGenres []string   `json:"selected_genres"`
	SourceCount    int        `json:"source_count"`
	MemorySummary  string     `json:"memory_summary,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

type UpdateNotebookRequest struct {
	Id             uuid.UUID
	Name           string   `json:"name" validate:"required"`
	SelectedBooks  []string `json:"selected_books"`
	SelectedGenres []string `json:"selected_genres"`
}

type UpdateNotebookResponse struct {
	Id uuid.UUID `json:"id"`
}
