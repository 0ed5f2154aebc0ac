package entity

import (
	"time"

	"github.com/google/uuid"
)

// Book is one retrievable source in the catalog.
type Book struct {
	Id        uuid.UUID
	Title     string
	Author    string
	Genre     string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
