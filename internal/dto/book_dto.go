package dto

import (
	"github.com/google/uuid"
)

type BookResponse struct {
	Id     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Author string    `json:"author"`
	Genre  string    `json:"genre"`
}
