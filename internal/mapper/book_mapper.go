package mapper

import (
	"time"

	"insightslm-be/internal/entity"
	"insightslm-be/internal/model"
)

type BookMapper struct{}

func NewBookMapper() *BookMapper {
	return &BookMapper{}
}

func (m *BookMapper) ToEntity(b *model.Book) *entity.Book {
	if b == nil {
		return nil
	}

	var updatedAt *time.Time
	if !b.UpdatedAt.IsZero() {
		t := b.UpdatedAt
		updatedAt = &t
	}

	return &entity.Book{
		Id:        b.Id,
		Title:     b.Title,
		Author:    b.Author,
		Genre:     b.Genre,
		CreatedAt: b.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *BookMapper) ToModel(b *entity.Book) *model.Book {
	if b == nil {
		return nil
	}

	var updatedAt time.Time
	if b.UpdatedAt != nil {
		updatedAt = *b.UpdatedAt
	}

	return &model.Book{
		Id:        b.Id,
		Title:     b.Title,
		Author:    b.Author,
		Genre:     b.Genre,
		CreatedAt: b.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *BookMapper) ToEntities(books []*model.Book) []*entity.Book {
	entities := make([]*entity.Book, len(books))
	for i, b := range books {
		entities[i] = m.ToEntity(b)
	}
	return entities
}
