package service

import (
	"context"

	"insightslm-be/internal/dto"
	"insightslm-be/internal/repository/specification"
	"insightslm-be/internal/repository/unitofwork"
)

type IBookService interface {
	GetAll(ctx context.Context, genre string) ([]*dto.BookResponse, error)
	GetGenres(ctx context.Context) ([]string, error)
}

type bookService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewBookService(uowFactory unitofwork.RepositoryFactory) IBookService {
	return &bookService{uowFactory: uowFactory}
}

func (c *bookService) GetAll(ctx context.Context, genre string) ([]*dto.BookResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.OrderBy{Field: "title"},
	}
	if genre != "" {
		specs = append(specs, specification.ByGenre{Genre: genre})
	}

	books, err := uow.BookRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.BookResponse, 0, len(books))
	for _, b := range books {
		result = append(result, &dto.BookResponse{
			Id:     b.Id,
			Title:  b.Title,
			Author: b.Author,
			Genre:  b.Genre,
		})
	}
	return result, nil
}

func (c *bookService) GetGenres(ctx context.Context) ([]string, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	books, err := uow.BookRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	genres := make([]string, 0)
	for _, b := range books {
		if b.Genre == "" {
			continue
		}
		if _, ok := seen[b.Genre]; ok {
			continue
		}
		seen[b.Genre] = struct{}{}
		genres = append(genres, b.Genre)
	}
	return genres, nil
}
