package booksvc

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/indiangoerge/bookworld-digital-shelf/model"
	bookrepo "github.com/indiangoerge/bookworld-digital-shelf/repository/book"
)

var ErrNotFound = errors.New("book not found")

// ListParams are the catalog query params after controller parsing.
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	Genre     string
	Author    string
	MinPrice  float64
	MaxPrice  float64
	SortBy    string
	SortOrder string
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalBooks  int64 `json:"total_books"`
	PerPage     int   `json:"per_page"`
}

type Listing struct {
	Books      []model.Book `json:"books"`
	Pagination Pagination   `json:"pagination"`
}

type Service interface {
	List(ctx context.Context, p ListParams) (*Listing, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
}

type service struct{ r bookrepo.Repo }

func New(r bookrepo.Repo) Service { return &service{r: r} }

func (s *service) List(ctx context.Context, p ListParams) (*Listing, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}

	books, total, err := s.r.List(ctx, bookrepo.ListFilter{
		Search:    p.Search,
		Genre:     p.Genre,
		Author:    p.Author,
		MinPrice:  p.MinPrice,
		MaxPrice:  p.MaxPrice,
		SortBy:    p.SortBy,
		SortOrder: p.SortOrder,
		Limit:     p.Limit,
		Offset:    (p.Page - 1) * p.Limit,
	})
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []model.Book{}
	}

	return &Listing{
		Books: books,
		Pagination: Pagination{
			CurrentPage: p.Page,
			TotalPages:  int(math.Ceil(float64(total) / float64(p.Limit))),
			TotalBooks:  total,
			PerPage:     p.Limit,
		},
	}, nil
}

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}
