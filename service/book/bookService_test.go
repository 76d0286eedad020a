// service/book/book_service_test.go
package booksvc_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/indiangoerge/bookworld-digital-shelf/model"
	bookrepo "github.com/indiangoerge/bookworld-digital-shelf/repository/book"
	booksvc "github.com/indiangoerge/bookworld-digital-shelf/service/book"
)

type repoMock struct {
	listFn   func(ctx context.Context, f bookrepo.ListFilter) ([]model.Book, int64, error)
	byIDFn   func(ctx context.Context, id int64) (*model.Book, error)
	insertFn func(ctx context.Context, b *model.Book) error
	bulkFn   func(ctx context.Context, books []model.Book) (int64, error)
}

func (m *repoMock) List(ctx context.Context, f bookrepo.ListFilter) ([]model.Book, int64, error) {
	return m.listFn(ctx, f)
}
func (m *repoMock) ByID(ctx context.Context, id int64) (*model.Book, error) {
	return m.byIDFn(ctx, id)
}
func (m *repoMock) Insert(ctx context.Context, b *model.Book) error { return m.insertFn(ctx, b) }
func (m *repoMock) BulkInsert(ctx context.Context, books []model.Book) (int64, error) {
	return m.bulkFn(ctx, books)
}

func TestList_Defaults(t *testing.T) {
	var got bookrepo.ListFilter
	m := &repoMock{
		listFn: func(ctx context.Context, f bookrepo.ListFilter) ([]model.Book, int64, error) {
			got = f
			return nil, 0, nil
		},
	}
	s := booksvc.New(m)

	out, err := s.List(context.Background(), booksvc.ListParams{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if got.Limit != 20 || got.Offset != 0 {
		t.Fatalf("got limit=%d offset=%d; want 20 0", got.Limit, got.Offset)
	}
	if out.Pagination.CurrentPage != 1 || out.Pagination.PerPage != 20 {
		t.Fatalf("bad pagination defaults: %+v", out.Pagination)
	}
	if out.Books == nil {
		t.Fatal("Books must be an empty slice, not nil")
	}
}

func TestList_Pagination(t *testing.T) {
	m := &repoMock{
		listFn: func(ctx context.Context, f bookrepo.ListFilter) ([]model.Book, int64, error) {
			if f.Offset != 40 {
				t.Fatalf("offset = %d; want 40", f.Offset)
			}
			return make([]model.Book, 20), 45, nil
		},
	}
	s := booksvc.New(m)

	out, err := s.List(context.Background(), booksvc.ListParams{Page: 3, Limit: 20})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if out.Pagination.TotalPages != 3 {
		t.Fatalf("total_pages = %d; want 3", out.Pagination.TotalPages)
	}
	if out.Pagination.TotalBooks != 45 {
		t.Fatalf("total_books = %d; want 45", out.Pagination.TotalBooks)
	}
}

func TestDetail_NotFound(t *testing.T) {
	m := &repoMock{
		byIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return nil, sql.ErrNoRows
		},
	}
	s := booksvc.New(m)

	if _, err := s.Detail(context.Background(), 99); !errors.Is(err, booksvc.ErrNotFound) {
		t.Fatalf("got %v; want ErrNotFound", err)
	}
}

func TestDetail_Success(t *testing.T) {
	m := &repoMock{
		byIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Title: "Clean Code"}, nil
		},
	}
	s := booksvc.New(m)

	b, err := s.Detail(context.Background(), 7)
	if err != nil || b.Title != "Clean Code" {
		t.Fatalf("got %+v err=%v", b, err)
	}
}
