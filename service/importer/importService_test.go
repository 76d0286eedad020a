package importersvc

import (
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/indiangoerge/bookworld-digital-shelf/model"
	bookrepo "github.com/indiangoerge/bookworld-digital-shelf/repository/book"
)

type mockRepo struct {
	bulkFn   func(ctx context.Context, books []model.Book) (int64, error)
	insertFn func(ctx context.Context, b *model.Book) error
	inserted [][]model.Book
}

var _ bookrepo.Repo = (*mockRepo)(nil)

func (m *mockRepo) BulkInsert(ctx context.Context, books []model.Book) (int64, error) {
	m.inserted = append(m.inserted, append([]model.Book(nil), books...))
	if m.bulkFn != nil {
		return m.bulkFn(ctx, books)
	}
	return int64(len(books)), nil
}

func (m *mockRepo) Insert(ctx context.Context, b *model.Book) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, b)
	}
	return nil
}

func (m *mockRepo) List(ctx context.Context, f bookrepo.ListFilter) ([]model.Book, int64, error) {
	return nil, 0, nil
}

func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.Book, error) { return nil, nil }

func writeCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "books.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(rows))
	w.Flush()
	require.NoError(t, f.Close())
	return path
}

var header = []string{"title", "author", "genre", "price", "description", "isbn", "cover_image_url", "stock"}

func newTestService(t *testing.T, r bookrepo.Repo) Service {
	t.Helper()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(r, log, t.TempDir())
}

func TestImportCSV_AllValid(t *testing.T) {
	path := writeCSV(t, [][]string{
		header,
		{"The Pragmatic Programmer", "Hunt", "Programming", "42.50", "classic", "978-0-13595-705-9", "https://covers.example.com/tpp.jpg", "10"},
		{"Dune", "Herbert", "Sci-Fi", "9.99", "", "", "", "3"},
	})
	m := &mockRepo{}
	s := newTestService(t, m)

	sum, err := s.ImportCSV(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, sum.TotalRows)
	require.Equal(t, 2, sum.Successful)
	require.Equal(t, 0, sum.Failed)
	require.False(t, sum.FailedRowsExported)

	require.Len(t, m.inserted, 1)
	first := m.inserted[0][0]
	require.NotNil(t, first.ISBN)
	require.Equal(t, "9780135957059", *first.ISBN, "ISBN dashes must be stripped")
	require.Equal(t, 42.50, first.Price)

	second := m.inserted[0][1]
	require.Nil(t, second.ISBN)
	require.Nil(t, second.Genre, "empty genre must import as NULL")
}

func TestImportCSV_InvalidRowsExported(t *testing.T) {
	path := writeCSV(t, [][]string{
		header,
		{"Good Book", "Author", "", "10.00", "", "", "", "1"},
		{"", "Author", "", "10.00", "", "", "", "1"},             // missing title
		{"Bad Price", "Author", "", "free", "", "", "", "1"},     // unparsable price
		{"Bad ISBN", "Author", "", "5.00", "", "12345", "", "0"}, // wrong ISBN length
	})
	m := &mockRepo{}
	s := newTestService(t, m)

	sum, err := s.ImportCSV(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 4, sum.TotalRows)
	require.Equal(t, 1, sum.Successful)
	require.Equal(t, 3, sum.Failed)
	require.True(t, sum.FailedRowsExported)
	require.FileExists(t, sum.FailedRowsPath)

	f, err := os.Open(sum.FailedRowsPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header plus one line per failed row")
	require.Equal(t, "2", records[1][0], "failed row keeps its source row number")
}

func TestImportCSV_BulkFailureFallsBackToRows(t *testing.T) {
	path := writeCSV(t, [][]string{
		header,
		{"First", "A", "", "1.00", "", "1234567890", "", "1"},
		{"Second", "B", "", "2.00", "", "1234567890", "", "1"}, // duplicate ISBN
	})
	m := &mockRepo{
		bulkFn: func(ctx context.Context, books []model.Book) (int64, error) {
			return 0, errors.New("bulk failed")
		},
	}
	calls := 0
	m.insertFn = func(ctx context.Context, b *model.Book) error {
		calls++
		if calls == 2 {
			return &pgconn.PgError{Code: pgerrcode.UniqueViolation}
		}
		return nil
	}
	s := newTestService(t, m)

	sum, err := s.ImportCSV(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, calls, "every row retried individually")
	require.Equal(t, 1, sum.Successful)
	require.Equal(t, 1, sum.Failed)
	require.True(t, sum.FailedRowsExported)
}

func TestImportCSV_MissingFile(t *testing.T) {
	s := newTestService(t, &mockRepo{})
	_, err := s.ImportCSV(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestImportCSV_BatchSplitting(t *testing.T) {
	rows := [][]string{header}
	for i := 0; i < 7; i++ {
		rows = append(rows, []string{"Book", "Author", "", "1.00", "", "", "", "1"})
	}
	path := writeCSV(t, rows)

	m := &mockRepo{}
	s := newTestService(t, m).(*service)
	s.batchSize = 3

	sum, err := s.ImportCSV(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 7, sum.Successful)
	require.Len(t, m.inserted, 3, "7 rows with batch size 3 = 3 batches")
}
