package bookrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/indiangoerge/bookworld-digital-shelf/model"
)

// ListFilter mirrors the catalog query params. Zero values mean "no
// filter"; SortBy is validated against a whitelist before use.
type ListFilter struct {
	Search    string
	Genre     string
	Author    string
	MinPrice  float64
	MaxPrice  float64
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

var sortColumns = map[string]string{
	"created_at": "created_at",
	"title":      "title",
	"author":     "author",
	"price":      "price",
}

type Repo interface {
	List(ctx context.Context, f ListFilter) ([]model.Book, int64, error)
	ByID(ctx context.Context, id int64) (*model.Book, error)
	Insert(ctx context.Context, b *model.Book) error
	BulkInsert(ctx context.Context, books []model.Book) (int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const bookColumns = `id, title, author, genre, price, description, isbn, cover_image_url, stock, created_at, updated_at`

func scanBook(row interface{ Scan(...any) error }, b *model.Book) error {
	return row.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Price,
		&b.Description, &b.ISBN, &b.CoverImageURL, &b.Stock, &b.CreatedAt, &b.UpdatedAt)
}

func (r *repo) List(ctx context.Context, f ListFilter) ([]model.Book, int64, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf("(title ILIKE %[1]s OR author ILIKE %[1]s OR description ILIKE %[1]s)", p))
	}
	if f.Genre != "" {
		conds = append(conds, "genre ILIKE "+arg("%"+f.Genre+"%"))
	}
	if f.Author != "" {
		conds = append(conds, "author ILIKE "+arg("%"+f.Author+"%"))
	}
	if f.MinPrice > 0 {
		conds = append(conds, "price >= "+arg(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		conds = append(conds, "price <= "+arg(f.MaxPrice))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		dir = "ASC"
	}

	q := fmt.Sprintf("SELECT %s FROM books%s ORDER BY %s %s LIMIT %s OFFSET %s",
		bookColumns, where, col, dir, arg(f.Limit), arg(f.Offset))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := scanBook(rows, &b); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Book, error) {
	var b model.Book
	err := scanBook(r.db.QueryRowContext(ctx,
		"SELECT "+bookColumns+" FROM books WHERE id = $1", id), &b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) Insert(ctx context.Context, b *model.Book) error {
	const q = `
		INSERT INTO books (title, author, genre, price, description, isbn, cover_image_url, stock)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, q,
		b.Title, b.Author, b.Genre, b.Price, b.Description, b.ISBN, b.CoverImageURL, b.Stock,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// BulkInsert inserts books in one statement, silently skipping rows
// whose ISBN already exists. Returns the number of rows written.
func (r *repo) BulkInsert(ctx context.Context, books []model.Book) (int64, error) {
	if len(books) == 0 {
		return 0, nil
	}

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("INSERT INTO books (title, author, genre, price, description, isbn, cover_image_url, stock) VALUES ")
	for i, b := range books {
		if i > 0 {
			sb.WriteString(",")
		}
		base := i * 8
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
		args = append(args, b.Title, b.Author, b.Genre, b.Price, b.Description, b.ISBN, b.CoverImageURL, b.Stock)
	}
	sb.WriteString(" ON CONFLICT (isbn) DO NOTHING")

	res, err := r.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
