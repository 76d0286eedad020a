package orderrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/indiangoerge/bookworld-digital-shelf/model"
)

// ListFilter narrows the admin order listing. Nil/zero fields are
// skipped. Limit defaults to 100 at the service layer.
type ListFilter struct {
	Status   model.OrderStatus
	UserID   int64
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// ItemRow is one order line joined with its book summary.
type ItemRow struct {
	ID        int64             `json:"id"`
	OrderID   int64             `json:"-"`
	Quantity  int64             `json:"quantity"`
	UnitPrice float64           `json:"unit_price"`
	Book      model.BookSummary `json:"book"`
}

// UserOrderRow is one order in a user's history, items included.
type UserOrderRow struct {
	ID              int64             `json:"id"`
	TotalPrice      float64           `json:"total_price"`
	Status          model.OrderStatus `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	PaymentMethod   string            `json:"payment_method"`
	ShippingAddress string            `json:"shipping_address"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Items           []ItemRow         `json:"items"`
}

// AdminOrderRow adds the user summary and item count for admin views.
type AdminOrderRow struct {
	ID              int64             `json:"id"`
	User            model.UserSummary `json:"user"`
	TotalPrice      float64           `json:"total_price"`
	Status          model.OrderStatus `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	PaymentMethod   string            `json:"payment_method"`
	ShippingAddress string            `json:"shipping_address"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	ItemsCount      int               `json:"items_count"`
	Items           []ItemRow         `json:"items"`
}

// Stats are the admin aggregate counts.
type Stats struct {
	TotalBooks     int64                       `json:"total_books"`
	TotalOrders    int64                       `json:"total_orders"`
	TotalUsers     int64                       `json:"total_users"`
	OrdersByStatus map[model.OrderStatus]int64 `json:"orders_by_status"`
}

type Repo interface {
	// Tx runs fn inside one transaction; a non-nil error from fn rolls
	// everything back.
	Tx(ctx context.Context, fn func(tx *sql.Tx) error) error

	UserExists(ctx context.Context, tx *sql.Tx, userID int64) (bool, error)

	// BooksForUpdate fetches the referenced books and row-locks them so
	// the stock check-then-decrement cannot race a concurrent order.
	BooksForUpdate(ctx context.Context, tx *sql.Tx, ids []int64) (map[int64]model.Book, error)

	// DecrementStock applies a guarded decrement and reports whether a
	// row was actually updated (false means stock fell short).
	DecrementStock(ctx context.Context, tx *sql.Tx, bookID, qty int64) (bool, error)

	InsertOrder(ctx context.Context, tx *sql.Tx, o *model.Order) error
	InsertOrderItems(ctx context.Context, tx *sql.Tx, orderID int64, items []model.OrderItem) error

	OrderForUpdate(ctx context.Context, tx *sql.Tx, orderID int64) (model.OrderStatus, error)
	SetStatus(ctx context.Context, tx *sql.Tx, orderID int64, s model.OrderStatus) (time.Time, error)

	ListByUser(ctx context.Context, userID int64) ([]UserOrderRow, error)
	List(ctx context.Context, f ListFilter) ([]AdminOrderRow, error)
	GetStats(ctx context.Context) (*Stats, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *repo) UserExists(ctx context.Context, tx *sql.Tx, userID int64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`
	var ok bool
	err := tx.QueryRowContext(ctx, q, userID).Scan(&ok)
	return ok, err
}

func (r *repo) BooksForUpdate(ctx context.Context, tx *sql.Tx, ids []int64) (map[int64]model.Book, error) {
	const q = `
		SELECT id, title, author, price, stock
		FROM books
		WHERE id = ANY($1::bigint[])
		ORDER BY id
		FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, int64Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]model.Book, len(ids))
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Price, &b.Stock); err != nil {
			return nil, err
		}
		out[b.ID] = b
	}
	return out, rows.Err()
}

func (r *repo) DecrementStock(ctx context.Context, tx *sql.Tx, bookID, qty int64) (bool, error) {
	const q = `
		UPDATE books
		SET stock = stock - $2,
			updated_at = NOW()
		WHERE id = $1
		AND stock >= $2`
	res, err := tx.ExecContext(ctx, q, bookID, qty)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff == 1, nil
}

func (r *repo) InsertOrder(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `
		INSERT INTO orders (user_id, total_price, status, payment_method, payment_status, shipping_address)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at, updated_at`
	return tx.QueryRowContext(ctx, q,
		o.UserID, o.TotalPrice, o.Status, o.PaymentMethod, o.PaymentStatus, o.ShippingAddress,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (r *repo) InsertOrderItems(ctx context.Context, tx *sql.Tx, orderID int64, items []model.OrderItem) error {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("INSERT INTO order_items (order_id, book_id, quantity, unit_price) VALUES ")
	for i, it := range items {
		if i > 0 {
			sb.WriteString(",")
		}
		base := i * 4
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4)
		args = append(args, orderID, it.BookID, it.Quantity, it.UnitPrice)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

func (r *repo) OrderForUpdate(ctx context.Context, tx *sql.Tx, orderID int64) (model.OrderStatus, error) {
	const q = `
		SELECT status
		FROM orders
		WHERE id = $1
		FOR UPDATE`
	var s model.OrderStatus
	err := tx.QueryRowContext(ctx, q, orderID).Scan(&s)
	return s, err
}

func (r *repo) SetStatus(ctx context.Context, tx *sql.Tx, orderID int64, s model.OrderStatus) (time.Time, error) {
	const q = `
		UPDATE orders
		SET status = $2,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	var at time.Time
	err := tx.QueryRowContext(ctx, q, orderID, s).Scan(&at)
	return at, err
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]UserOrderRow, error) {
	const q = `
		SELECT id, total_price, status, payment_status, payment_method, shipping_address, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out []UserOrderRow
		ids []int64
		idx = map[int64]int{}
	)
	for rows.Next() {
		var o UserOrderRow
		if err := rows.Scan(&o.ID, &o.TotalPrice, &o.Status, &o.PaymentStatus,
			&o.PaymentMethod, &o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Items = []ItemRow{}
		idx[o.ID] = len(out)
		ids = append(ids, o.ID)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	items, err := r.itemsForOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		i := idx[it.OrderID]
		out[i].Items = append(out[i].Items, it)
	}
	return out, nil
}

func (r *repo) List(ctx context.Context, f ListFilter) ([]AdminOrderRow, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		conds = append(conds, "o.status = "+arg(f.Status))
	}
	if f.UserID > 0 {
		conds = append(conds, "o.user_id = "+arg(f.UserID))
	}
	if f.DateFrom != nil {
		conds = append(conds, "o.created_at >= "+arg(*f.DateFrom))
	}
	if f.DateTo != nil {
		conds = append(conds, "o.created_at <= "+arg(*f.DateTo))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	q := fmt.Sprintf(`
		SELECT o.id, u.id, u.name, u.email,
			o.total_price, o.status, o.payment_status, o.payment_method, o.shipping_address,
			o.created_at, o.updated_at
		FROM orders o
		JOIN users u ON u.id = o.user_id%s
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT %s OFFSET %s`, where, arg(f.Limit), arg(f.Offset))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out []AdminOrderRow
		ids []int64
		idx = map[int64]int{}
	)
	for rows.Next() {
		var o AdminOrderRow
		if err := rows.Scan(&o.ID, &o.User.ID, &o.User.Name, &o.User.Email,
			&o.TotalPrice, &o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.ShippingAddress,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Items = []ItemRow{}
		idx[o.ID] = len(out)
		ids = append(ids, o.ID)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	items, err := r.itemsForOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		i := idx[it.OrderID]
		out[i].Items = append(out[i].Items, it)
		out[i].ItemsCount++
	}
	return out, nil
}

func (r *repo) itemsForOrders(ctx context.Context, orderIDs []int64) ([]ItemRow, error) {
	const q = `
		SELECT oi.id, oi.order_id, oi.quantity, oi.unit_price,
			b.id, b.title, b.author, b.cover_image_url
		FROM order_items oi
		JOIN books b ON b.id = oi.book_id
		WHERE oi.order_id = ANY($1::bigint[])
		ORDER BY oi.order_id, oi.id`
	rows, err := r.db.QueryContext(ctx, q, int64Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemRow
	for rows.Next() {
		var it ItemRow
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Quantity, &it.UnitPrice,
			&it.Book.ID, &it.Book.Title, &it.Book.Author, &it.Book.CoverImageURL); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *repo) GetStats(ctx context.Context) (*Stats, error) {
	s := &Stats{OrdersByStatus: map[model.OrderStatus]int64{}}

	const counts = `
		SELECT
			(SELECT COUNT(*) FROM books),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM users)`
	if err := r.db.QueryRowContext(ctx, counts).Scan(&s.TotalBooks, &s.TotalOrders, &s.TotalUsers); err != nil {
		return nil, err
	}

	const byStatus = `
		SELECT status, COUNT(*)
		FROM orders
		GROUP BY status`
	rows, err := r.db.QueryContext(ctx, byStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			st model.OrderStatus
			n  int64
		)
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		s.OrdersByStatus[st] = n
	}
	return s, rows.Err()
}

// int64Array renders ids as a Postgres array literal. The stdlib
// database/sql driver path has no native []int64 support.
func int64Array(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
