package ordersvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/indiangoerge/bookworld-digital-shelf/model"
	orderrepo "github.com/indiangoerge/bookworld-digital-shelf/repository/order"
)

// errors used by controllers

type ErrCode string

const (
	ErrUserNotFound      ErrCode = "USER_NOT_FOUND"
	ErrBookNotFound      ErrCode = "BOOK_NOT_FOUND"
	ErrOrderNotFound     ErrCode = "ORDER_NOT_FOUND"
	ErrInsufficientStock ErrCode = "INSUFFICIENT_STOCK"
	ErrInvalidTransition ErrCode = "INVALID_TRANSITION"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// InsufficientStockError names the offending book and both quantities.
type InsufficientStockError struct {
	Title     string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for book: %s. Available: %d, Requested: %d",
		e.Title, e.Available, e.Requested)
}
func (e *InsufficientStockError) Code() ErrCode { return ErrInsufficientStock }

// InvalidTransitionError names the rejected edge.
type InvalidTransitionError struct {
	From model.OrderStatus
	To   model.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}
func (e *InvalidTransitionError) Code() ErrCode { return ErrInvalidTransition }

// dto

type ItemInput struct {
	BookID   int64
	Quantity int64
}

type CreateInput struct {
	UserID        int64
	Items         []ItemInput
	PaymentMethod string
	Address       string
}

type Created struct {
	OrderID       int64             `json:"order_id"`
	Status        model.OrderStatus `json:"status"`
	TotalPrice    float64           `json:"total_price"`
	PaymentStatus string            `json:"payment_status"`
}

type StatusChange struct {
	OrderID   int64             `json:"order_id"`
	OldStatus model.OrderStatus `json:"old_status"`
	NewStatus model.OrderStatus `json:"new_status"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type Service interface {
	// Create commits a new order plus its items and decrements stock,
	// or persists nothing at all.
	Create(ctx context.Context, in CreateInput) (*Created, error)

	// UpdateStatus applies one edge of the status transition graph.
	UpdateStatus(ctx context.Context, orderID int64, target model.OrderStatus) (*StatusChange, error)

	ListByUser(ctx context.Context, userID int64) ([]orderrepo.UserOrderRow, error)
	ListAll(ctx context.Context, f orderrepo.ListFilter) ([]orderrepo.AdminOrderRow, error)
	GetStats(ctx context.Context) (*orderrepo.Stats, error)
}

// ----- Service implementation -----

type service struct {
	r orderrepo.Repo
}

func New(r orderrepo.Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, in CreateInput) (*Created, error) {
	out := &Created{}

	err := s.r.Tx(ctx, func(tx *sql.Tx) error {
		ok, err := s.r.UserExists(ctx, tx, in.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return makeErr(ErrUserNotFound)
		}

		ids := make([]int64, 0, len(in.Items))
		for _, it := range in.Items {
			ids = append(ids, it.BookID)
		}
		books, err := s.r.BooksForUpdate(ctx, tx, ids)
		if err != nil {
			return err
		}
		for _, it := range in.Items {
			if _, ok := books[it.BookID]; !ok {
				return makeErr(ErrBookNotFound)
			}
		}

		var (
			total float64
			items []model.OrderItem
		)
		for _, it := range in.Items {
			b := books[it.BookID]
			if b.Stock < it.Quantity {
				return &InsufficientStockError{Title: b.Title, Available: b.Stock, Requested: it.Quantity}
			}

			total += b.Price * float64(it.Quantity)
			items = append(items, model.OrderItem{
				BookID:    it.BookID,
				Quantity:  it.Quantity,
				UnitPrice: b.Price,
			})

			// Staged decrement so a book repeated across items is
			// validated against what this order already claimed.
			b.Stock -= it.Quantity
			books[it.BookID] = b

			applied, err := s.r.DecrementStock(ctx, tx, it.BookID, it.Quantity)
			if err != nil {
				return err
			}
			if !applied {
				return &InsufficientStockError{Title: b.Title, Available: b.Stock + it.Quantity, Requested: it.Quantity}
			}
		}

		o := &model.Order{
			UserID:          in.UserID,
			TotalPrice:      total,
			Status:          model.StatusProcessing,
			PaymentMethod:   in.PaymentMethod,
			PaymentStatus:   model.PaymentStatusPaid, // payment is mocked
			ShippingAddress: in.Address,
		}
		if err := s.r.InsertOrder(ctx, tx, o); err != nil {
			return err
		}
		if err := s.r.InsertOrderItems(ctx, tx, o.ID, items); err != nil {
			return err
		}

		out.OrderID = o.ID
		out.Status = o.Status
		out.TotalPrice = o.TotalPrice
		out.PaymentStatus = o.PaymentStatus
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID int64, target model.OrderStatus) (*StatusChange, error) {
	out := &StatusChange{OrderID: orderID, NewStatus: target}

	err := s.r.Tx(ctx, func(tx *sql.Tx) error {
		current, err := s.r.OrderForUpdate(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return makeErr(ErrOrderNotFound)
			}
			return err
		}
		if !current.CanTransitionTo(target) {
			return &InvalidTransitionError{From: current, To: target}
		}

		at, err := s.r.SetStatus(ctx, tx, orderID, target)
		if err != nil {
			return err
		}
		out.OldStatus = current
		out.UpdatedAt = at
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) ListByUser(ctx context.Context, userID int64) ([]orderrepo.UserOrderRow, error) {
	return s.r.ListByUser(ctx, userID)
}

func (s *service) ListAll(ctx context.Context, f orderrepo.ListFilter) ([]orderrepo.AdminOrderRow, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	return s.r.List(ctx, f)
}

func (s *service) GetStats(ctx context.Context) (*orderrepo.Stats, error) {
	return s.r.GetStats(ctx)
}
