package order

type OrderItemReq struct {
	BookID   int64 `json:"book_id" validate:"required,gt=0"`
	Quantity int64 `json:"quantity" validate:"required,gte=1"`
}

type CreateOrderReq struct {
	UserID        int64          `json:"user_id" validate:"required,gt=0"`
	Items         []OrderItemReq `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string         `json:"payment_method" validate:"required,max=50"`
	Address       string         `json:"address" validate:"required,min=10"`
}
