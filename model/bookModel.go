// model/book.go
package model

import "time"

type Book struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Genre         *string   `json:"genre,omitempty"`
	Price         float64   `json:"price"`
	Description   *string   `json:"description,omitempty"`
	ISBN          *string   `json:"isbn,omitempty"`
	CoverImageURL *string   `json:"cover_image_url,omitempty"`
	Stock         int64     `json:"stock"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BookSummary is the projection embedded in order listings.
type BookSummary struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	CoverImageURL *string `json:"cover_image_url,omitempty"`
}
