package domain

import (
	"io"
	"time"
)

// Image points at a stored object; PublicID is the key used to delete it.
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

type Product struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	Category    string
	Brand       string
	Images      []Image
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductSort selects the ordering of catalog listings.
type ProductSort string

const (
	SortNewest    ProductSort = ""
	SortLowToHigh ProductSort = "lowToHigh"
	SortHighToLow ProductSort = "highToLow"
)

// ProductFilter narrows catalog listings. Zero values mean "no filter".
type ProductFilter struct {
	Search        string
	Category      string
	Brand         string
	MinPriceCents *int64
	MaxPriceCents *int64
	Sort          ProductSort
}

// Upload is a file received from a client, ready to be stored.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
