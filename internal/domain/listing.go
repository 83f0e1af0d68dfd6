package domain

import "time"

// Listing is one classified ad as harvested from a result page and,
// optionally, its detail page.
type Listing struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	URL             string           `json:"url"`
	Category        string           `json:"category"`
	Price           *int64           `json:"price"`
	PriceText       string           `json:"price_text"`
	Description     string           `json:"description"`
	FullDescription *string          `json:"full_description,omitempty"`
	Location        string           `json:"location"`
	Views           int              `json:"views"`
	Date            string           `json:"date"`
	IsTop           bool             `json:"is_top"`
	ImageURL        *string          `json:"image_url"`
	ContactName     *string          `json:"contact_name,omitempty"`
	Phone           *string          `json:"phone,omitempty"`
	Coordinates     *Coordinates     `json:"coordinates,omitempty"`
	Images          []string         `json:"images,omitempty"`
	SimilarListings []SimilarListing `json:"similar_listings,omitempty"`
	ScrapedAt       time.Time        `json:"scraped_at"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SimilarListing is a related-ad stub from a detail page. URL is kept as
// found in the markup and may be relative.
type SimilarListing struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ListingBatch is the finished result of one category within a run.
type ListingBatch struct {
	RunToken string    `json:"run_token"`
	Category string    `json:"category"`
	Listings []Listing `json:"listings"`
}
