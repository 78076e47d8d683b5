// Package model holds the deposit domain types shared by the services, the layout engine and the storage gateway.
package model

import "github.com/shopspring/decimal"

// MaxPhotosPerWork is the number of photo slots a work has on the form and in the ledger.
const MaxPhotosPerWork = 3

// Submission is one artwork deposit as captured from the form.
// It is immutable once built; nothing here is persisted by the service itself.
type Submission struct {
	ArtistName     string `json:"artist_name" validate:"required,max=200"`
	Email          string `json:"email" validate:"required,email"`
	RegistrationID string `json:"registration_id" validate:"max=64"`
	Address        string `json:"address" validate:"max=500"`
	Works          []Work `json:"works" validate:"required,min=1,max=20,dive"`
}

// Work is a single deposited artwork.
// Commission and SalePrice are derived from ArtistPrice by the pricing package and never entered.
type Work struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Dimensions  string          `json:"dimensions" validate:"max=100"`
	Year        string          `json:"year" validate:"max=16"`
	ArtistPrice decimal.Decimal `json:"artist_price"`
	Commission  decimal.Decimal `json:"commission"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	Photos      []PhotoRef      `json:"photos" validate:"max=3"`
}

// PhotoRef points at an uploaded photo in the file store.
type PhotoRef struct {
	ID   string `json:"id"`
	Link string `json:"link"`
}

// PhotoLinks returns the links of the work's photos in upload order.
func (w Work) PhotoLinks() []string {
	links := make([]string, 0, len(w.Photos))
	for _, p := range w.Photos {
		links = append(links, p.Link)
	}
	return links
}
