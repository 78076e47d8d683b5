package model

import "time"

// Document is a contract file held by the file store.
// This is a pure domain model with no storage-specific dependencies.
// A signed contract is a distinct Document; the unsigned one is never rewritten.
type Document struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Link    string    `json:"link"`
	Size    int64     `json:"size"`
	Date    string    `json:"date"`
	Signed  bool      `json:"signed"`
	Created time.Time `json:"created_at"`
}

// LedgerRow is one line of the deposit ledger. Field order is the column order.
type LedgerRow struct {
	Date           string `csv:"date"`
	ArtistName     string `csv:"artist_name"`
	Email          string `csv:"email"`
	RegistrationID string `csv:"registration_id"`
	Address        string `csv:"address"`
	Title          string `csv:"title"`
	Dimensions     string `csv:"dimensions"`
	Year           string `csv:"year"`
	ArtistPrice    string `csv:"artist_price"`
	Commission     string `csv:"commission"`
	SalePrice      string `csv:"sale_price"`
	Photo1         string `csv:"photo_1"`
	Photo2         string `csv:"photo_2"`
	Photo3         string `csv:"photo_3"`
}

// LedgerColumns is the fixed width of every ledger row.
const LedgerColumns = 14

// Values returns the row as spreadsheet cells in column order.
func (r LedgerRow) Values() []string {
	return []string{
		r.Date,
		r.ArtistName,
		r.Email,
		r.RegistrationID,
		r.Address,
		r.Title,
		r.Dimensions,
		r.Year,
		r.ArtistPrice,
		r.Commission,
		r.SalePrice,
		r.Photo1,
		r.Photo2,
		r.Photo3,
	}
}
