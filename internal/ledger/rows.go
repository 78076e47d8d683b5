// Package ledger maps deposit submissions to fixed-width ledger rows.
package ledger

import (
	"strings"

	"github.com/samber/lo"

	"depotapi/internal/model"
	"depotapi/internal/pricing"
)

// BuildRows returns one row per work, in declaration order.
// Every row has model.LedgerColumns cells whatever the number of photos.
func BuildRows(sub model.Submission, date string) []model.LedgerRow {
	return lo.Map(sub.Works, func(w model.Work, _ int) model.LedgerRow {
		photos := photoSlots(w.PhotoLinks())
		return model.LedgerRow{
			Date:           date,
			ArtistName:     escapeFormula(sub.ArtistName),
			Email:          escapeFormula(sub.Email),
			RegistrationID: escapeFormula(sub.RegistrationID),
			Address:        escapeFormula(sub.Address),
			Title:          escapeFormula(w.Title),
			Dimensions:     escapeFormula(w.Dimensions),
			Year:           escapeFormula(w.Year),
			ArtistPrice:    pricing.Format(w.ArtistPrice),
			Commission:     pricing.Format(w.Commission),
			SalePrice:      pricing.Format(w.SalePrice),
			Photo1:         photos[0],
			Photo2:         photos[1],
			Photo3:         photos[2],
		}
	})
}

// Values flattens rows into cells for the spreadsheet API.
func Values(rows []model.LedgerRow) [][]string {
	return lo.Map(rows, func(r model.LedgerRow, _ int) []string {
		return r.Values()
	})
}

// photoSlots pads or truncates links to exactly MaxPhotosPerWork entries.
func photoSlots(links []string) [model.MaxPhotosPerWork]string {
	var slots [model.MaxPhotosPerWork]string
	copy(slots[:], links)
	return slots
}

// escapeFormula keeps user text from being evaluated by a spreadsheet in USER_ENTERED mode.
func escapeFormula(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsRune("=+-@", rune(s[0])) {
		return "'" + s
	}
	return s
}
