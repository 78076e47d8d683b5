package contract

import (
	"strings"

	"github.com/go-pdf/fpdf"

	"depotapi/internal/model"
	"depotapi/internal/pricing"
)

const contractTitle = "CONTRAT DE DÉPÔT-VENTE D'ŒUVRES D'ART"

var tableHeader = [...]string{"Titre", "Format", "Année", "Prix artiste", "Commission", "Prix de vente"}

// clause is one block of the legal text. Heading may be empty.
type clause struct {
	Heading string
	Body    string
}

// legalText returns the fixed boilerplate filled with the parties of sub.
func legalText(galleryName string, sub model.Submission) []clause {
	artist := sub.ArtistName
	if sub.Address != "" {
		artist += ", demeurant " + sub.Address
	}
	if sub.RegistrationID != "" {
		artist += ", immatriculé(e) sous le numéro " + sub.RegistrationID
	}
	artist += ", joignable à l'adresse " + sub.Email

	commission := pricing.CommissionRate.Shift(2).String()
	sale := pricing.SaleRate.Shift(2).String()

	return []clause{
		{Body: "Entre les soussignés :"},
		{Body: galleryName + ", ci-après dénommée « la Galerie »,"},
		{Body: "et " + artist + ", ci-après dénommé(e) « l'Artiste »,"},
		{Body: "il a été convenu ce qui suit."},
		{
			Heading: "Article 1 - Objet",
			Body: "L'Artiste confie à la Galerie, qui l'accepte, les œuvres désignées dans le tableau ci-dessous " +
				"en vue de leur exposition et de leur vente au public.",
		},
		{
			Heading: "Article 2 - Prix et commission",
			Body: "Le prix de vente public de chaque œuvre est fixé à " + sale + " % du prix artiste. " +
				"La Galerie perçoit une commission égale à " + commission + " % du prix artiste. " +
				"Aucun autre frais n'est mis à la charge de l'Artiste.",
		},
		{
			Heading: "Article 3 - Durée",
			Body: "Le présent dépôt est consenti pour une durée de trois mois à compter de sa signature. " +
				"Il peut être renouvelé par accord écrit des parties.",
		},
		{
			Heading: "Article 4 - Garde des œuvres",
			Body: "Les œuvres restent la propriété de l'Artiste jusqu'à leur vente. La Galerie en assure la garde " +
				"et la conservation pendant toute la durée du dépôt.",
		},
		{
			Heading: "Article 5 - Règlement",
			Body: "Le prix artiste est reversé à l'Artiste dans un délai de trente jours suivant l'encaissement " +
				"du prix de vente par la Galerie.",
		},
		{
			Heading: "Article 6 - Reprise",
			Body: "À l'expiration du dépôt, les œuvres invendues sont tenues à la disposition de l'Artiste, " +
				"qui s'engage à les reprendre dans un délai de quinze jours.",
		},
		{
			Heading: "Article 7 - Reproduction",
			Body: "L'Artiste autorise la Galerie à reproduire les photographies des œuvres déposées " +
				"dans le seul but d'en promouvoir la vente.",
		},
	}
}

// wrapText splits s into lines no wider than width in the current font.
// s must already be in the single-byte encoding of the core fonts.
func wrapText(pdf *fpdf.Fpdf, s string, width float64) []string {
	var lines []string
	var line string
	for _, word := range strings.Fields(s) {
		for pdf.GetStringWidth(word) > width {
			cut := len(word) - 1
			for cut > 1 && pdf.GetStringWidth(word[:cut]) > width {
				cut--
			}
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			lines = append(lines, word[:cut])
			word = word[cut:]
		}
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if pdf.GetStringWidth(candidate) <= width {
			line = candidate
			continue
		}
		lines = append(lines, line)
		line = word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// truncate shortens s with "..." so it fits in width.
func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
