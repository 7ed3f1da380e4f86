package compliance

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Document type codes understood by the registry
const (
	DocumentTypeInPerson = "1"
	DocumentTypeDistance = "2"
	DocumentTypeOther    = "3"
)

// DeclarationQuery is the request sent to the external registry
type DeclarationQuery struct {
	Username     string
	Password     string
	EntityTaxID  string
	DocumentType string
	CourseIDs    []string
}

// DeclarationRecord is one participant row returned by the registry
type DeclarationRecord struct {
	TaxID            string
	Name             string
	Sessions         int
	Status           string
	ExternalCourseID string
}

// DeclarationGateway fetches sworn statements from the external registry.
// Implementations must honor ctx and bound the call with their own timeout.
type DeclarationGateway interface {
	FetchDeclarations(ctx context.Context, query DeclarationQuery) ([]DeclarationRecord, error)
}

// DocumentTypeForModality derives the registry document type from a course modality.
// Matching ignores case, accents and surrounding blanks.
func DocumentTypeForModality(modality string) string {
	switch foldModality(modality) {
	case "presencial":
		return DocumentTypeInPerson
	case "e-learning", "elearning", "a distancia", "distancia":
		return DocumentTypeDistance
	default:
		return DocumentTypeOther
	}
}

func foldModality(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

// StripCheckDigit removes the trailing check character from a tax id.
// "76.123.456-7" becomes "76123456"; without a dash the last character is dropped.
func StripCheckDigit(taxID string) string {
	id := strings.ReplaceAll(strings.TrimSpace(taxID), ".", "")
	if i := strings.LastIndex(id, "-"); i >= 0 {
		return id[:i]
	}
	if len(id) <= 1 {
		return ""
	}
	return id[:len(id)-1]
}
