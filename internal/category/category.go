// Package category maps the source system's document type codes to archive
// categories. The mapping is a fixed table; codes the table does not know
// fall back to the supplementary-documents category, whose classification
// keeps the document non-public in the archive.
package category

// Category describes how a document type is classified in the archive.
type Category struct {
	Code           string
	Description    string
	Classification string // archive classification, D means non-public
}

// Geotechnical reports whether documents of this category are regulated
// geotechnical surveys, which require notifying the land registry after
// archival.
func (c Category) Geotechnical() bool {
	return c.Code == codeGeotechnical
}

const codeGeotechnical = "GEO"

// Fallback is the category assigned to unrecognized type codes.
var Fallback = Category{Code: "SUP", Description: "Supplementary document", Classification: "D"}

var categories = map[string]Category{
	"GEO":  {Code: "GEO", Description: "Geotechnical survey", Classification: "H"},
	"APP":  {Code: "APP", Description: "Application", Classification: "A"},
	"DEC":  {Code: "DEC", Description: "Decision", Classification: "B"},
	"PROT": {Code: "PROT", Description: "Protocol", Classification: "B"},
	"DRAW": {Code: "DRAW", Description: "Drawing", Classification: "C"},
	"INSP": {Code: "INSP", Description: "Inspection report", Classification: "C"},
	"CERT": {Code: "CERT", Description: "Certificate", Classification: "C"},
	"CORR": {Code: "CORR", Description: "Correspondence", Classification: "D"},
	"SUP":  Fallback,
}

// FromCode returns the category for a source type code. Unknown codes map to
// Fallback rather than failing: the source grows new codes faster than this
// table is updated, and an unclassified document must still be archived.
func FromCode(code string) Category {
	if c, ok := categories[code]; ok {
		return c
	}
	return Fallback
}
