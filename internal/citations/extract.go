// Package citations finds DOI-bearing citation templates in an article,
// correlates them with archived copies, and rewrites them with a live link
// plus an archival fallback once a selection has been confirmed.
package citations

import (
	"strings"

	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/wikitext"
)

const (
	fieldDOI         = "doi"
	fieldTitle       = "title"
	fieldURL         = "url"
	fieldFormat      = "format"
	fieldArchiveURL  = "archive-url"
	fieldArchiveDate = "archive-date"

	formatPDF = "PDF"
)

// ExtractDOITemplates returns the templates declaring a non-blank doi, in document order.
func ExtractDOITemplates(document *wikitext.Document) []*wikitext.Template {
	var templates []*wikitext.Template
	for _, template := range document.Templates() {
		if fieldValue(template, fieldDOI) != "" {
			templates = append(templates, template)
		}
	}
	return templates
}

func fieldValue(template *wikitext.Template, name string) string {
	value, _ := template.Get(name)
	return strings.TrimSpace(value)
}
