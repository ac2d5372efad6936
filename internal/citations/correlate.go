package citations

import (
	"context"
	"fmt"

	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/archival"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/wikitext"
)

// Resolver resolves a DOI against an archival index.
type Resolver interface {
	LookupDOI(ctx context.Context, doi string) (archival.Item, error)
}

// Candidate is one archived file offered for a citation.
type Candidate struct {
	// Index is the 1-based choice number submitted to select this candidate.
	Index     int     `json:"index"`
	FileIdent string  `json:"file_ident"`
	Pair      URLPair `json:"pair"`
}

// Record is a citation that has at least one archived candidate. Records are
// derived per request and hold a reference into that request's Document.
type Record struct {
	Ordinal    int
	Title      string
	DOI        string
	Template   *wikitext.Template
	Item       archival.Item
	Candidates []Candidate
}

// Correlate resolves each template's DOI and keeps the templates that offer at
// least one candidate. Ordinals are dense and follow document order, so the
// same document always yields the same list.
func Correlate(ctx context.Context, resolver Resolver, templates []*wikitext.Template) ([]Record, error) {
	records := make([]Record, 0, len(templates))
	for _, template := range templates {
		doi := fieldValue(template, fieldDOI)
		item, err := resolver.LookupDOI(ctx, doi)
		if err != nil {
			return nil, newError(opResolve, KindUpstreamResolutionFailure,
				fmt.Errorf("%w: doi %s: %v", ErrUpstreamResolutionFailure, doi, err))
		}

		candidates := candidatesFor(item)
		if len(candidates) == 0 {
			continue
		}
		records = append(records, Record{
			Ordinal:    len(records) + 1,
			Title:      fieldValue(template, fieldTitle),
			DOI:        doi,
			Template:   template,
			Item:       item,
			Candidates: candidates,
		})
	}
	return records, nil
}

// candidatesFor keeps the files with a recoverable pair, dropping repeats of
// a pair already offered by an earlier file.
func candidatesFor(item archival.Item) []Candidate {
	var candidates []Candidate
	seen := make(map[URLPair]struct{}, len(item.Files))
	for _, file := range item.Files {
		pair, ok := MatchURLPair(file.URLs)
		if !ok {
			continue
		}
		if _, duplicate := seen[pair]; duplicate {
			continue
		}
		seen[pair] = struct{}{}
		candidates = append(candidates, Candidate{
			Index:     len(candidates) + 1,
			FileIdent: file.Ident,
			Pair:      pair,
		})
	}
	return candidates
}
