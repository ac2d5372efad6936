package citations

import (
	"fmt"
	"strings"
)

// SkipChoice leaves a citation untouched.
const SkipChoice = 0

// Selection is the client's decision for one presented citation.
type Selection struct {
	Ordinal int    `json:"ordinal"`
	DOI     string `json:"doi"`
	Choice  int    `json:"choice"`
}

// SelectionBatch is one submission covering every presented citation.
type SelectionBatch []Selection

// Edit is a validated decision: a citation and the pair to apply, nil to skip.
type Edit struct {
	Record Record
	Pair   *URLPair
}

// Validate checks a batch against freshly recomputed records. The batch must
// cover ordinals 1..len(records) exactly once, each naming the record's DOI and
// a choice that is SkipChoice or a candidate index. Nothing is mutated.
func Validate(records []Record, batch SelectionBatch) ([]Edit, error) {
	if len(batch) != len(records) {
		return nil, newError(opValidate, KindSelectionCountMismatch,
			fmt.Errorf("%w: submitted %d, article has %d", ErrSelectionCountMismatch, len(batch), len(records)))
	}

	byOrdinal := make(map[int]Selection, len(batch))
	for _, selection := range batch {
		if selection.Ordinal < 1 || selection.Ordinal > len(records) {
			return nil, newError(opValidate, KindSelectionCountMismatch,
				fmt.Errorf("%w: ordinal %d outside 1..%d", ErrSelectionCountMismatch, selection.Ordinal, len(records)))
		}
		if _, duplicate := byOrdinal[selection.Ordinal]; duplicate {
			return nil, newError(opValidate, KindSelectionCountMismatch,
				fmt.Errorf("%w: ordinal %d submitted twice", ErrSelectionCountMismatch, selection.Ordinal))
		}
		byOrdinal[selection.Ordinal] = selection
	}

	edits := make([]Edit, 0, len(records))
	for _, record := range records {
		selection := byOrdinal[record.Ordinal]
		if strings.TrimSpace(selection.DOI) != record.DOI {
			return nil, newError(opValidate, KindSelectionDOIMismatch,
				fmt.Errorf("%w: ordinal %d expects %q, article has %q", ErrSelectionDOIMismatch, record.Ordinal, selection.DOI, record.DOI))
		}
		if selection.Choice < SkipChoice || selection.Choice > len(record.Candidates) {
			return nil, newError(opValidate, KindSelectionIndexOutOfRange,
				fmt.Errorf("%w: ordinal %d choice %d, %d candidates", ErrSelectionIndexOutOfRange, record.Ordinal, selection.Choice, len(record.Candidates)))
		}

		edit := Edit{Record: record}
		if selection.Choice != SkipChoice {
			pair := record.Candidates[selection.Choice-1].Pair
			edit.Pair = &pair
		}
		edits = append(edits, edit)
	}
	return edits, nil
}
