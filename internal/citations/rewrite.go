package citations

// RewriteSummary counts what a rewrite changed.
type RewriteSummary struct {
	Rewritten int
	Skipped   int
}

type plannedEdit struct {
	edit        Edit
	archiveDate string
}

// Rewrite applies validated edits to their templates. Every archive date is
// derived before the first template is touched, so a malformed archive URL
// leaves the document unchanged.
func Rewrite(edits []Edit) (RewriteSummary, error) {
	planned := make([]plannedEdit, 0, len(edits))
	for _, edit := range edits {
		if edit.Pair == nil {
			planned = append(planned, plannedEdit{edit: edit})
			continue
		}
		archiveDate, err := ParseArchiveDate(edit.Pair.Archive)
		if err != nil {
			return RewriteSummary{}, err
		}
		planned = append(planned, plannedEdit{edit: edit, archiveDate: archiveDate})
	}

	var summary RewriteSummary
	for _, plan := range planned {
		if plan.edit.Pair == nil {
			summary.Skipped++
			continue
		}
		applyPair(plan.edit.Record, *plan.edit.Pair, plan.archiveDate)
		summary.Rewritten++
	}
	return summary, nil
}

// applyPair sets the four fields in their fixed order.
func applyPair(record Record, pair URLPair, archiveDate string) {
	template := record.Template
	template.Set(fieldURL, pair.Web)
	template.Set(fieldFormat, formatPDF)
	template.Set(fieldArchiveURL, pair.Archive)
	template.Set(fieldArchiveDate, archiveDate)
}
