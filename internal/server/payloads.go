package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/citations"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/edits"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/mediawiki"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const (
	legacyChoicePrefix = "cite_"
	legacyDOIPrefix    = "doi_"
)

var errIncompleteSelection = errors.New("selection without a choice")

type indexResponsePayload struct {
	Articles []string `json:"articles"`
}

type categoryResponsePayload struct {
	Category string                  `json:"category"`
	Members  []categoryMemberPayload `json:"members"`
}

type categoryMemberPayload struct {
	PageID int64  `json:"page_id"`
	Title  string `json:"title"`
}

type articleResponsePayload struct {
	Title      string            `json:"title"`
	Extract    string            `json:"extract"`
	Categories []categoryPayload `json:"categories"`
	Citations  []citationPayload `json:"citations"`
}

type categoryPayload struct {
	Name   string `json:"name"`
	Hidden bool   `json:"hidden"`
}

type citationPayload struct {
	Ordinal    int                `json:"ordinal"`
	Title      string             `json:"title"`
	DOI        string             `json:"doi"`
	Candidates []candidatePayload `json:"candidates"`
}

type candidatePayload struct {
	Index     int    `json:"index"`
	FileIdent string `json:"file_ident,omitempty"`
	Web       string `json:"web"`
	Archive   string `json:"archive"`
}

type saveRequestPayload struct {
	Selections []citations.Selection `json:"selections"`
}

type saveResponsePayload struct {
	Title     string `json:"title"`
	Wikitext  string `json:"wikitext"`
	Rewritten int    `json:"rewritten"`
	Skipped   int    `json:"skipped"`
}

type historyResponsePayload struct {
	Title string           `json:"title"`
	Edits []historyPayload `json:"edits"`
}

type historyPayload struct {
	ID               string `json:"id"`
	Editor           string `json:"editor"`
	Rewritten        int    `json:"rewritten"`
	Skipped          int    `json:"skipped"`
	AppliedAtSeconds int64  `json:"applied_at_s"`
}

func newCategoryPayload(category string, members []mediawiki.CategoryMember) categoryResponsePayload {
	payload := categoryResponsePayload{Category: category, Members: make([]categoryMemberPayload, 0, len(members))}
	for _, member := range members {
		payload.Members = append(payload.Members, categoryMemberPayload{PageID: member.PageID, Title: member.Title})
	}
	return payload
}

func newArticlePayload(props mediawiki.ArticleProps, presentation citations.Presentation) articleResponsePayload {
	payload := articleResponsePayload{
		Title:      presentation.Title,
		Extract:    props.Extract,
		Categories: make([]categoryPayload, 0, len(props.Categories)),
		Citations:  make([]citationPayload, 0, len(presentation.Records)),
	}
	for _, category := range props.Categories {
		payload.Categories = append(payload.Categories, categoryPayload{Name: category.Name, Hidden: category.Hidden})
	}
	for _, record := range presentation.Records {
		citation := citationPayload{
			Ordinal:    record.Ordinal,
			Title:      record.Title,
			DOI:        record.DOI,
			Candidates: make([]candidatePayload, 0, len(record.Candidates)),
		}
		for _, candidate := range record.Candidates {
			citation.Candidates = append(citation.Candidates, candidatePayload{
				Index:     candidate.Index,
				FileIdent: candidate.FileIdent,
				Web:       candidate.Pair.Web,
				Archive:   candidate.Pair.Archive,
			})
		}
		payload.Citations = append(payload.Citations, citation)
	}
	return payload
}

func newHistoryPayload(title string, records []edits.EditRecord) historyResponsePayload {
	payload := historyResponsePayload{Title: title, Edits: make([]historyPayload, 0, len(records))}
	for _, record := range records {
		payload.Edits = append(payload.Edits, historyPayload{
			ID:               record.ID,
			Editor:           record.Editor,
			Rewritten:        record.Rewritten,
			Skipped:          record.Skipped,
			AppliedAtSeconds: record.AppliedAtSeconds,
		})
	}
	return payload
}

// bindSelections decodes a JSON selection list, or converts the legacy form
// encoding (cite_<n> holding the choice, doi_<n> the expected DOI).
func bindSelections(c *gin.Context) (citations.SelectionBatch, error) {
	if c.ContentType() == binding.MIMEJSON {
		var request saveRequestPayload
		if err := c.ShouldBindJSON(&request); err != nil {
			return nil, err
		}
		return citations.SelectionBatch(request.Selections), nil
	}

	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	return legacySelections(c.Request.PostForm)
}

func legacySelections(form map[string][]string) (citations.SelectionBatch, error) {
	byOrdinal := make(map[int]*citations.Selection)
	hasChoice := make(map[int]bool)
	entry := func(ordinal int) *citations.Selection {
		selection, ok := byOrdinal[ordinal]
		if !ok {
			selection = &citations.Selection{Ordinal: ordinal}
			byOrdinal[ordinal] = selection
		}
		return selection
	}

	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		value := strings.TrimSpace(values[0])
		switch {
		case strings.HasPrefix(key, legacyChoicePrefix):
			ordinal, err := parseOrdinal(key, legacyChoicePrefix)
			if err != nil {
				return nil, err
			}
			choice, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid choice %q", key, value)
			}
			entry(ordinal).Choice = choice
			hasChoice[ordinal] = true
		case strings.HasPrefix(key, legacyDOIPrefix):
			ordinal, err := parseOrdinal(key, legacyDOIPrefix)
			if err != nil {
				return nil, err
			}
			entry(ordinal).DOI = value
		}
	}

	batch := make(citations.SelectionBatch, 0, len(byOrdinal))
	for ordinal, selection := range byOrdinal {
		if !hasChoice[ordinal] {
			return nil, fmt.Errorf("%w: ordinal %d", errIncompleteSelection, ordinal)
		}
		batch = append(batch, *selection)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Ordinal < batch[j].Ordinal })
	return batch, nil
}

func parseOrdinal(key, prefix string) (int, error) {
	ordinal, err := strconv.Atoi(strings.TrimPrefix(key, prefix))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid ordinal", key)
	}
	return ordinal, nil
}

func encodeSelections(batch citations.SelectionBatch) []byte {
	encoded, err := json.Marshal(batch)
	if err != nil {
		return nil
	}
	return encoded
}
