package mediawiki

import "fmt"

// ArticleProps summarises an article for display.
type ArticleProps struct {
	Title      string
	Extract    string
	Categories []Category
}

// Category is one category an article belongs to.
type Category struct {
	Name   string
	Hidden bool
}

// CategoryMember is one article listed in a category.
type CategoryMember struct {
	PageID int64
	Title  string
}

type queryReply struct {
	Query *queryBody `json:"query"`
}

type queryBody struct {
	Pages           []page           `json:"pages"`
	CategoryMembers []categoryMember `json:"categorymembers"`
}

type page struct {
	PageID     int64          `json:"pageid"`
	Title      string         `json:"title"`
	Missing    bool           `json:"missing"`
	Extract    string         `json:"extract"`
	Revisions  []revision     `json:"revisions"`
	Categories []pageCategory `json:"categories"`
}

type revision struct {
	Content string `json:"content"`
	Slots   struct {
		Main struct {
			Content string `json:"content"`
		} `json:"main"`
	} `json:"slots"`
}

func (r revision) text() string {
	if r.Slots.Main.Content != "" {
		return r.Slots.Main.Content
	}
	return r.Content
}

type pageCategory struct {
	Title  string `json:"title"`
	Hidden bool   `json:"hidden"`
}

type categoryMember struct {
	PageID int64  `json:"pageid"`
	Title  string `json:"title"`
}

func (r queryReply) firstPage() (page, error) {
	if len(r.Query.Pages) == 0 {
		return page{}, fmt.Errorf("%w: reply has no pages", ErrUnexpectedResponse)
	}
	return r.Query.Pages[0], nil
}
