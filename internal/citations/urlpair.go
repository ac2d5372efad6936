package citations

import "github.com/MarcoPoloResearchLab/linkrot/backend/internal/archival"

// URLPair is a live URL and its archived copy.
type URLPair struct {
	Web     string `json:"web"`
	Archive string `json:"archive"`
}

// MatchURLPair recovers the (live, archived) pair of one file. Only a file with
// exactly two URLs, exactly one of them tagged webarchive, yields a pair;
// anything more ambiguous is never matched automatically.
func MatchURLPair(urls []archival.URLRecord) (URLPair, bool) {
	if len(urls) != 2 {
		return URLPair{}, false
	}

	byRel := make(map[string][]string, 2)
	for _, record := range urls {
		byRel[record.Rel] = append(byRel[record.Rel], record.URL)
	}
	archives := byRel[archival.RelWebarchive]
	if len(archives) != 1 {
		return URLPair{}, false
	}

	pair := URLPair{Archive: archives[0]}
	for _, record := range urls {
		if record.Rel != archival.RelWebarchive {
			pair.Web = record.URL
		}
	}
	if pair.Web == pair.Archive {
		return URLPair{}, false
	}
	return pair, true
}
