// Package archival resolves DOIs against the fatcat release index, which
// records archived copies of scholarly works.
package archival

// RelWebarchive tags a URL that points at a web archive snapshot.
const RelWebarchive = "webarchive"

// Item is a resolved release with the files known to hold copies of it.
type Item struct {
	Ident string `json:"ident"`
	Title string `json:"title"`
	Files []File `json:"files"`
}

// File is one stored copy of a release.
type File struct {
	Ident    string      `json:"ident"`
	Mimetype string      `json:"mimetype"`
	URLs     []URLRecord `json:"urls"`
}

// URLRecord is one location of a file together with its relation tag.
type URLRecord struct {
	URL string `json:"url"`
	Rel string `json:"rel"`
}
