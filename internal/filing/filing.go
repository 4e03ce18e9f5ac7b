// Package filing defines the typed document model shared across the
// service: extracted pages, structural anchors, sliced sections, and the
// analysis result assembled from them.
package filing

// Page is one page of extracted text. Page numbers are 1-based and blank
// pages are preserved so that structural offsets stay aligned with the
// source document.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// Anchor marks an item heading found in the page text, e.g. "Item 7A.".
// Offset is the byte offset of the heading within its page.
type Anchor struct {
	Item   string `json:"item"`
	Title  string `json:"title"`
	Page   int    `json:"page"`
	Offset int    `json:"pos"`
}

// PageContent is one page's contribution to a section. Snippet is always
// set; Full carries the complete page text only when the slicer had it.
type PageContent struct {
	Page    int    `json:"page"`
	Snippet string `json:"snippet"`
	Full    string `json:"full,omitempty"`
}

// Section is a contiguous page range under one item heading.
type Section struct {
	Title     string        `json:"title"`
	StartPage int           `json:"start_page"`
	EndPage   int           `json:"end_page"`
	Content   []PageContent `json:"content"`
}

// PageRange lists the pages a section covers, used by the per-title index.
type PageRange struct {
	Pages []int `json:"pages"`
}

// Citation is a short page-level excerpt used for report attribution.
type Citation struct {
	Page    int    `json:"page"`
	Snippet string `json:"snippet"`
}

// DocMeta summarizes what the structural pass saw.
type DocMeta struct {
	Pages        int    `json:"pages"`
	DocType      string `json:"doc_type"`
	AnchorsFound int    `json:"anchors_found"`
}
