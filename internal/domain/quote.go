package domain

import "strings"

// TagSeparator joins tags inside the category column.
const TagSeparator = ", "

// Quote represents a cleaned quotation with its author.
// This is a domain entity - it has no knowledge of external systems.
type Quote struct {
	// Content is the text of the quote.
	Content string `msgpack:"content"`

	// Author is who said or wrote the quote.
	Author string `msgpack:"author"`

	// Tags are categories or themes associated with the quote.
	Tags []string `msgpack:"tags"`
}

// QuoteFromRecord builds a Quote from a cleaned record.
func QuoteFromRecord(rec *Record) Quote {
	return Quote{
		Content: rec.Quote(),
		Author:  rec.Author(),
		Tags:    SplitTags(rec.Category()),
	}
}

// SplitTags splits a category value into tags. An empty category has no tags.
func SplitTags(category string) []string {
	if category == "" {
		return nil
	}
	return strings.Split(category, TagSeparator)
}

// Category joins the tags back into a category value.
func (q Quote) Category() string {
	return strings.Join(q.Tags, TagSeparator)
}
