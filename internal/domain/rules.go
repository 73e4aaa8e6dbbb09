package domain

import "strings"

// DefaultMaxAuthorSpaces is the largest number of spaces an author name may hold.
// Longer names are usually several names or garbage glued together.
const DefaultMaxAuthorSpaces = 4

// DefaultForbiddenTags returns the category substrings that reject a record.
func DefaultForbiddenTags() []string {
	return []string{"kink", "bdsm", "erotic", "sex"}
}

// RejectReason explains why a record was dropped. The zero value means the record is valid.
type RejectReason string

// Reasons a record can be dropped.
const (
	RejectNone                RejectReason = ""
	RejectEmptyAuthor         RejectReason = "empty_author"
	RejectEmptyQuote          RejectReason = "empty_quote"
	RejectForbiddenTag        RejectReason = "forbidden_tag"
	RejectAuthorTooManySpaces RejectReason = "author_too_many_spaces"
)

// Rules holds the filtering parameters applied to parsed records.
type Rules struct {
	// ForbiddenTags are matched as case-sensitive substrings of the category field.
	ForbiddenTags []string

	// MaxAuthorSpaces is the largest number of space characters allowed in the author.
	MaxAuthorSpaces int
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		ForbiddenTags:   DefaultForbiddenTags(),
		MaxAuthorSpaces: DefaultMaxAuthorSpaces,
	}
}

// Check returns why the record fails the rules, or RejectNone if it passes.
func (r Rules) Check(rec *Record) RejectReason {
	author := rec.Author()

	switch {
	case author == "":
		return RejectEmptyAuthor
	case rec.Quote() == "":
		return RejectEmptyQuote
	case containsAny(rec.Category(), r.ForbiddenTags):
		return RejectForbiddenTag
	case strings.Count(author, " ") > r.MaxAuthorSpaces:
		return RejectAuthorTooManySpaces
	default:
		return RejectNone
	}
}

// ValidateRecord reports whether a parsed record should be kept,
// using the default author space limit.
func ValidateRecord(rec *Record, forbiddenTags []string) bool {
	rules := Rules{ForbiddenTags: forbiddenTags, MaxAuthorSpaces: DefaultMaxAuthorSpaces}
	return rules.Check(rec) == RejectNone
}

// ParseRecord cleans the author and quote fields of rec in place and returns it.
func ParseRecord(rec *Record) *Record {
	rec.Set(FieldAuthor, NormalizeAuthor(rec.Author()))
	rec.Set(FieldQuote, NormalizeSentence(strings.TrimSpace(rec.Quote())))
	return rec
}

// NormalizeAuthor trims an author name, collapses doubled spacing and
// drops everything from the first comma on ("Last, First", ", Jr.").
func NormalizeAuthor(author string) string {
	author = strings.TrimSpace(author)

	if strings.Contains(author, "  ") {
		author = strings.Join(strings.Fields(author), " ")
	}

	if before, _, found := strings.Cut(author, ","); found {
		author = before
	}

	return strings.TrimSpace(author)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
