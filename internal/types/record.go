package types

import "unicode/utf8"

// Record is one extracted creature: the unit of persisted output.
type Record struct {
	// Name is the display name taken from the page title.
	Name string `json:"name" bson:"name"`

	// Description is the cleaned, version-specific flavor text.
	Description string `json:"description" bson:"description"`

	// URL is the detail page the record was extracted from. It is not part
	// of the persisted row.
	URL string `json:"-" bson:"-"`
}

// DescriptionLen returns the description length in characters.
func (r *Record) DescriptionLen() int {
	return utf8.RuneCountInString(r.Description)
}

// Preview returns at most n characters of the description, for logs.
func (r *Record) Preview(n int) string {
	if utf8.RuneCountInString(r.Description) <= n {
		return r.Description
	}
	return string([]rune(r.Description)[:n])
}

// ToRow returns the record as an ordered (name, description) row.
func (r *Record) ToRow() []string {
	return []string{r.Name, r.Description}
}
