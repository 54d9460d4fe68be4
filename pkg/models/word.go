package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// YearGroup is the curriculum year a word is aimed at
type YearGroup string

const (
	Year3 YearGroup = "Year 3"
	Year4 YearGroup = "Year 4"
	Year5 YearGroup = "Year 5"
	Year6 YearGroup = "Year 6"
)

// YearGroups lists every accepted year group in curriculum order
var YearGroups = []YearGroup{Year3, Year4, Year5, Year6}

// Valid reports whether y is one of the known year groups
func (y YearGroup) Valid() bool {
	for _, g := range YearGroups {
		if g == y {
			return true
		}
	}
	return false
}

// ParseYearGroup accepts "Year 4", "year4", "Y4" or a bare "4"
func ParseYearGroup(s string) (YearGroup, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "year")
	s = strings.TrimPrefix(s, "y")
	s = strings.TrimSpace(s)
	y := YearGroup("Year " + s)
	if !y.Valid() {
		return "", false
	}
	return y, true
}

// StringList is a list of strings stored as a JSON array in a text column
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported type for StringList: %T", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to parse string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// Word is an entry of the shared word bank
type Word struct {
	ID            string     `json:"id" db:"id"`
	Word          string     `json:"word" db:"word"` // Unique surface form
	Definition    string     `json:"definition" db:"definition"`
	Root          *string    `json:"root,omitempty" db:"root"`
	Origin        *string    `json:"origin,omitempty" db:"origin"`
	Synonyms      StringList `json:"synonyms" db:"synonyms"`
	Antonyms      StringList `json:"antonyms" db:"antonyms"`
	Example       string     `json:"example" db:"example"`
	YearGroup     YearGroup  `json:"year_group" db:"year_group"`
	LearningPoint string     `json:"learning_point" db:"learning_point"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// WordDraft holds the fields of a word before it is stored, e.g. as returned by the AI gateway
type WordDraft struct {
	Word          string    `json:"word"`
	Definition    string    `json:"definition"`
	Root          string    `json:"root,omitempty"`
	Origin        string    `json:"origin,omitempty"`
	Synonyms      []string  `json:"synonyms"`
	Antonyms      []string  `json:"antonyms"`
	Example       string    `json:"example"`
	YearGroup     YearGroup `json:"year_group"`
	LearningPoint string    `json:"learning_point"`
}

// ToWord converts a draft into a storable word
func (d WordDraft) ToWord() *Word {
	w := &Word{
		Word:          d.Word,
		Definition:    d.Definition,
		Synonyms:      StringList(d.Synonyms),
		Antonyms:      StringList(d.Antonyms),
		Example:       d.Example,
		YearGroup:     d.YearGroup,
		LearningPoint: d.LearningPoint,
	}
	if d.Root != "" {
		root := d.Root
		w.Root = &root
	}
	if d.Origin != "" {
		origin := d.Origin
		w.Origin = &origin
	}
	if w.Synonyms == nil {
		w.Synonyms = StringList{}
	}
	if w.Antonyms == nil {
		w.Antonyms = StringList{}
	}
	return w
}
