package fmf

import (
	"go.uber.org/multierr"
)

// Player is a normalized player record.
type Player struct {
	ID          string  `json:"id" yaml:"id"`
	FirstName   string  `json:"firstName" yaml:"first_name"`
	LastName    string  `json:"lastName" yaml:"last_name"`
	CommonName  *string `json:"commonName,omitempty" yaml:"common_name,omitempty"`
	DateOfBirth string  `json:"dateOfBirth" yaml:"date_of_birth"`
	Nationality string  `json:"nationality" yaml:"nationality"`
	Club        *string `json:"club,omitempty" yaml:"club,omitempty"`
	Position    string  `json:"position" yaml:"position"`
	Ability     int     `json:"ability" yaml:"ability"`
	Potential   int     `json:"potential" yaml:"potential"`
	Value       int64   `json:"value" yaml:"value"`
}

// Club is a normalized club record.
type Club struct {
	ID         string  `json:"id" yaml:"id"`
	Name       string  `json:"name" yaml:"name"`
	ShortName  *string `json:"shortName,omitempty" yaml:"short_name,omitempty"`
	Nation     string  `json:"nation" yaml:"nation"`
	Reputation int     `json:"reputation" yaml:"reputation"`
	Balance    int64   `json:"balance" yaml:"balance"`
	Stadium    *string `json:"stadium,omitempty" yaml:"stadium,omitempty"`
}

// Competition is a normalized competition record.
type Competition struct {
	ID         string  `json:"id" yaml:"id"`
	Name       string  `json:"name" yaml:"name"`
	ShortName  *string `json:"shortName,omitempty" yaml:"short_name,omitempty"`
	Nation     string  `json:"nation" yaml:"nation"`
	Type       string  `json:"type" yaml:"type"`
	Reputation int     `json:"reputation" yaml:"reputation"`
}

// Data is the result of parsing a single archive. It owns all records and
// does not reference archive content.
type Data struct {
	Players      []Player      `json:"players" yaml:"players"`
	Clubs        []Club        `json:"clubs" yaml:"clubs"`
	Competitions []Competition `json:"competitions" yaml:"competitions"`

	// Documents keeps every decoded entry by its name in archive, repeated
	// names get "#2", "#3"... suffixes in archive order.
	Documents map[string]*Node `json:"-" yaml:"-"`
	// Skipped lists entries which could not be decoded, in archive order.
	Skipped []*MalformedDocumentError `json:"-" yaml:"-"`
}

// Err combines errors of all skipped entries, nil when nothing was skipped.
func (d *Data) Err() error {
	if d == nil {
		return nil
	}
	var err error
	for _, e := range d.Skipped {
		err = multierr.Append(err, e)
	}
	return err
}

// Summary holds sizes of the result.
type Summary struct {
	Documents    int `json:"documents" yaml:"documents"`
	Skipped      int `json:"skipped" yaml:"skipped"`
	Players      int `json:"players" yaml:"players"`
	Clubs        int `json:"clubs" yaml:"clubs"`
	Competitions int `json:"competitions" yaml:"competitions"`
}

// Summary returns sizes of all collections.
func (d *Data) Summary() Summary {
	if d == nil {
		return Summary{}
	}
	return Summary{
		Documents:    len(d.Documents),
		Skipped:      len(d.Skipped),
		Players:      len(d.Players),
		Clubs:        len(d.Clubs),
		Competitions: len(d.Competitions),
	}
}
