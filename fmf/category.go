package fmf

import (
	"fmt"
	"strings"
)

// Category of extracted records.
type Category int

const (
	CategoryPlayers Category = iota
	CategoryClubs
	CategoryCompetitions
)

// Categories lists all categories in routing order.
var Categories = []Category{CategoryPlayers, CategoryClubs, CategoryCompetitions}

func (c Category) String() string {
	switch c {
	case CategoryPlayers:
		return "players"
	case CategoryClubs:
		return "clubs"
	case CategoryCompetitions:
		return "competitions"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// IDPrefix is used for synthesized record identifiers.
func (c Category) IDPrefix() string {
	switch c {
	case CategoryPlayers:
		return "player"
	case CategoryClubs:
		return "club"
	case CategoryCompetitions:
		return "comp"
	default:
		return "record"
	}
}

// SyntheticID returns identifier of a record without one, index is the
// position of the record in its extracted sequence.
func (c Category) SyntheticID(index int) string {
	return fmt.Sprintf("%s_%d", c.IDPrefix(), index)
}

// CategoryRule tells which entries belong to the category and where its
// records live inside documents.
type CategoryRule struct {
	// Keywords are matched as case-insensitive substrings of entry name.
	Keywords []string
	// Containers are candidate keys of record containers in priority order.
	Containers []string
}

// DefaultRules returns routing rules observed in known database dumps.
func DefaultRules() map[Category]CategoryRule {
	return map[Category]CategoryRule{
		CategoryPlayers: {
			Keywords:   []string{"player"},
			Containers: []string{"player", "record", "person"},
		},
		CategoryClubs: {
			Keywords:   []string{"club", "team"},
			Containers: []string{"club", "team", "record"},
		},
		CategoryCompetitions: {
			Keywords:   []string{"comp", "league"},
			Containers: []string{"competition", "league", "record"},
		},
	}
}

// Router selects categories for archive entries.
type Router struct {
	rules map[Category]CategoryRule
}

// NewRouter creates router, categories absent from rules get default rules.
func NewRouter(rules map[Category]CategoryRule) *Router {
	r := &Router{rules: DefaultRules()}
	for c, rule := range rules {
		if len(rule.Keywords) > 0 || len(rule.Containers) > 0 {
			r.rules[c] = normalizeRule(rule, r.rules[c])
		}
	}
	return r
}

func normalizeRule(rule, def CategoryRule) CategoryRule {
	out := CategoryRule{Keywords: def.Keywords, Containers: def.Containers}
	if len(rule.Keywords) > 0 {
		out.Keywords = make([]string, 0, len(rule.Keywords))
		for _, k := range rule.Keywords {
			out.Keywords = append(out.Keywords, strings.ToLower(k))
		}
	}
	if len(rule.Containers) > 0 {
		out.Containers = append([]string(nil), rule.Containers...)
	}
	return out
}

// Route returns categories whose keywords match entry name. Entry may match
// none, one or several categories.
func (r *Router) Route(name string) []Category {
	lname := strings.ToLower(name)
	var out []Category
	for _, c := range Categories {
		for _, k := range r.rules[c].Keywords {
			if len(k) > 0 && strings.Contains(lname, k) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Containers returns candidate container keys for category.
func (r *Router) Containers(c Category) []string {
	return r.rules[c].Containers
}
