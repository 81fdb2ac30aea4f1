// Package catalog is the single source of truth for action kinds and their
// point values. The registry is append-friendly: new kinds are added here
// without touching any accrual logic.
package catalog

import (
	"fmt"

	"meritbot/domain/entities"
)

// Category partitions the catalog so user-facing selection menus stay within
// the platform's 25-entry page limit.
type Category string

const (
	CategoryDiscipline Category = "discipline"
	CategoryCommunity  Category = "community"
)

// Entry maps an action kind to its point value and human label
type Entry struct {
	Kind     entities.ActionKind
	Points   int64
	Label    string
	Category Category
}

// Registration order is display order inside each category.
var entries = []Entry{
	{Kind: entities.ActionWarn, Points: 2, Label: "Warning", Category: CategoryDiscipline},
	{Kind: entities.ActionMute, Points: 3, Label: "Mute", Category: CategoryDiscipline},
	{Kind: entities.ActionKick, Points: 5, Label: "Kick", Category: CategoryDiscipline},
	{Kind: entities.ActionBan, Points: 10, Label: "Ban", Category: CategoryDiscipline},

	{Kind: entities.ActionWelcome, Points: 1, Label: "Member welcome", Category: CategoryCommunity},
	{Kind: entities.ActionReport, Points: 2, Label: "Report handled", Category: CategoryCommunity},
}

var byKind = func() map[entities.ActionKind]Entry {
	m := make(map[entities.ActionKind]Entry, len(entries))
	for _, e := range entries {
		m[e.Kind] = e
	}
	return m
}()

// Lookup resolves an action kind. Every credit path must call this before
// mutating anything; an unregistered kind is a business error, not a crash.
func Lookup(kind entities.ActionKind) (Entry, error) {
	e, ok := byKind[kind]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", entities.ErrUnknownActionKind, kind)
	}
	return e, nil
}

// ListByCategory returns the entries of one category in registration order
func ListByCategory(cat Category) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Category == cat {
			out = append(out, e)
		}
	}
	return out
}

// IsDiscipline reports whether a kind belongs to the discipline category.
// Unknown kinds are not discipline.
func IsDiscipline(kind entities.ActionKind) bool {
	e, ok := byKind[kind]
	return ok && e.Category == CategoryDiscipline
}

// Kinds returns every registered kind in registration order
func Kinds() []entities.ActionKind {
	out := make([]entities.ActionKind, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Kind)
	}
	return out
}
