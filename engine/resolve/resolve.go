// Package resolve maps names typed by the player to keyword, contact and
// anomaly IDs.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/nathoo/echoes/engine/state"
	"github.com/nathoo/echoes/types"
)

// AmbiguityError indicates multiple candidates matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	names := strings.Join(e.Candidates, ", ")
	return fmt.Sprintf("which %s? (%s)", e.Name, names)
}

// NotFoundError indicates no candidate matched a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("nothing called %q here", e.Name)
}

// candidate is a resolvable id with its display name.
type candidate struct {
	id   string
	name string
}

// Keyword resolves name to a keyword marked up in text or already known to
// the player.
func Keyword(c *state.Content, s *types.PlayerState, text, name string) (string, error) {
	var cands []candidate
	seen := map[string]bool{}
	add := func(id string) {
		if seen[id] {
			return
		}
		if def, ok := c.Keywords[id]; ok {
			seen[id] = true
			cands = append(cands, candidate{id: id, name: def.Title})
		}
	}
	for _, id := range MarkedKeywords(text) {
		add(id)
	}
	for _, id := range s.KnownKeywords {
		add(id)
	}
	return resolveName(cands, name)
}

// Contact resolves name to a contact with a message thread.
func Contact(s *types.PlayerState, name string) (string, error) {
	var cands []candidate
	for _, contact := range state.SortedKeys(s.MessageHistory) {
		cands = append(cands, candidate{id: contact, name: contact})
	}
	return resolveName(cands, name)
}

// Anomaly resolves name among the given anomaly ids.
func Anomaly(c *state.Content, ids []string, name string) (string, error) {
	var cands []candidate
	for _, id := range ids {
		if def, ok := c.Anomalies[id]; ok {
			cands = append(cands, candidate{id: id, name: def.Title})
		}
	}
	return resolveName(cands, name)
}

// MarkedKeywords returns the keyword ids referenced by
// <span class="keyword" data-id="..."> elements in markup, in order of
// first appearance.
func MarkedKeywords(markup string) []string {
	var ids []string
	seen := map[string]bool{}
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return ids
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		var id string
		keyword := false
		for _, a := range tok.Attr {
			switch a.Key {
			case "data-id":
				id = a.Val
			case "class":
				for _, cls := range strings.Fields(a.Val) {
					if cls == "keyword" {
						keyword = true
					}
				}
			}
		}
		if keyword && id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
}

// resolveName matches name against candidates: exact id first, then
// case-insensitive name, name word or underscore-normalized id.
func resolveName(cands []candidate, name string) (string, error) {
	for _, c := range cands {
		if c.id == name {
			return c.id, nil
		}
	}

	nameLower := strings.ToLower(strings.TrimSpace(name))
	var matches []string
	for _, c := range cands {
		if matchesName(c, nameLower) {
			matches = append(matches, c.id)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Name: name}
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", &AmbiguityError{Name: name, Candidates: matches}
	}
}

// matchesName checks a candidate against a lowercased query. Supports exact
// match, word-based partial match and id match.
func matchesName(c candidate, nameLower string) bool {
	if nameLower == "" {
		return false
	}
	display := strings.ToLower(c.name)
	if display == nameLower {
		return true
	}
	// "mirror" matches "The Hallway Mirror".
	for _, word := range strings.Fields(display) {
		if word == nameLower {
			return true
		}
	}
	idLower := strings.ToLower(c.id)
	if idLower == nameLower {
		return true
	}
	// "clock stopped" matches id "clock_stopped".
	return strings.ReplaceAll(nameLower, " ", "_") == idLower
}
