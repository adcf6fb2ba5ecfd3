package loader

import (
	"golang.org/x/text/language"

	"github.com/nathoo/echoes/engine/state"
)

// MatchLocale picks the locale table that best serves want (a BCP 47
// tag). An empty want, or one with no reasonable match, selects the
// game's default locale.
func MatchLocale(c *state.Content, want string) string {
	def := c.Game.DefaultLocale
	if want == "" || len(c.Locales) == 0 {
		return def
	}

	keys := make([]string, 0, len(c.Locales))
	if _, ok := c.Locales[def]; ok {
		keys = append(keys, def)
	}
	for _, k := range state.SortedKeys(c.Locales) {
		if k != def {
			keys = append(keys, k)
		}
	}

	tags := make([]language.Tag, 0, len(keys))
	for _, k := range keys {
		tags = append(tags, language.Make(k))
	}

	wantTag, err := language.Parse(want)
	if err != nil {
		return def
	}
	_, idx, conf := language.NewMatcher(tags).Match(wantTag)
	if conf == language.No {
		return def
	}
	return keys[idx]
}
