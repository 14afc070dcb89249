package concierge

import "golang.org/x/text/language"

type Locale string

const (
	French  Locale = "fr"
	English Locale = "en"
)

var (
	supported = []language.Tag{language.French, language.English}
	locales   = []Locale{French, English}
	matcher   = language.NewMatcher(supported)
)

// NegotiateLocale picks fr or en from an explicit choice first, then an
// Accept-Language header. Anything unusable falls back to French.
func NegotiateLocale(explicit, acceptLanguage string) Locale {
	for _, raw := range []string{explicit, acceptLanguage} {
		if raw == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(raw)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, conf := matcher.Match(tags...)
		if conf == language.No {
			continue
		}
		return locales[idx]
	}
	return French
}
