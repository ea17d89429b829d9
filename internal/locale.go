package internal

import (
	"os"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// localeEnvVars are checked in order; LC_MONETARY is the most specific.
var localeEnvVars = []string{"LC_MONETARY", "LC_ALL", "LANG"}

// detectSystemLocale returns the first usable POSIX locale from the
// environment, or "" when none is set.
func detectSystemLocale() string {
	for _, envVar := range localeEnvVars {
		locale := os.Getenv(envVar)
		if locale != "" && locale != "C" && locale != "POSIX" {
			return locale
		}
	}
	return ""
}

// parseCurrencyFromLocale extracts currency code and language tag from a locale string.
// Examples: "sv_SE.UTF-8" -> ("SEK", sv-SE), "pt_BR.UTF-8" -> ("BRL", pt-BR)
func parseCurrencyFromLocale(locale string) (string, language.Tag) {
	base := locale
	if idx := strings.IndexAny(base, ".@"); idx != -1 {
		base = base[:idx]
	}

	tag, err := language.Parse(strings.Replace(base, "_", "-", 1))
	if err != nil {
		return "", language.Und
	}

	_, _, region := tag.Raw()
	if region.String() == "" || region.String() == "ZZ" {
		return "", language.Und
	}

	unit, ok := currency.FromRegion(region)
	if !ok {
		return "", language.Und
	}
	return unit.String(), tag
}

// DetectSystemCurrency returns the currency and formatting locale implied by
// the environment. The code is "" when nothing could be detected.
func DetectSystemCurrency() (string, language.Tag) {
	locale := detectSystemLocale()
	if locale == "" {
		return "", language.Und
	}
	return parseCurrencyFromLocale(locale)
}
