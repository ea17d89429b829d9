package internal

import (
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultCurrency is used when neither config, flags nor the locale name one.
const DefaultCurrency = "USD"

// Currency represents a currency with its formatting rules
type Currency struct {
	Code    string // "SEK", "USD", "EUR"
	unit    currency.Unit
	symbol  string
	prefix  bool
	printer *message.Printer
}

// symbolOverrides provides custom symbols where x/text defaults aren't ideal
var symbolOverrides = map[string]string{
	"SEK": "kr",
	"NOK": "kr",
	"DKK": "kr",
	"ISK": "kr",
}

// defaultLocaleForCurrency provides fallback locales when a currency is
// requested without a matching system locale.
var defaultLocaleForCurrency = map[string]language.Tag{
	"SEK": language.Swedish,
	"USD": language.AmericanEnglish,
	"EUR": language.German,
	"GBP": language.BritishEnglish,
	"NOK": language.Norwegian,
	"DKK": language.Danish,
	"CHF": language.German,
	"JPY": language.Japanese,
	"CAD": language.CanadianFrench,
	"AUD": language.MustParse("en-AU"),
	"BRL": language.BrazilianPortuguese,
	"MXN": language.LatinAmericanSpanish,
	"INR": language.MustParse("en-IN"),
	"CNY": language.Chinese,
	"PLN": language.Polish,
	"CZK": language.Czech,
	"ZAR": language.MustParse("en-ZA"),
	"NZD": language.MustParse("en-NZ"),
	"SGD": language.MustParse("en-SG"),
}

// x/text does not expose CLDR symbol placement, so prefix currencies are listed by hand.
var prefixCurrencies = map[string]bool{
	"USD": true, "GBP": true, "JPY": true, "CAD": true, "AUD": true,
	"MXN": true, "HKD": true, "SGD": true, "NZD": true, "ZAR": true,
}

// GetCurrency returns the Currency for code formatted in its home locale.
func GetCurrency(code string) Currency {
	code = strings.ToUpper(code)
	tag, ok := defaultLocaleForCurrency[code]
	if !ok {
		tag = language.English
	}
	return GetCurrencyWithLocale(code, tag)
}

// GetCurrencyWithLocale returns a Currency with a specific locale for formatting.
// Unknown codes format numbers in tag and use the code itself as symbol.
func GetCurrencyWithLocale(code string, tag language.Tag) Currency {
	code = strings.ToUpper(code)
	c := Currency{
		Code:    code,
		prefix:  prefixCurrencies[code],
		printer: message.NewPrinter(tag),
	}

	unit, err := currency.ParseISO(code)
	switch {
	case err != nil:
		c.unit = currency.USD
		c.symbol = code
	case symbolOverrides[code] != "":
		c.unit = unit
		c.symbol = symbolOverrides[code]
	default:
		c.unit = unit
		c.symbol = c.printer.Sprint(currency.NarrowSymbol(unit))
	}
	return c
}

// ResolveCurrency picks the display currency. An explicit code wins; it is
// formatted in the system locale when that locale uses the same currency.
// Without a code the system locale decides, falling back to DefaultCurrency.
func ResolveCurrency(code string) Currency {
	detected, tag := DetectSystemCurrency()
	if code == "" {
		if detected == "" {
			return GetCurrency(DefaultCurrency)
		}
		return GetCurrencyWithLocale(detected, tag)
	}
	if strings.EqualFold(code, detected) {
		return GetCurrencyWithLocale(code, tag)
	}
	return GetCurrency(code)
}

func (c Currency) withSymbol(formatted string) string {
	if c.prefix {
		return c.symbol + formatted
	}
	return formatted + " " + c.symbol
}

// Format formats a whole amount with the currency symbol
func (c Currency) Format(amount float64) string {
	return c.withSymbol(c.printer.Sprint(number.Decimal(amount, number.MaxFractionDigits(0))))
}

// FormatCents formats amount with exactly two fraction digits.
func (c Currency) FormatCents(amount float64) string {
	return c.withSymbol(c.printer.Sprint(number.Decimal(amount,
		number.MinFractionDigits(2), number.MaxFractionDigits(2))))
}

// FormatRange formats a range of amounts (min-max) with the currency symbol
func (c Currency) FormatRange(min, max float64) string {
	minStr := c.printer.Sprint(number.Decimal(min, number.MaxFractionDigits(0)))
	maxStr := c.printer.Sprint(number.Decimal(max, number.MaxFractionDigits(0)))
	if c.prefix {
		return c.symbol + minStr + "-" + c.symbol + maxStr
	}
	return minStr + "-" + maxStr + " " + c.symbol
}

// FormatAmountRange renders a possibly half-open amount range for headings.
func (c Currency) FormatAmountRange(r AmountRange) string {
	switch {
	case r.Min != nil && r.Max != nil:
		return c.FormatRange(*r.Min, *r.Max)
	case r.Min != nil:
		return ">= " + c.Format(*r.Min)
	case r.Max != nil:
		return "<= " + c.Format(*r.Max)
	default:
		return "any amount"
	}
}
