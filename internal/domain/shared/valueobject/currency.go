package valueobject

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	CNY Currency = "CNY"
	KES Currency = "KES"
	UGX Currency = "UGX"
	TZS Currency = "TZS"
	RWF Currency = "RWF"
	NGN Currency = "NGN"
	ZAR Currency = "ZAR"
	INR Currency = "INR"
	CAD Currency = "CAD"
	AUD Currency = "AUD"
)

// ReportingCurrency is the default common currency used for cross-tenant
// aggregation and as the exchange-rate reference.
const ReportingCurrency = USD

// SymbolPosition says where the symbol goes when an amount is formatted.
type SymbolPosition string

const (
	SymbolBefore SymbolPosition = "before"
	SymbolAfter  SymbolPosition = "after"
)

// CurrencyInfo describes how amounts in a currency are scaled and displayed.
type CurrencyInfo struct {
	Code           Currency
	Name           string
	Symbol         string
	Scale          int32
	SymbolPosition SymbolPosition
}

var registry = map[Currency]CurrencyInfo{
	USD: {Code: USD, Name: "US Dollar", Symbol: "$", Scale: 2, SymbolPosition: SymbolBefore},
	EUR: {Code: EUR, Name: "Euro", Symbol: "€", Scale: 2, SymbolPosition: SymbolBefore},
	GBP: {Code: GBP, Name: "British Pound", Symbol: "£", Scale: 2, SymbolPosition: SymbolBefore},
	JPY: {Code: JPY, Name: "Japanese Yen", Symbol: "¥", Scale: 0, SymbolPosition: SymbolBefore},
	CNY: {Code: CNY, Name: "Chinese Yuan", Symbol: "¥", Scale: 2, SymbolPosition: SymbolBefore},
	KES: {Code: KES, Name: "Kenyan Shilling", Symbol: "KSh", Scale: 2, SymbolPosition: SymbolBefore},
	UGX: {Code: UGX, Name: "Ugandan Shilling", Symbol: "USh", Scale: 0, SymbolPosition: SymbolBefore},
	TZS: {Code: TZS, Name: "Tanzanian Shilling", Symbol: "TSh", Scale: 2, SymbolPosition: SymbolBefore},
	RWF: {Code: RWF, Name: "Rwandan Franc", Symbol: "FRw", Scale: 0, SymbolPosition: SymbolAfter},
	NGN: {Code: NGN, Name: "Nigerian Naira", Symbol: "₦", Scale: 2, SymbolPosition: SymbolBefore},
	ZAR: {Code: ZAR, Name: "South African Rand", Symbol: "R", Scale: 2, SymbolPosition: SymbolBefore},
	INR: {Code: INR, Name: "Indian Rupee", Symbol: "₹", Scale: 2, SymbolPosition: SymbolBefore},
	CAD: {Code: CAD, Name: "Canadian Dollar", Symbol: "CA$", Scale: 2, SymbolPosition: SymbolBefore},
	AUD: {Code: AUD, Name: "Australian Dollar", Symbol: "A$", Scale: 2, SymbolPosition: SymbolBefore},
}

// ParseCurrency normalizes and validates an ISO 4217 code. Codes outside the
// registry are accepted when golang.org/x/text knows them.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if _, ok := registry[c]; ok {
		return c, nil
	}
	if _, err := currency.ParseISO(string(c)); err != nil {
		return "", fmt.Errorf("unknown currency %q: %w", code, err)
	}
	return c, nil
}

// LookupCurrency returns display and scale information for a currency.
func LookupCurrency(c Currency) (CurrencyInfo, bool) {
	if info, ok := registry[c]; ok {
		return info, true
	}
	unit, err := currency.ParseISO(string(c))
	if err != nil {
		return CurrencyInfo{}, false
	}
	scale, _ := currency.Standard.Rounding(unit)
	return CurrencyInfo{
		Code:           c,
		Name:           string(c),
		Symbol:         string(c),
		Scale:          int32(scale),
		SymbolPosition: SymbolBefore,
	}, true
}

// Scale returns the number of minor-unit digits for the currency, 2 if
// the code is unknown.
func (c Currency) Scale() int32 {
	if info, ok := LookupCurrency(c); ok {
		return info.Scale
	}
	return 2
}

// Round rounds amount half-up to the currency's scale.
func (c Currency) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(c.Scale())
}

// MinorUnit returns the smallest representable amount, e.g. 0.01 for USD.
func (c Currency) MinorUnit() decimal.Decimal {
	return decimal.New(1, -c.Scale())
}

// String returns the ISO code
func (c Currency) String() string {
	return string(c)
}

// SupportedCurrencies returns the registry entries sorted by code.
func SupportedCurrencies() []CurrencyInfo {
	out := make([]CurrencyInfo, 0, len(registry))
	for _, info := range registry {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// FormatAmount renders amount with the currency symbol, e.g. "$1,234.50"
// or "1,500 FRw".
func FormatAmount(amount decimal.Decimal, c Currency) string {
	info, ok := LookupCurrency(c)
	if !ok {
		return fmt.Sprintf("%s %s", amount.StringFixed(2), c)
	}
	rounded := amount.Round(info.Scale)
	neg := rounded.IsNegative()
	body := groupThousands(rounded.Abs().StringFixed(info.Scale))
	var s string
	if info.SymbolPosition == SymbolAfter {
		s = body + " " + info.Symbol
	} else {
		s = info.Symbol + body
	}
	if neg {
		return "-" + s
	}
	return s
}

func groupThousands(s string) string {
	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
