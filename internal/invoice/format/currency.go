package format

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FallbackCurrency is used for codes missing from the table.
const FallbackCurrency = domain.CurrencyINR

// Entry describes how one currency is displayed. Digit grouping and
// separators follow the CLDR data of Locale.
type Entry struct {
	Code   domain.Currency
	Locale language.Tag
	Symbol string
	// SymbolAfter places the symbol after the number, separated by a no-break space.
	SymbolAfter bool

	printer *message.Printer
}

func newEntry(code domain.Currency, locale, symbol string, symbolAfter bool) Entry {
	tag := language.MustParse(locale)
	return Entry{Code: code, Locale: tag, Symbol: symbol, SymbolAfter: symbolAfter, printer: message.NewPrinter(tag)}
}

var table = map[domain.Currency]Entry{
	domain.CurrencyINR: newEntry(domain.CurrencyINR, "en-IN", "₹", false),
	domain.CurrencyUSD: newEntry(domain.CurrencyUSD, "en-US", "$", false),
	domain.CurrencyEUR: newEntry(domain.CurrencyEUR, "de-DE", "€", true),
	domain.CurrencyGBP: newEntry(domain.CurrencyGBP, "en-GB", "£", false),
}

// FallbackRecorder is notified whenever a lookup falls back to a default.
type FallbackRecorder interface {
	ObserveFallback(kind, value string)
}

// Formatter renders money. The fallback to INR for unknown codes is logged.
type Formatter struct {
	log      *zap.Logger
	recorder FallbackRecorder
}

func NewFormatter(log *zap.Logger, recorder FallbackRecorder) *Formatter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Formatter{log: log.Named("invoice.format"), recorder: recorder}
}

var defaultFormatter = NewFormatter(nil, nil)

// Lookup returns the table entry for code. Unlike Format it does not fall back.
func Lookup(code string) (Entry, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(normalized)
	if err != nil {
		return Entry{}, domain.NewValidationError("currency", domain.ErrUnknownCurrency, fmt.Sprintf("%q is not an ISO 4217 code", code))
	}
	entry, ok := table[domain.Currency(unit.String())]
	if !ok {
		return Entry{}, domain.NewValidationError("currency", domain.ErrUnknownCurrency, fmt.Sprintf("%s is not supported", unit))
	}
	return entry, nil
}

// Entry resolves code, falling back to INR.
func (f *Formatter) Entry(code domain.Currency) Entry {
	if entry, ok := table[code]; ok {
		return entry
	}
	if entry, err := Lookup(string(code)); err == nil {
		return entry
	}
	f.log.Warn("unknown currency, falling back",
		zap.String("currency", string(code)),
		zap.String("fallback", string(FallbackCurrency)),
	)
	if f.recorder != nil {
		f.recorder.ObserveFallback("currency", string(code))
	}
	return table[FallbackCurrency]
}

// Format renders amount with locale grouping, symbol and two fractional digits.
func (f *Formatter) Format(amount domain.Money, code domain.Currency) string {
	entry := f.Entry(code)
	whole, frac, negative := amount.Split()

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	if !entry.SymbolAfter {
		b.WriteString(entry.Symbol)
	}
	b.WriteString(entry.number(whole, frac))
	if entry.SymbolAfter {
		b.WriteString("\u00a0")
		b.WriteString(entry.Symbol)
	}
	return b.String()
}

// Symbol returns the bare currency symbol.
func (f *Formatter) Symbol(code domain.Currency) string {
	return f.Entry(code).Symbol
}

// Format renders amount using the default formatter.
func Format(amount domain.Money, code domain.Currency) string {
	return defaultFormatter.Format(amount, code)
}

// Symbol returns the symbol for code using the default formatter.
func Symbol(code domain.Currency) string {
	return defaultFormatter.Symbol(code)
}

// number prints whole exactly as an integer and takes the decimal separator
// and fraction from the locale rendering of 0.ff.
func (e Entry) number(whole, frac uint64) string {
	p := e.printer
	if p == nil {
		p = message.NewPrinter(e.Locale)
	}
	intPart := p.Sprint(number.Decimal(whole))
	fracPart := p.Sprint(number.Decimal(float64(frac)/100, number.Scale(2)))
	return intPart + strings.TrimLeft(fracPart, "0")
}
