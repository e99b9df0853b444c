package format

import (
	"context"
	"math"
	"math/rand/v2"
	"regexp"
	"testing"
	"time"

	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		name     string
		amount   domain.Money
		currency domain.Currency
		want     string
	}{
		{name: "usd", amount: 123450, currency: domain.CurrencyUSD, want: "$1,234.50"},
		{name: "inr_small", amount: 123450, currency: domain.CurrencyINR, want: "₹1,234.50"},
		{name: "inr_lakh", amount: 1234567890, currency: domain.CurrencyINR, want: "₹1,23,45,678.90"},
		{name: "eur", amount: 123450, currency: domain.CurrencyEUR, want: "1.234,50\u00a0€"},
		{name: "gbp", amount: 5, currency: domain.CurrencyGBP, want: "£0.05"},
		{name: "usd_million", amount: 100000000, currency: domain.CurrencyUSD, want: "$1,000,000.00"},
		{name: "negative", amount: -29500, currency: domain.CurrencyUSD, want: "-$295.00"},
		{name: "zero", amount: 0, currency: domain.CurrencyEUR, want: "0,00\u00a0€"},
		{name: "inr_locale_grouping", amount: 123456750, currency: domain.CurrencyINR, want: "₹12,34,567.50"},
		{name: "eur_locale_grouping", amount: 123456750, currency: domain.CurrencyEUR, want: "1.234.567,50\u00a0€"},
		{name: "gbp_locale_grouping", amount: 123456750, currency: domain.CurrencyGBP, want: "£1,234,567.50"},
		{name: "max_amount_exact", amount: math.MaxInt64, currency: domain.CurrencyUSD, want: "$92,233,720,368,547,758.07"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Format(tc.amount, tc.currency))
		})
	}
}

func TestFormat_Deterministic(t *testing.T) {
	assert.Contains(t, Format(123450, domain.CurrencyUSD), "$1,234.50")
	assert.Contains(t, Format(123450, domain.CurrencyINR), "₹")
	assert.Equal(t, Format(123450, domain.CurrencyINR), Format(123450, domain.CurrencyINR))
}

type recorderStub struct {
	kinds  []string
	values []string
}

func (r *recorderStub) ObserveFallback(kind, value string) {
	r.kinds = append(r.kinds, kind)
	r.values = append(r.values, value)
}

func TestFormat_UnknownCurrencyFallsBackToINR(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	rec := &recorderStub{}
	f := NewFormatter(zap.New(core), rec)

	assert.Equal(t, "₹1,234.50", f.Format(123450, "JPY"))
	assert.Equal(t, "₹", f.Symbol("XYZ"))

	assert.Equal(t, 2, logs.FilterMessage("unknown currency, falling back").Len())
	assert.Equal(t, []string{"currency", "currency"}, rec.kinds)
	assert.Equal(t, []string{"JPY", "XYZ"}, rec.values)
}

func TestFormat_LowercaseCodeIsNotAFallback(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	f := NewFormatter(zap.New(core), nil)
	assert.Equal(t, "£10.00", f.Format(1000, "gbp"))
	assert.Zero(t, logs.Len())
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "₹", Symbol(domain.CurrencyINR))
	assert.Equal(t, "$", Symbol(domain.CurrencyUSD))
	assert.Equal(t, "€", Symbol(domain.CurrencyEUR))
	assert.Equal(t, "£", Symbol(domain.CurrencyGBP))
}

func TestLookup(t *testing.T) {
	entry, err := Lookup("eur")
	require.NoError(t, err)
	assert.Equal(t, "de-DE", entry.Locale.String())

	_, err = Lookup("JPY")
	assert.ErrorIs(t, err, domain.ErrUnknownCurrency)
	_, err = Lookup("??")
	assert.ErrorIs(t, err, domain.ErrUnknownCurrency)
}

var numberPattern = regexp.MustCompile(`^INV-\d{6}-\d{3}$`)

func TestNextInvoiceNumber(t *testing.T) {
	now := time.Date(2024, time.March, 7, 12, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		got := NextInvoiceNumber(now, rng)
		require.Regexp(t, numberPattern, got)
		assert.Equal(t, "INV-202403-", got[:11])
	}
	assert.Regexp(t, numberPattern, NextInvoiceNumber(now, nil))
}

func TestFormatInvoiceNumber(t *testing.T) {
	issued := time.Date(2025, time.January, 9, 0, 0, 0, 0, time.UTC)

	got, err := FormatInvoiceNumber("INV-{YYYY}{MM}{DD}-{SEQ6}", issued, 42)
	require.NoError(t, err)
	assert.Equal(t, "INV-20250109-000042", got)

	got, err = FormatInvoiceNumber("{YY}/{SEQ}", issued, 7)
	require.NoError(t, err)
	assert.Equal(t, "25/7", got)

	_, err = FormatInvoiceNumber("", issued, 1)
	assert.Error(t, err)
	_, err = FormatInvoiceNumber("INV-{SEQ}", issued, -1)
	assert.Error(t, err)
	_, err = FormatInvoiceNumber("INV-{WEEK}", issued, 1)
	assert.Error(t, err)
}

type counterStub struct {
	keys []string
	next int64
}

func (c *counterStub) NextSequence(_ context.Context, key string) (int64, error) {
	c.keys = append(c.keys, key)
	c.next++
	return c.next, nil
}

func TestSequenceGenerator(t *testing.T) {
	counter := &counterStub{}
	gen := NewSequenceGenerator(counter, "")
	now := time.Date(2024, time.November, 30, 23, 0, 0, 0, time.UTC)

	first, err := gen.Next(context.Background(), now)
	require.NoError(t, err)
	second, err := gen.Next(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, "INV-202411-001", first)
	assert.Equal(t, "INV-202411-002", second)
	assert.Equal(t, []string{"invoice:202411", "invoice:202411"}, counter.keys)
}

func TestSequenceGenerator_StopsAtTemplateWidth(t *testing.T) {
	counter := &counterStub{}
	gen := NewSequenceGenerator(counter, "")
	now := time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^INV-\d{6}-\d{3}$`)

	counter.next = 998
	last, err := gen.Next(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, "INV-202610-999", last)
	assert.Regexp(t, pattern, last)

	_, err = gen.Next(context.Background(), now)
	assert.ErrorIs(t, err, domain.ErrInvoiceNumbersExhausted)

	wide, err := FormatInvoiceNumber("INV-{YYYY}{MM}-{SEQ4}", now, 1000)
	require.NoError(t, err)
	assert.Equal(t, "INV-202610-1000", wide)

	plain, err := FormatInvoiceNumber("INV-{SEQ}", now, 123456)
	require.NoError(t, err)
	assert.Equal(t, "INV-123456", plain)
}
