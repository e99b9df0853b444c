package format

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
)

var (
	seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)
)

// DefaultInvoiceNumberTemplate yields INV-YYYYMM-NNN.
const DefaultInvoiceNumberTemplate = "INV-{YYYY}{MM}-{SEQ3}"

// FormatInvoiceNumber formats a human-readable invoice number
// based on a template, invoice issue time, and sequence value.
// A {SEQn} token is both the padding and the maximum width: a sequence with
// more than n digits fails with ErrInvoiceNumbersExhausted.
//
// This function is PURE:
// - No side effects
// - No storage access
// - Fully deterministic
func FormatInvoiceNumber(
	template string,
	issuedAt time.Time,
	seq int64,
) (string, error) {

	if template == "" {
		return "", fmt.Errorf("invoice number template is empty")
	}

	if seq < 0 {
		return "", fmt.Errorf("invalid invoice sequence: %d", seq)
	}

	out := template

	// Date tokens
	out = strings.ReplaceAll(out, "{YYYY}", issuedAt.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", issuedAt.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", issuedAt.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", issuedAt.Format("02"))

	// Simple sequence
	out = strings.ReplaceAll(out, "{SEQ}", strconv.FormatInt(seq, 10))

	// Padded sequence
	var overflow error
	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		if len(match) != 2 {
			return m
		}

		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}

		padded := fmt.Sprintf("%0*d", width, seq)
		if len(padded) > width {
			overflow = fmt.Errorf("%w: sequence %d exceeds %d digits", domain.ErrInvoiceNumbersExhausted, seq, width)
		}
		return padded
	})
	if overflow != nil {
		return "", overflow
	}

	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}

	return out, nil
}

// NextInvoiceNumber returns INV-YYYYMM-DDD with DDD drawn uniformly from
// [0,999]. Numbers are not unique; use SequenceGenerator where collisions matter.
func NextInvoiceNumber(now time.Time, rng *rand.Rand) string {
	var n int
	if rng == nil {
		n = rand.IntN(1000)
	} else {
		n = rng.IntN(1000)
	}
	out, _ := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, now, int64(n))
	return out
}

// NumberGenerator produces display numbers for new invoices.
type NumberGenerator interface {
	Next(ctx context.Context, now time.Time) (string, error)
}

// RandomGenerator is the legacy scheme backed by NextInvoiceNumber.
type RandomGenerator struct {
	rng *rand.Rand
}

func NewRandomGenerator(rng *rand.Rand) *RandomGenerator {
	return &RandomGenerator{rng: rng}
}

func (g *RandomGenerator) Next(_ context.Context, now time.Time) (string, error) {
	return NextInvoiceNumber(now, g.rng), nil
}

// Counter is a monotonic counter scoped by key.
type Counter interface {
	NextSequence(ctx context.Context, key string) (int64, error)
}

// SequenceGenerator numbers invoices from a per-month counter, so numbers are
// unique as long as the counter is.
type SequenceGenerator struct {
	counter  Counter
	template string
}

func NewSequenceGenerator(counter Counter, template string) *SequenceGenerator {
	if template == "" {
		template = DefaultInvoiceNumberTemplate
	}
	return &SequenceGenerator{counter: counter, template: template}
}

func (g *SequenceGenerator) Next(ctx context.Context, now time.Time) (string, error) {
	seq, err := g.counter.NextSequence(ctx, "invoice:"+now.Format("200601"))
	if err != nil {
		return "", fmt.Errorf("next invoice sequence: %w", err)
	}
	return FormatInvoiceNumber(g.template, now, seq)
}
