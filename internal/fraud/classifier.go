// Package fraud classifies a single order's payment and checkout fields.
// Classification is pure: it never looks at other orders and has no side
// effects, so it is safe to call concurrently and repeatedly.
package fraud

import (
	"strconv"
	"strings"
	"time"

	"github.com/bookverse/order-intake/internal/clock"
	"github.com/bookverse/order-intake/internal/domain"
)

const (
	minCardDigits = 10
	maxCardDigits = 19

	// Cards claiming to expire further out than this are treated as
	// malformed rather than valid.
	maxExpiryHorizon = 25 * 365 * 24 * time.Hour
)

// Rejection reasons, kept for the audit trail. Never shown to the end user.
const (
	ReasonCardFormat     = "card number format"
	ReasonCardExpired    = "card expired"
	ReasonBadExpiry      = "expiration date format"
	ReasonBadCVV         = "cvv format"
	ReasonMissingContact = "missing contact info"
)

type Classifier struct {
	clock          clock.Clock
	requireContact bool
}

type Option func(*Classifier)

// WithRequireContact controls whether a missing customer contact marks the
// order as fraud-adjacent. Business rule, so it is configurable.
func WithRequireContact(v bool) Option {
	return func(c *Classifier) {
		c.requireContact = v
	}
}

func New(clk clock.Clock, opts ...Option) *Classifier {
	c := &Classifier{
		clock:          clk,
		requireContact: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the verdict for one order together with the first
// rejection reason found. Legit verdicts carry an empty reason.
func (c *Classifier) Classify(o domain.Order) (domain.FraudVerdict, string) {
	if !allDigits(o.Payment.Number) ||
		len(o.Payment.Number) < minCardDigits || len(o.Payment.Number) > maxCardDigits {
		return domain.VerdictFraudulent, ReasonCardFormat
	}

	exp, ok := parseExpiration(o.Payment.Expiration)
	if !ok {
		return domain.VerdictFraudulent, ReasonBadExpiry
	}
	now := c.clock.Now()
	if exp.Before(now) {
		return domain.VerdictFraudulent, ReasonCardExpired
	}
	if exp.Sub(now) > maxExpiryHorizon {
		return domain.VerdictFraudulent, ReasonBadExpiry
	}

	if !allDigits(o.Payment.CVV) || (len(o.Payment.CVV) != 3 && len(o.Payment.CVV) != 4) {
		return domain.VerdictFraudulent, ReasonBadCVV
	}

	if c.requireContact && strings.TrimSpace(o.Customer.Contact) == "" {
		return domain.VerdictFraudulent, ReasonMissingContact
	}

	return domain.VerdictLegit, ""
}

// parseExpiration parses "MM/YY" and returns the instant the card stops
// being valid (first moment after its expiry month).
func parseExpiration(s string) (time.Time, bool) {
	mm, yy, found := strings.Cut(s, "/")
	if !found {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(mm)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yy)
	if err != nil || len(yy) != 2 || year < 0 {
		return time.Time{}, false
	}
	end := time.Date(2000+year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 1, 0), true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
