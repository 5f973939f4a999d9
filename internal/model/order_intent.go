package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderType enumerates the venue order types an OrderIntent may carry.
type OrderType int

const (
	OrderMarket OrderType = iota
	OrderLimit
	OrderStop
)

func (t OrderType) String() string {
	switch t {
	case OrderLimit:
		return "limit"
	case OrderStop:
		return "stop"
	default:
		return "market"
	}
}

// OrderIntent is an approved, not-yet-submitted (or retried) order. Per
// spec §3, client order ids are deterministic hashes of the intent's
// canonical fields bound to a TTL, so resubmission with the same id within
// the TTL is idempotent.
type OrderIntent struct {
	ClientOrderID    string
	Instrument       string
	Side             Side
	Type             OrderType
	Size             decimal.Decimal
	LimitPrice       decimal.Decimal
	StopPrice        decimal.Decimal
	ReduceOnly       bool
	Leverage         int
	SubmittedAt      time.Time
	SignalFingerprint string

	TTL           time.Duration
	AttemptCount  int
	LastAttemptAt time.Time
}

// NewClientOrderID derives a deterministic client order id from the
// intent's canonical fields, so that repeated calls for the same logical
// order collide on the same id.
func NewClientOrderID(instrument string, side Side, typ OrderType, size, limitPrice, stopPrice decimal.Decimal, signalFingerprint string, epochBucket int64) string {
	canonical := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%d",
		instrument, side.String(), typ.String(),
		size.String(), limitPrice.String(), stopPrice.String(),
		signalFingerprint, epochBucket)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:16])
}

// Expired reports whether the intent's idempotency TTL has elapsed since
// its last submission attempt.
func (o OrderIntent) Expired(now time.Time) bool {
	if o.LastAttemptAt.IsZero() {
		return false
	}
	return now.Sub(o.LastAttemptAt) > o.TTL
}
