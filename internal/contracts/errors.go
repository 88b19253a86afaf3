package contracts

import (
	"fmt"
	"time"
)

// Error taxonomy. Every failure is local to one instrument and is
// surfaced to the caller; nothing here is fatal to a cycle.

// InvalidPriceError reports malformed input data in one instrument's
// series (non-positive close, broken date ordering).
type InvalidPriceError struct {
	Symbol string
	Date   time.Time
	Close  float64
	Reason string
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid price for %s at %s (close=%g): %s",
		e.Symbol, e.Date.Format("2006-01-02"), e.Close, e.Reason)
}

// DataUnavailableError reports an upstream history failure. The
// affected instrument degrades to FLAT/NO_ACTION; the cycle continues.
type DataUnavailableError struct {
	Symbol string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("no bar data available for %s", e.Symbol)
	}
	return fmt.Sprintf("no bar data available for %s: %v", e.Symbol, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// NoTradableContractError reports that the resolver found no valid
// dated contract for an instrument.
type NoTradableContractError struct {
	Symbol string
}

func (e *NoTradableContractError) Error() string {
	return fmt.Sprintf("no tradable contract for %s", e.Symbol)
}

// UnresolvedContractError reports that an actionable target has no
// resolved contract to trade on. Blocks only that instrument's order.
type UnresolvedContractError struct {
	Symbol string
}

func (e *UnresolvedContractError) Error() string {
	return fmt.Sprintf("unresolved contract for actionable instrument %s", e.Symbol)
}

// SubmissionError reports an order submission failure, surfaced
// verbatim. The engine never retries submission; retry policy belongs
// to the gateway.
type SubmissionError struct {
	Symbol string
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("order submission failed for %s: %v", e.Symbol, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
