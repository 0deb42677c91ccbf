package cost

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LookupFailure explains why a price could not be resolved.
type LookupFailure struct {
	Reason string
	Err    error
}

func (f *LookupFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Reason, f.Err)
	}
	return f.Reason
}

func (f *LookupFailure) Unwrap() error {
	return f.Err
}

// LookupResult is either a price or a failure.
type LookupResult struct {
	Price   decimal.Decimal
	Failure *LookupFailure
}

func Found(price decimal.Decimal) LookupResult {
	return LookupResult{Price: price}
}

func NotFound(reason string) LookupResult {
	return LookupResult{Failure: &LookupFailure{Reason: reason}}
}

func Failed(reason string, err error) LookupResult {
	return LookupResult{Failure: &LookupFailure{Reason: reason, Err: err}}
}

func (r LookupResult) OK() bool {
	return r.Failure == nil
}
