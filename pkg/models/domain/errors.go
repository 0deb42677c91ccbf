package domain

import "errors"

var (
	ErrUnknownAction       = errors.New("unknown remediation action")
	ErrUnknownPricingModel = errors.New("unknown pricing model")
)
