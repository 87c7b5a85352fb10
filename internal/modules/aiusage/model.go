package aiusage

import "errors"

// ErrInsufficientTokens is returned when an owner has no tokens remaining for the current month.
var ErrInsufficientTokens = errors.New("insufficient tokens")

// DefaultTokens is the number of orchestrator calls granted per owner per month.
const DefaultTokens = 300
