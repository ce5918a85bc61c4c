package rcu

import (
	"time"

	"github.com/userspace-rcu/go-rcu/internal/constants"
)

// Re-exported tuning constants. See internal/constants for the
// rationale behind each default.
const (
	DefaultRingSize  = constants.DefaultRingSize
	ReserveHeadroom  = constants.ReserveHeadroom
	MaxSlotsPerDefer = constants.MaxSlotsPerDefer
)

// DefaultCoalesceDelay is the default post-wake sleep before a
// barrier pass, giving concurrent producers a chance to land in the
// same batch.
const DefaultCoalesceDelay time.Duration = constants.CoalesceDelay
