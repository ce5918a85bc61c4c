package constants

import "time"

// Ring sizing. DefaultRingSize must stay a power of two —
// queue.NewDeferQueue rounds up anything else.
const (
	// DefaultRingSize is the default per-thread defer-queue capacity Q.
	DefaultRingSize = 16384

	// ReserveHeadroom is the number of slots below full a queue must
	// keep free before a producer stops self-draining. A single
	// defer() call writes at most 3 slots, so 2 spare slots plus the
	// one about to be consumed by the headroom check itself keeps the
	// ring from ever overflowing.
	ReserveHeadroom = 2

	// MaxSlotsPerDefer is the worst case slot count a single defer()
	// call can append (escape shape: mark, function, argument).
	MaxSlotsPerDefer = 3
)

// Registry sizing.
const (
	// InitialRegistryCapacity is the starting capacity of the deferer
	// registry. It only ever grows (see Registry.Add).
	InitialRegistryCapacity = 4
)

// CoalesceDelay is how long the reclamation thread sleeps after being
// woken before running a barrier pass, so a burst of near-simultaneous
// defer() calls from many producers lands in a single batch.
const CoalesceDelay = 100 * time.Millisecond
