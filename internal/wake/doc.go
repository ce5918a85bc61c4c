// Package wake implements the single-slot sleep/wake primitive
// producers use to nudge the reclamation thread out of sleep without
// ever losing a wakeup.
//
// The channel is a 2-value state machine on one word:
//
//	idle(0)    --- consumer enters wait --->        waiting(-1)
//	waiting(-1)--- producer posts wake  --->        idle(0), OS wake issued
//	idle(0)    --- producer posts wake  --->        idle(0), no-op
//	waiting(-1)--- consumer re-observes non-empty -> idle(0), sleep cancelled
//
// The consumer must store waiting before re-reading queue length, and
// the producer must publish its new head before checking for
// waiting; both sides separate those two operations with a full
// fence (internal/fence) to avoid a lost wakeup.
package wake
