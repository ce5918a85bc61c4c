// Package queue's per-slot encoding.
//
// A DeferQueue's ring stores plain uintptr slots with no side tag,
// exploiting the fact that a callback's code-entry identity is always
// even (Go aligns function entries to at least 2 bytes on every
// supported architecture). Three record shapes, decoded left to right
// from the current tail:
//
//	shape A: identity|1, arg            -- new function, 2 slots
//	shape B: dqFctMark, identity, arg   -- escape form, 3 slots
//	shape C: arg                        -- repeated function, 1 slot
//
// Shape B exists because an identity or argument can otherwise be
// confused with the tag space (low bit set, or equal to the
// sentinel); see plainlyEncodable. A single Defer call never writes
// more than MaxSlotsPerDefer (3) slots.
package queue
