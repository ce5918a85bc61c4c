// Package reclaim runs the background reclamation thread and the
// barrier engine that drains every registered defer queue through one
// grace-period wait per pass.
//
// Callers must hold the domain's defer mutex before calling BarrierAll
// or BarrierThread: neither function locks anything itself, matching
// the two-mutex nesting the root package enforces (thread registry
// mutex outer, defer mutex inner).
package reclaim
