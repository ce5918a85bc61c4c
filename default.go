package rcu

import (
	"context"
	"sync"
)

// defaultDomain is the process-wide Domain the package-level
// convenience functions operate against. It is nil until Init
// installs one; every convenience function fails fast against a nil
// domain rather than silently constructing one with an opinionated
// GracePeriodWaiter the engine has no business choosing on a
// caller's behalf.
var (
	defaultMu     sync.Mutex
	defaultDomain *Domain
)

// Init constructs a process-default Domain and installs it for the
// package-level convenience functions (RegisterThread, Barrier,
// Shutdown) to use. Call it once, before any of those functions, from
// whichever part of a program owns process lifetime; programs that
// manage several independent Domains should skip Init and call
// NewDomain directly instead.
func Init(ctx context.Context, waiter GracePeriodWaiter, opts ...Option) *Domain {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultDomain != nil {
		fatalf("Init", ErrCodeAlreadyRegistered, "default domain already initialized")
	}
	defaultDomain = NewDomain(ctx, waiter, opts...)
	return defaultDomain
}

// RegisterThread registers the calling thread against the
// process-default Domain. Panics with ErrCodeNotInitialized if Init
// has not been called.
func RegisterThread() *Deferer {
	return defaultOrPanic("RegisterThread").RegisterThread()
}

// Barrier runs a global barrier pass against the process-default
// Domain.
func Barrier() {
	defaultOrPanic("Barrier").Barrier()
}

// Shutdown stops the process-default Domain's reclamation thread and
// uninstalls it, allowing a later call to Init to install a new one.
func Shutdown() {
	defaultMu.Lock()
	d := defaultDomain
	defaultDomain = nil
	defaultMu.Unlock()

	if d == nil {
		fatalf("Shutdown", ErrCodeNotInitialized, "default domain was never initialized")
	}
	d.Shutdown()
}

func defaultOrPanic(op string) *Domain {
	defaultMu.Lock()
	d := defaultDomain
	defaultMu.Unlock()
	if d == nil {
		fatalf(op, ErrCodeNotInitialized, "call rcu.Init before using package-level convenience functions")
	}
	return d
}
