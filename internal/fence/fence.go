//go:build linux && cgo && amd64

// Package fence provides the explicit full memory fence the wake
// channel's state machine requires between storing its sleep-state
// word and re-checking queue length (see the package-level comment
// on wake.Channel). Go's atomics are already sequentially consistent
// for goroutine-to-goroutine visibility, so this fence is redundant
// in the pure-Go sense — it is kept because the original design's
// contract is stated in terms of an explicit hardware fence around a
// futex-word transition, and a FUTEX_WAIT/FUTEX_WAKE pair is a real
// syscall boundary where that phrasing is worth honoring literally.
package fence

/*
#include <stdint.h>

// x86-64 store fence to ensure all prior stores are globally visible
static inline void sfence_impl(void) {
    __asm__ __volatile__("sfence" ::: "memory");
}

// x86-64 full memory fence to ensure all prior memory operations are complete
static inline void mfence_impl(void) {
    __asm__ __volatile__("mfence" ::: "memory");
}
*/
import "C"

// Sfence issues a store fence (x86 SFENCE instruction): all prior
// stores are globally visible before any subsequent store.
func Sfence() {
	C.sfence_impl()
}

// Mfence issues a full memory fence (x86 MFENCE instruction): all
// prior memory operations complete before any subsequent one. Used
// between the wake channel's state store and its queue re-check, and
// between a producer's head publish and its wake-state check.
func Mfence() {
	C.mfence_impl()
}
