//go:build !(linux && cgo && amd64)

package fence

import "sync/atomic"

// Sfence and Mfence fall back to an atomic fence on platforms without
// the inline-asm implementation (non-Linux, cgo disabled, or a
// non-amd64 architecture where the "sfence"/"mfence" mnemonics don't
// exist). A dummy CompareAndSwap is a full sequentially-consistent
// operation under the Go memory model, so this preserves the ordering
// contract even though it has no hardware-fence equivalent to emit.
var dummy atomic.Uint32

func Sfence() { dummy.CompareAndSwap(0, 0) }
func Mfence() { dummy.CompareAndSwap(0, 0) }
