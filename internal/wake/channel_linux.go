//go:build linux

package wake

import (
	"context"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/userspace-rcu/go-rcu/internal/fence"
)

const (
	stateIdle    int32 = 0
	stateWaiting int32 = -1
)

// pollInterval bounds how long a single FUTEX_WAIT call blocks before
// Wait re-checks ctx; FUTEX_WAIT has no context-aware variant, so the
// wait is chopped into slices instead of being given an infinite
// timeout.
const pollInterval = 250 * time.Millisecond

// Channel is the Linux futex-backed wake primitive. The zero value is
// ready to use.
type Channel struct {
	state int32
}

// NewChannel returns a ready-to-use channel.
func NewChannel() *Channel {
	return &Channel{}
}

func (c *Channel) addr() *uint32 {
	return (*uint32)(unsafe.Pointer(&c.state))
}

// Wake moves the channel out of the waiting state and, if a consumer
// was actually asleep, issues FUTEX_WAKE. A wake against an idle
// channel is a cheap no-op: the eventual consumer will simply observe
// the new work on its own next pass.
func (c *Channel) Wake() {
	fence.Mfence()
	if !atomic.CompareAndSwapInt32(&c.state, stateWaiting, stateIdle) {
		return
	}
	unix.Futex(c.addr(), unix.FUTEX_WAKE, 1, nil, nil, 0)
}

// Wait blocks until pending reports true, ctx is done, or a Wake moves
// the channel back to idle; a Wake returns without evaluating pending
// again. pending is evaluated before every sleep, including after a
// sleep slice times out, so a wake that
// races the transition into the waiting state is never lost: the
// consumer either sees the work on its own re-check or, having
// already published stateWaiting, receives the FUTEX_WAKE for it.
func (c *Channel) Wait(ctx context.Context, pending func() bool) {
	for {
		if pending() {
			return
		}
		if ctx.Err() != nil {
			return
		}
		// Store rather than CAS from idle: after a timed-out slice the
		// state is still waiting, and Wait is the channel's only consumer.
		atomic.StoreInt32(&c.state, stateWaiting)
		fence.Mfence()
		if pending() {
			atomic.CompareAndSwapInt32(&c.state, stateWaiting, stateIdle)
			return
		}

		ts := unix.NsecToTimespec(pollInterval.Nanoseconds())
		_, err := unix.Futex(c.addr(), unix.FUTEX_WAIT, uint32(stateWaiting), &ts, nil, 0)
		_ = err // EAGAIN/ETIMEDOUT/EINTR all just mean "re-check and maybe wait again"

		if atomic.LoadInt32(&c.state) != stateWaiting {
			return
		}
		if ctx.Err() != nil {
			atomic.CompareAndSwapInt32(&c.state, stateWaiting, stateIdle)
			return
		}
	}
}
