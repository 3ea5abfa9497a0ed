package client

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// nonceSources holds one *nonceSource per access key. The server
// checks nonces per key, so every Client signing with the same key
// must draw from the same counter.
var nonceSources sync.Map

// nonceSourceFor returns the process-wide source for accessKey.
func nonceSourceFor(accessKey string) *nonceSource {
	if ns, ok := nonceSources.Load(accessKey); ok {
		return ns.(*nonceSource)
	}

	ns, _ := nonceSources.LoadOrStore(accessKey, newNonceSource(time.Now))
	return ns.(*nonceSource)
}

// nonceSource hands out strictly increasing nonces derived from the
// wall clock in microseconds. When the clock has not advanced (or went
// backwards) the previous value plus one is used instead.
type nonceSource struct {
	last atomic.Int64
	now  func() time.Time
}

func newNonceSource(now func() time.Time) *nonceSource {
	if now == nil {
		now = time.Now
	}

	return &nonceSource{now: now}
}

// next is safe for concurrent use.
func (n *nonceSource) next() string {
	for {
		last := n.last.Load()

		candidate := n.now().UnixMicro()
		if candidate <= last {
			candidate = last + 1
		}

		if n.last.CompareAndSwap(last, candidate) {
			return strconv.FormatInt(candidate, 10)
		}
	}
}
