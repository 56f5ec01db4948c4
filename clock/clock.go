/*
Copyright (c) 2017 Alexander Klauer

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package clock provides the monotonic time source the scheduler uses to
// generate unique, strictly increasing deadlines.
package clock

import(
	"sync/atomic"
	"time"
)

// NowNs returns wall-clock nanoseconds since the Unix epoch.
func NowNs() int64 {
	return time.Now().UnixNano()
}

// last holds the most recently handed-out value of MonotonicNextNs.
var last int64

// MonotonicNextNs returns a value strictly greater than every value it has
// previously returned, even under concurrent callers. The scheduler uses
// it to derive schedules' initial and reset deadlines; deadlines that
// still collide in the due-time map are bumped by one nanosecond there,
// not here.
//
// Go's runtime has carried a native monotonic clock reading since 1.9, so
// unlike the C original this needs no linkname into runtime internals:
// time.Now().UnixNano() is enough, paired with the same
// compare-and-swap retry loop.
func MonotonicNextNs() int64 {
	for {
		prev := atomic.LoadInt64( &last )
		next := NowNs()
		if next <= prev {
			next = prev + 1
		}
		if atomic.CompareAndSwapInt64( &last, prev, next ) {
			return next
		}
	}
}
