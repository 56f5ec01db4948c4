package pool

import(
	"context"
	"time"

	"github.com/vnykmshr/goflow/pkg/scheduling/workerpool"
)

// admissionWindow bounds how long TrySubmit will wait for queue room
// before treating the pool as full. It is small enough that the
// dispatcher's wait is, for all practical purposes, non-blocking.
const admissionWindow = time.Millisecond

// GoflowPool adapts a github.com/vnykmshr/goflow worker pool to the
// ThreadPool interface.
//
// goflow's Pool.Submit/SubmitWithContext block when the queue is full —
// there is no select-with-default admission path in the upstream API,
// and a context that is already expired before the call fails the
// submission unconditionally rather than racing against the queue.
// TrySubmit instead gives SubmitWithContext a short-lived deadline: the
// send against the queue and the context's own timer race in the same
// select, so a queue with room still wins immediately, and a full queue
// is reported as refused after admissionWindow rather than blocking the
// dispatcher indefinitely.
type GoflowPool struct {
	pool workerpool.Pool
}

// NewGoflowPool wraps an existing goflow pool.
func NewGoflowPool( p workerpool.Pool ) *GoflowPool {
	return &GoflowPool{ pool: p }
}

// NewGoflowPoolWithConfig constructs and wraps a goflow pool.
func NewGoflowPoolWithConfig( cfg workerpool.Config ) *GoflowPool {
	return NewGoflowPool( workerpool.NewWithConfig( cfg ) )
}

func ( g *GoflowPool ) TrySubmit( fn func(), priority int ) bool {
	ctx, cancel := context.WithTimeout( context.Background(), admissionWindow )
	defer cancel()

	task := workerpool.TaskFunc( func( _ context.Context ) error {
		fn()
		return nil
	} )

	return g.pool.SubmitWithContext( ctx, task ) == nil
}

// Shutdown releases the underlying goflow pool's workers.
func ( g *GoflowPool ) Shutdown() <-chan struct{} {
	return g.pool.Shutdown()
}
