package attachment

import "context"

// Result tracks one queued download.
type Result struct {
	done   chan struct{}
	err    error
	cancel context.CancelFunc
	queue  *Queue
}

// Done returns a channel that is closed when the download completes.
func (r *Result) Done() <-chan struct{} { return r.done }

// Err blocks until this download completes and returns its error.
func (r *Result) Err() error {
	<-r.done
	return r.err
}

// Wait blocks until every download in the queue completes.
func (r *Result) Wait() error {
	return r.queue.Wait()
}

// Queue returns the queue this download belongs to, for use with [WithQueue].
func (r *Result) Queue() *Queue { return r.queue }

// Cancel cancels this download's context.
func (r *Result) Cancel() {
	r.cancel()
}
