// Package audit records activity events after business transactions commit.
// Recording never fails from the caller's point of view: each sink logs and
// counts its own failures.
package audit

import (
	"context"
	"time"
)

type Recorder interface {
	Record(ctx context.Context, e Event)
}

const sinkTimeout = 3 * time.Second

type Nop struct{}

func (Nop) Record(context.Context, Event) {}

// Multi fans an event out to every sink in order.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, e Event) {
	for _, r := range m {
		r.Record(ctx, e)
	}
}

// detach keeps request values (request id) but drops the request deadline, so
// a sink still runs after the response has been written.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
}
