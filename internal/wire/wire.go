package wire

import (
	"context"
	"time"
)

// Request is one HTTP call against the cluster. Headers carry auth material
// already rendered by the connection resolver; Body is raw text, empty when
// the call has none.
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    string
}

// Response reports the call outcome. A non-2xx status is a valid Response,
// never an error; Client implementations return errors for transport
// failures only.
type Response struct {
	Status   int
	OK       bool
	Body     []byte
	Duration time.Duration
}

type Client interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// Event is one completed (or transport-failed) call as seen by an Observer.
type Event struct {
	Time     time.Time
	Method   string
	URL      string
	Status   int
	OK       bool
	Duration time.Duration
	Bytes    int
	Err      error
}

// Observer receives call traces. Implementations are installed per client at
// construction and own their buffer lifecycle; the wire layer never retains
// trace state itself.
type Observer interface {
	RequestStarted(method, url string)
	RequestFinished(Event)
}

type NoopObserver struct{}

func (NoopObserver) RequestStarted(string, string) {}
func (NoopObserver) RequestFinished(Event)         {}

type observed struct {
	next Client
	obs  Observer
}

// WithObserver decorates a client so every call is reported to obs.
func WithObserver(next Client, obs Observer) Client {
	if obs == nil {
		return next
	}
	return &observed{next: next, obs: obs}
}

func (o *observed) Send(ctx context.Context, req Request) (*Response, error) {
	o.obs.RequestStarted(req.Method, req.URL)
	start := time.Now()
	resp, err := o.next.Send(ctx, req)

	ev := Event{
		Time:     start,
		Method:   req.Method,
		URL:      req.URL,
		Duration: time.Since(start),
		Err:      err,
	}
	if resp != nil {
		ev.Status = resp.Status
		ev.OK = resp.OK
		ev.Duration = resp.Duration
		ev.Bytes = len(resp.Body)
	}
	o.obs.RequestFinished(ev)
	return resp, err
}
