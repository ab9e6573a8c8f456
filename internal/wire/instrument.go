package wire

import (
	"context"

	"github.com/unkn0wn-root/esterm/internal/telemetry"
)

type instrumentedClient struct {
	next    Client
	inst    telemetry.Instrumenter
	surface string
}

// WithTelemetry wraps a client so every request becomes a span tagged
// with the issuing surface. A nil instrumenter returns the client as is.
func WithTelemetry(next Client, inst telemetry.Instrumenter, surface string) Client {
	if inst == nil {
		return next
	}
	return &instrumentedClient{next: next, inst: inst, surface: surface}
}

func (c *instrumentedClient) Send(ctx context.Context, req Request) (*Response, error) {
	ctx, span := c.inst.Start(ctx, telemetry.RequestStart{
		Method:  req.Method,
		URL:     req.URL,
		Surface: c.surface,
	})
	resp, err := c.next.Send(ctx, req)

	result := telemetry.RequestResult{Err: err}
	if resp != nil {
		result.StatusCode = resp.Status
		result.BodyBytes = len(resp.Body)
		result.Duration = resp.Duration
	}
	span.End(result)
	return resp, err
}
