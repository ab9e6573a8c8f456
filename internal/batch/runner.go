package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/esterm/internal/errdef"
	"github.com/unkn0wn-root/esterm/internal/wire"
)

const (
	MinConcurrency = 1
	MaxConcurrency = 10
)

type Config struct {
	Concurrency int
	RetryCount  int
	RetryDelay  time.Duration
	StopOnError bool
	PrettyPrint bool
}

// Result is the terminal outcome of one command. Status 0 means no HTTP
// exchange happened: the command failed validation, failed at the
// transport, or was skipped after a stop.
type Result struct {
	Index    int
	Method   string
	Path     string
	Status   int
	OK       bool
	Duration time.Duration
	Body     string
	Err      error
	Skipped  bool
}

// Failed reports whether the command counts as failed for stop-on-error.
// Skipped commands are not failures; they never ran.
func (r Result) Failed() bool {
	if r.Skipped {
		return false
	}
	return r.Err != nil || (r.Status != 0 && !r.OK)
}

// ProgressFunc observes the completed counter after every terminal
// result. The counter is monotonic and ends at exactly the command count.
type ProgressFunc func(completed, total int)

// RequestBuilder mints the wire request for one command against the
// active connection. conn.Descriptor.Request satisfies it.
type RequestBuilder func(method, path, body string) wire.Request

type Runner struct {
	Client wire.Client
	Build  RequestBuilder
	// Sleep paces retry attempts. Tests inject a recording fake; nil
	// uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run executes every command and returns one result per command, index
// aligned. A command failure never aborts the batch; stop-on-error and
// context cancellation stop claiming and mark the unclaimed tail skipped.
func (r *Runner) Run(ctx context.Context, commands []Command, cfg Config, progress ProgressFunc) []Result {
	total := len(commands)
	results := make([]Result, total)
	if total == 0 {
		return results
	}

	workers := cfg.Concurrency
	if workers < MinConcurrency {
		workers = MinConcurrency
	}
	if workers > MaxConcurrency {
		workers = MaxConcurrency
	}
	if workers > total {
		workers = total
	}

	disp := &dispenser{total: total}
	var completed atomic.Int64
	report := func() {
		n := completed.Add(1)
		if progress != nil {
			progress(int(n), total)
		}
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx, ok := disp.Claim()
				if !ok {
					return
				}
				res := r.execute(ctx, commands[idx], cfg)
				results[idx] = res
				if cfg.StopOnError && res.Failed() {
					disp.Stop()
				}
				if ctx.Err() != nil {
					disp.Stop()
				}
				report()
			}
		}()
	}
	wg.Wait()

	for idx := disp.Claimed(); idx < total; idx++ {
		results[idx] = Result{
			Index:   idx,
			Method:  commands[idx].Method,
			Path:    commands[idx].Path,
			Skipped: true,
		}
		report()
	}

	if cfg.PrettyPrint {
		for i := range results {
			results[i].Body = prettyJSON(results[i].Body)
		}
	}
	return results
}

// execute runs one command to its terminal result. Validation failures
// spend no retry budget; retries record only the last attempt's outcome.
func (r *Runner) execute(ctx context.Context, cmd Command, cfg Config) Result {
	res := Result{Index: cmd.Index, Method: cmd.Method, Path: cmd.Path}

	if strings.TrimSpace(cmd.Path) == "" {
		res.Err = errdef.New(errdef.CodeParse, "command %d has an empty path", cmd.Index+1)
		return res
	}
	body := strings.TrimSpace(cmd.Body)
	if body != "" && !json.Valid([]byte(body)) {
		res.Err = errdef.New(errdef.CodeParse, "command %d body is not valid JSON", cmd.Index+1)
		return res
	}

	attempts := cfg.RetryCount + 1
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := r.sleep(ctx, cfg.RetryDelay); err != nil {
				return res
			}
		}
		resp, err := r.Client.Send(ctx, r.Build(cmd.Method, cmd.Path, body))
		if err != nil {
			res.Status, res.OK, res.Duration, res.Body = 0, false, 0, ""
			res.Err = err
			continue
		}
		res.Status = resp.Status
		res.OK = resp.OK
		res.Duration = resp.Duration
		res.Body = string(resp.Body)
		res.Err = nil
		if resp.OK {
			return res
		}
	}
	return res
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// dispenser hands out command indices exactly once. Stop freezes it;
// Claimed reports how many indices were handed out.
type dispenser struct {
	mu      sync.Mutex
	next    int
	total   int
	stopped bool
}

func (d *dispenser) Claim() (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || d.next >= d.total {
		return 0, false
	}
	idx := d.next
	d.next++
	return idx, true
}

func (d *dispenser) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}

func (d *dispenser) Claimed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.next
}

func prettyJSON(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return s
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return s
	}
	return buf.String()
}
