package wire

import (
	"context"
	"encoding/json"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/unkn0wn-root/esterm/internal/errdef"
)

// BridgeClient sends requests through an external helper process speaking
// line-delimited JSON on stdin/stdout. The helper owns the actual HTTP call;
// this mirrors the desktop-shell bridge contract, so either backend can
// stand in for the other.
//
// Request line:  {"id":n,"url":s,"method":s,"headers":{..},"body":s}
// Reply line:    {"id":n,"status":n,"ok":b,"body":s} or {"id":n,"error":s}
type BridgeClient struct {
	writeMu sync.Mutex
	enc     *json.Encoder

	pendingMu sync.Mutex
	pending   map[int64]chan bridgeReply
	nextID    int64

	done    chan struct{}
	exitErr error
	closeFn func() error
	closed  sync.Once
}

type bridgeRequest struct {
	ID      int64             `json:"id"`
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

type bridgeReply struct {
	ID     int64  `json:"id"`
	Status int    `json:"status"`
	OK     bool   `json:"ok"`
	Body   string `json:"body"`
	Error  string `json:"error,omitempty"`
}

// bridgeMethods is the helper contract's accepted set; anything else is
// rejected before it reaches the process.
var bridgeMethods = map[string]struct{}{
	"GET": {}, "POST": {}, "PUT": {}, "DELETE": {}, "PATCH": {}, "HEAD": {},
}

// NewBridge starts the helper command and keeps it running for the life of
// the client.
func NewBridge(command string, args ...string) (*BridgeClient, error) {
	if command == "" {
		return nil, errdef.New(errdef.CodeHTTP, "bridge command not configured")
	}
	cmd := exec.Command(command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "open bridge stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "open bridge stdout")
	}
	if err := cmd.Start(); err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "start bridge %s", command)
	}

	closeFn := func() error {
		_ = stdin.Close()
		_ = cmd.Process.Kill()
		return cmd.Wait()
	}
	return newBridgeOver(stdin, stdout, closeFn), nil
}

// newBridgeOver wires a client over arbitrary pipes; tests drive it with an
// in-memory peer.
func newBridgeOver(w io.Writer, r io.Reader, closeFn func() error) *BridgeClient {
	b := &BridgeClient{
		enc:     json.NewEncoder(w),
		pending: make(map[int64]chan bridgeReply),
		done:    make(chan struct{}),
		closeFn: closeFn,
	}
	go b.readLoop(r)
	return b
}

func (b *BridgeClient) Send(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if _, ok := bridgeMethods[method]; !ok {
		return nil, errdef.New(errdef.CodeHTTP, "unsupported method %q", req.Method)
	}

	id, ch := b.register()
	defer b.unregister(id)

	start := time.Now()
	b.writeMu.Lock()
	err := b.enc.Encode(bridgeRequest{
		ID:      id,
		URL:     req.URL,
		Method:  method,
		Headers: req.Headers,
		Body:    req.Body,
	})
	b.writeMu.Unlock()
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "write to bridge")
	}

	select {
	case reply := <-ch:
		if reply.Error != "" {
			return nil, errdef.New(errdef.CodeHTTP, "%s", reply.Error)
		}
		return &Response{
			Status:   reply.Status,
			OK:       reply.OK,
			Body:     []byte(reply.Body),
			Duration: time.Since(start),
		}, nil
	case <-b.done:
		return nil, errdef.Wrap(errdef.CodeHTTP, b.exitErr, "bridge terminated")
	case <-ctx.Done():
		return nil, errdef.Wrap(errdef.CodeHTTP, ctx.Err(), "send %s %s", req.Method, req.URL)
	}
}

func (b *BridgeClient) Close() error {
	var err error
	b.closed.Do(func() {
		if b.closeFn != nil {
			err = b.closeFn()
		}
	})
	return err
}

func (b *BridgeClient) register() (int64, chan bridgeReply) {
	ch := make(chan bridgeReply, 1)
	b.pendingMu.Lock()
	b.nextID++
	id := b.nextID
	b.pending[id] = ch
	b.pendingMu.Unlock()
	return id, ch
}

func (b *BridgeClient) unregister(id int64) {
	b.pendingMu.Lock()
	delete(b.pending, id)
	b.pendingMu.Unlock()
}

func (b *BridgeClient) readLoop(r io.Reader) {
	dec := json.NewDecoder(r)
	for {
		var reply bridgeReply
		if err := dec.Decode(&reply); err != nil {
			if err == io.EOF {
				err = errdef.New(errdef.CodeHTTP, "bridge closed its stdout")
			}
			b.exitErr = err
			close(b.done)
			return
		}
		b.pendingMu.Lock()
		ch := b.pending[reply.ID]
		b.pendingMu.Unlock()
		if ch != nil {
			ch <- reply
		}
	}
}
