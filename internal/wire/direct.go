package wire

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/unkn0wn-root/esterm/internal/errdef"
	"github.com/unkn0wn-root/esterm/internal/kubefwd"
	"github.com/unkn0wn-root/esterm/internal/sshx"
)

type Options struct {
	Timeout            time.Duration
	FollowRedirects    bool
	InsecureSkipVerify bool
	CAFile             string
	ClientCert         string
	ClientKey          string
	BaseDir            string
	ProxyURL           string
	SSH                *SSHPlan
	Kube               *KubePlan
}

type SSHPlan struct {
	Manager *sshx.Manager
	Config  sshx.Cfg
}

func (p *SSHPlan) Active() bool {
	return p != nil && p.Manager != nil && p.Config.Host != ""
}

type KubePlan struct {
	Forwarder *kubefwd.Forwarder
}

func (p *KubePlan) Active() bool {
	return p != nil && p.Forwarder != nil
}

// DirectClient sends requests in-process over net/http. The underlying
// http.Client is built once from Options and reused, so tunnel sessions and
// connection pools survive across calls.
type DirectClient struct {
	opts        Options
	httpFactory func(Options) (*http.Client, error)

	mu     sync.Mutex
	client *http.Client
}

func NewDirect(opts Options) *DirectClient {
	c := &DirectClient{opts: opts}
	c.httpFactory = buildHTTPClient
	return c
}

func (c *DirectClient) Send(ctx context.Context, req Request) (*Response, error) {
	httpClient, err := c.ensureClient()
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "build request %s %s", method, req.URL)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "send %s %s", method, req.URL)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "read response body")
	}

	return &Response{
		Status:   resp.StatusCode,
		OK:       resp.StatusCode >= 200 && resp.StatusCode < 300,
		Body:     data,
		Duration: time.Since(start),
	}, nil
}

func (c *DirectClient) ensureClient() (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	client, err := c.httpFactory(c.opts)
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}
