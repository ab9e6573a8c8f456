package kubefwd

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/portforward"
	"k8s.io/client-go/transport/spdy"

	"github.com/unkn0wn-root/esterm/internal/errdef"
)

// Target names a cluster endpoint reachable only through the Kubernetes API:
// either an explicit pod or a service whose selector picks one. RemotePort is
// the pod port the search engine listens on.
type Target struct {
	Kubeconfig string `json:"kubeconfig,omitempty"`
	Context    string `json:"context,omitempty"`
	Namespace  string `json:"namespace"`
	Pod        string `json:"pod,omitempty"`
	Service    string `json:"service,omitempty"`
	RemotePort int    `json:"remotePort"`
}

func (t Target) Validate() error {
	if t.Pod == "" && t.Service == "" {
		return errdef.New(errdef.CodeTunnel, "kube target needs a pod or service name")
	}
	if t.RemotePort <= 0 || t.RemotePort > 65535 {
		return errdef.New(errdef.CodeTunnel, "kube target needs a remote port")
	}
	return nil
}

// Forwarder runs one port-forward session and exposes its local endpoint.
// Start is idempotent; Close tears the session down.
type Forwarder struct {
	target Target

	mu      sync.Mutex
	local   uint16
	stopCh  chan struct{}
	started bool

	loadConfig func(Target) (*rest.Config, error)
	newClient  func(*rest.Config) (kubernetes.Interface, error)
}

func New(target Target) *Forwarder {
	return &Forwarder{
		target:     target,
		loadConfig: loadConfig,
		newClient: func(cfg *rest.Config) (kubernetes.Interface, error) {
			return kubernetes.NewForConfig(cfg)
		},
	}
}

// Start establishes the forward and returns the local port it is bound to.
func (f *Forwarder) Start(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return int(f.local), nil
	}
	if err := f.target.Validate(); err != nil {
		return 0, err
	}

	cfg, err := f.loadConfig(f.target)
	if err != nil {
		return 0, errdef.Wrap(errdef.CodeTunnel, err, "load kubeconfig")
	}
	client, err := f.newClient(cfg)
	if err != nil {
		return 0, errdef.Wrap(errdef.CodeTunnel, err, "build kubernetes client")
	}

	pod, err := resolvePod(ctx, client, f.target)
	if err != nil {
		return 0, err
	}

	req := client.CoreV1().RESTClient().Post().
		Resource("pods").
		Namespace(f.target.Namespace).
		Name(pod).
		SubResource("portforward")

	transport, upgrader, err := spdy.RoundTripperFor(cfg)
	if err != nil {
		return 0, errdef.Wrap(errdef.CodeTunnel, err, "build spdy transport")
	}
	dialer := spdy.NewDialer(upgrader, &http.Client{Transport: transport}, http.MethodPost, req.URL())

	stopCh := make(chan struct{})
	readyCh := make(chan struct{})
	ports := []string{fmt.Sprintf("0:%d", f.target.RemotePort)}
	fw, err := portforward.New(dialer, ports, stopCh, readyCh, io.Discard, io.Discard)
	if err != nil {
		return 0, errdef.Wrap(errdef.CodeTunnel, err, "create port forward")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- fw.ForwardPorts() }()

	select {
	case <-readyCh:
	case err := <-errCh:
		close(stopCh)
		return 0, errdef.Wrap(errdef.CodeTunnel, err, "forward to pod %s", pod)
	case <-ctx.Done():
		close(stopCh)
		return 0, ctx.Err()
	}

	forwarded, err := fw.GetPorts()
	if err != nil || len(forwarded) == 0 {
		close(stopCh)
		return 0, errdef.Wrap(errdef.CodeTunnel, err, "resolve forwarded port")
	}

	f.local = forwarded[0].Local
	f.stopCh = stopCh
	f.started = true
	return int(f.local), nil
}

// DialContext routes every connection to the forwarded local endpoint,
// ignoring the requested address. The profile's base URL host only matters
// for the Host header once a kube target is active.
func (f *Forwarder) DialContext(ctx context.Context, network, _ string) (net.Conn, error) {
	if _, err := f.Start(ctx); err != nil {
		return nil, err
	}
	var d net.Dialer
	return d.DialContext(ctx, network, f.Addr())
}

func (f *Forwarder) Addr() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(int(f.local)))
}

func (f *Forwarder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started {
		return nil
	}
	close(f.stopCh)
	f.started = false
	return nil
}

func loadConfig(target Target) (*rest.Config, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if target.Kubeconfig != "" {
		rules = &clientcmd.ClientConfigLoadingRules{ExplicitPath: target.Kubeconfig}
	}
	overrides := &clientcmd.ConfigOverrides{CurrentContext: target.Context}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
}

func resolvePod(ctx context.Context, client kubernetes.Interface, target Target) (string, error) {
	if target.Pod != "" {
		return target.Pod, nil
	}

	svc, err := client.CoreV1().Services(target.Namespace).Get(ctx, target.Service, metav1.GetOptions{})
	if err != nil {
		return "", errdef.Wrap(errdef.CodeTunnel, err, "get service %s", target.Service)
	}
	if len(svc.Spec.Selector) == 0 {
		return "", errdef.New(errdef.CodeTunnel, "service %s has no selector", target.Service)
	}

	selector := labels.Set(svc.Spec.Selector).AsSelector().String()
	pods, err := client.CoreV1().Pods(target.Namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return "", errdef.Wrap(errdef.CodeTunnel, err, "list pods for service %s", target.Service)
	}

	name := pickRunning(pods.Items)
	if name == "" {
		return "", errdef.New(errdef.CodeTunnel, "no running pods behind service %s", target.Service)
	}
	return name, nil
}

func pickRunning(pods []corev1.Pod) string {
	for _, pod := range pods {
		if pod.Status.Phase == corev1.PodRunning {
			return pod.Name
		}
	}
	return ""
}
