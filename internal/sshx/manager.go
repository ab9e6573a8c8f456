package sshx

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	xssh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	knownhosts "golang.org/x/crypto/ssh/knownhosts"

	"github.com/unkn0wn-root/esterm/internal/errdef"
)

const dialRetryDelay = 150 * time.Millisecond

type Client interface {
	Dial(network, addr string) (net.Conn, error)
	SendRequest(name string, wantReply bool, payload []byte) (bool, []byte, error)
	Close() error
}

// Manager keeps one authenticated SSH session per bastion and multiplexes
// forwarded connections over it. Sessions idle past the TTL are dropped on
// the next dial.
type Manager struct {
	mu    sync.Mutex
	cache map[string]*session
	ttl   time.Duration
	now   func() time.Time
	dial  func(context.Context, Cfg) (Client, error)
}

type session struct {
	cli      Client
	lastUsed time.Time
	stop     chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		cache: make(map[string]*session),
		ttl:   defaultTTL,
		now:   time.Now,
		dial:  dialBastion,
	}
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for key, sess := range m.cache {
		if err := closeSession(sess); err != nil {
			errs = append(errs, err)
		}
		delete(m.cache, key)
	}
	return errors.Join(errs...)
}

// DialContext opens a forwarded connection to addr through the bastion in
// cfg, reusing a cached session when one is still healthy.
func (m *Manager) DialContext(ctx context.Context, cfg Cfg, network, addr string) (net.Conn, error) {
	if cfg.Host == "" {
		return nil, errdef.New(errdef.CodeTunnel, "ssh host required")
	}
	key := cacheKey(cfg)

	m.mu.Lock()
	m.purgeLocked()
	if sess := m.cache[key]; sess != nil {
		sess.lastUsed = m.now()
		cli := sess.cli
		m.mu.Unlock()
		if conn, err := cli.Dial(network, addr); err == nil {
			return conn, nil
		}

		// Session went stale under us; drop it and reconnect.
		m.mu.Lock()
		_ = closeSession(sess)
		delete(m.cache, key)
	}
	m.mu.Unlock()

	cli, err := m.connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sess := &session{cli: cli, lastUsed: m.now(), stop: make(chan struct{})}
	if cfg.KeepAlive > 0 {
		go keepAliveLoop(cli, cfg.KeepAlive, sess.stop)
	}

	conn, err := cli.Dial(network, addr)
	if err != nil {
		_ = closeSession(sess)
		return nil, errdef.Wrap(errdef.CodeTunnel, err, "forward to %s", addr)
	}

	m.mu.Lock()
	m.cache[key] = sess
	m.mu.Unlock()
	return conn, nil
}

func (m *Manager) connect(ctx context.Context, cfg Cfg) (Client, error) {
	attempts := cfg.Retries + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		cli, err := m.dial(ctx, cfg)
		if err == nil {
			return cli, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if i+1 < attempts {
			if err := waitWithContext(ctx, dialRetryDelay); err != nil {
				return nil, err
			}
		}
	}
	return nil, errdef.Wrap(errdef.CodeTunnel, lastErr, "ssh dial %s", cfg.Host)
}

func (m *Manager) purgeLocked() {
	now := m.now()
	for key, sess := range m.cache {
		if now.Sub(sess.lastUsed) > m.ttl {
			_ = closeSession(sess)
			delete(m.cache, key)
		}
	}
}

func dialBastion(ctx context.Context, cfg Cfg) (Client, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	base := &net.Dialer{Timeout: cfg.Timeout}

	netConn, err := base.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	auth, err := authMethods(cfg)
	if err != nil {
		_ = netConn.Close()
		return nil, err
	}
	hostKeyCb, err := hostKeyCallback(cfg)
	if err != nil {
		_ = netConn.Close()
		return nil, err
	}

	sshCfg := &xssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCb,
		Timeout:         cfg.Timeout,
	}
	if sshCfg.User == "" {
		sshCfg.User = os.Getenv("USER")
	}

	conn, chans, reqs, err := xssh.NewClientConn(netConn, addr, sshCfg)
	if err != nil {
		_ = netConn.Close()
		return nil, err
	}
	return xssh.NewClient(conn, chans, reqs), nil
}

func authMethods(cfg Cfg) ([]xssh.AuthMethod, error) {
	var methods []xssh.AuthMethod

	if cfg.KeyPath != "" {
		keyData, err := os.ReadFile(cfg.KeyPath)
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeTunnel, err, "read ssh key")
		}
		signer, err := parseKey(keyData, cfg.KeyPass)
		if err != nil {
			return nil, err
		}
		methods = append(methods, xssh.PublicKeys(signer))
	}

	if cfg.KeyPath == "" && cfg.Pass == "" {
		if signer := loadDefaultKey(cfg.KeyPass); signer != nil {
			methods = append(methods, xssh.PublicKeys(signer))
		}
	}

	if cfg.Agent {
		if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
			if conn, err := net.Dial("unix", sock); err == nil {
				methods = append(methods, xssh.PublicKeysCallback(agent.NewClient(conn).Signers))
			}
		}
	}

	if cfg.Pass != "" {
		methods = append(methods, xssh.Password(cfg.Pass))
	}

	if len(methods) == 0 {
		return nil, errdef.New(errdef.CodeTunnel, "no ssh auth methods available")
	}
	return methods, nil
}

func parseKey(data []byte, pass string) (xssh.Signer, error) {
	if pass == "" {
		return xssh.ParsePrivateKey(data)
	}
	return xssh.ParsePrivateKeyWithPassphrase(data, []byte(pass))
}

func loadDefaultKey(pass string) xssh.Signer {
	home := userHomeDir()
	if home == "" {
		return nil
	}
	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		data, err := os.ReadFile(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}
		signer, err := parseKey(data, pass)
		if err != nil {
			continue
		}
		return signer
	}
	return nil
}

func hostKeyCallback(cfg Cfg) (xssh.HostKeyCallback, error) {
	if !cfg.Strict {
		return xssh.InsecureIgnoreHostKey(), nil
	}
	if cfg.KnownHosts == "" {
		return nil, errdef.New(errdef.CodeTunnel, "strict host key checking requires a known_hosts file")
	}
	return knownhosts.New(cfg.KnownHosts)
}

func keepAliveLoop(cli Client, interval time.Duration, stop <-chan struct{}) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if _, _, err := cli.SendRequest("keepalive@openssh.com", true, nil); err != nil {
				return
			}
		}
	}
}

func closeSession(sess *session) error {
	if sess == nil {
		return nil
	}
	select {
	case <-sess.stop:
	default:
		close(sess.stop)
	}
	if sess.cli != nil {
		return sess.cli.Close()
	}
	return nil
}

func waitWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
