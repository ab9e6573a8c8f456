package sshx

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/unkn0wn-root/esterm/internal/errdef"
)

const (
	defaultPort    = 22
	defaultTimeout = 15 * time.Second
	defaultTTL     = 10 * time.Minute
)

type Cfg struct {
	Host       string
	Port       int
	User       string
	Pass       string
	KeyPath    string
	KeyPass    string
	Agent      bool
	KnownHosts string
	Strict     bool
	Timeout    time.Duration
	KeepAlive  time.Duration
	Retries    int
}

// ParseTarget turns a profile's bastion string ("user@host", "host:2222",
// "user@host:2222") into a dialable Cfg with agent auth and strict host key
// checking against ~/.ssh/known_hosts by default.
func ParseTarget(raw string) (Cfg, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return Cfg{}, errdef.New(errdef.CodeTunnel, "ssh target is empty")
	}

	cfg := Cfg{
		Port:      defaultPort,
		Agent:     true,
		Strict:    true,
		Timeout:   defaultTimeout,
		KeepAlive: 30 * time.Second,
		Retries:   1,
	}

	if at := strings.LastIndex(target, "@"); at >= 0 {
		cfg.User = target[:at]
		target = target[at+1:]
	}
	if host, port, err := net.SplitHostPort(target); err == nil {
		n, convErr := strconv.Atoi(port)
		if convErr != nil || n <= 0 || n > 65535 {
			return Cfg{}, errdef.New(errdef.CodeTunnel, "invalid ssh port %q", port)
		}
		cfg.Host = host
		cfg.Port = n
	} else {
		cfg.Host = target
	}
	if cfg.Host == "" {
		return Cfg{}, errdef.New(errdef.CodeTunnel, "ssh host is required")
	}

	kh, err := defaultKnownHosts()
	if err != nil {
		return Cfg{}, err
	}
	cfg.KnownHosts = kh
	return cfg, nil
}

func defaultKnownHosts() (string, error) {
	home := userHomeDir()
	if home == "" {
		return "", errdef.New(errdef.CodeTunnel, "cannot resolve home directory for known_hosts")
	}
	return filepath.Join(home, ".ssh", "known_hosts"), nil
}

func userHomeDir() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return dir
}

// ExpandPath resolves "~" and environment references in key paths so
// profiles stay portable across machines.
func ExpandPath(p string) (string, error) {
	path := strings.TrimSpace(p)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~") {
		home := userHomeDir()
		if home == "" {
			return "", errdef.New(errdef.CodeTunnel, "cannot resolve home directory for ssh path")
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(os.ExpandEnv(path)), nil
}

func cacheKey(cfg Cfg) string {
	parts := []string{
		cfg.Host,
		strconv.Itoa(cfg.Port),
		cfg.User,
		authFingerprint(cfg),
		cfg.KnownHosts,
		boolKey(cfg.Strict),
		boolKey(cfg.Agent),
		cfg.Timeout.String(),
		cfg.KeepAlive.String(),
	}
	return strings.Join(parts, "|")
}

func authFingerprint(cfg Cfg) string {
	var parts []string
	if cfg.KeyPath != "" {
		parts = append(parts, "key:"+cfg.KeyPath)
	}
	if cfg.Pass != "" {
		parts = append(parts, "pass:"+hashSecret(cfg.Pass))
	}
	if cfg.KeyPass != "" {
		parts = append(parts, "keypass:"+hashSecret(cfg.KeyPass))
	}
	if len(parts) == 0 {
		return "noauth"
	}
	return strings.Join(parts, ",")
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func boolKey(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
