package conn

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/unkn0wn-root/esterm/internal/errdef"
	"github.com/unkn0wn-root/esterm/internal/kubefwd"
	"github.com/unkn0wn-root/esterm/internal/sshx"
	"github.com/unkn0wn-root/esterm/internal/wire"
)

// Descriptor is a fully resolved connection: profile merged with its
// secrets, SSH target parsed, ready to mint wire requests.
type Descriptor struct {
	BaseURL   string
	AuthType  AuthType
	Username  string
	Password  string
	APIKey    string
	VerifyTLS bool
	CAFile    string
	SSH       *sshx.Cfg
	Kube      *kubefwd.Target
}

// Resolve merges a profile with its secrets. The profile copy is
// normalized first so descriptors built from hand-edited profile files
// still honor the credential hoisting rules.
func Resolve(p Profile, s Secrets) (Descriptor, error) {
	if err := Normalize(&p, &s); err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{
		BaseURL:   p.BaseURL,
		AuthType:  p.AuthType,
		Username:  p.Username,
		Password:  s.Password,
		APIKey:    s.APIKey,
		VerifyTLS: p.VerifyTLS,
		CAFile:    p.CAFile,
		Kube:      p.Kube,
	}
	if p.SSHTarget != "" {
		cfg, err := sshx.ParseTarget(p.SSHTarget)
		if err != nil {
			return Descriptor{}, errdef.Wrap(errdef.CodeProfile, err, "ssh target")
		}
		d.SSH = &cfg
	}
	return d, nil
}

// AuthorizationHeader returns the header value for the descriptor's auth
// scheme, or false when the scheme needs no header.
func (d Descriptor) AuthorizationHeader() (string, bool) {
	switch d.AuthType {
	case AuthBasic:
		if d.Username == "" && d.Password == "" {
			return "", false
		}
		token := base64.StdEncoding.EncodeToString([]byte(d.Username + ":" + d.Password))
		return "Basic " + token, true
	case AuthAPIKey:
		if d.APIKey == "" {
			return "", false
		}
		return "ApiKey " + d.APIKey, true
	}
	return "", false
}

// Request builds a wire request against the descriptor's base URL. The
// path is joined with exactly one slash; an empty path hits the root.
func (d Descriptor) Request(method, path, body string) wire.Request {
	target := d.BaseURL
	if path != "" {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		target += path
	}
	headers := make(map[string]string)
	if auth, ok := d.AuthorizationHeader(); ok {
		headers["Authorization"] = auth
	}
	if strings.TrimSpace(body) != "" {
		headers["Content-Type"] = "application/json"
	}
	return wire.Request{
		URL:     target,
		Method:  method,
		Headers: headers,
		Body:    body,
	}
}

// WireOptions assembles transport options for the descriptor. The SSH
// manager and forwarder are owned by the caller; nil means the relevant
// tunnel is not in play.
func (d Descriptor) WireOptions(timeout time.Duration, mgr *sshx.Manager, fwd *kubefwd.Forwarder) wire.Options {
	opts := wire.Options{
		Timeout:            timeout,
		InsecureSkipVerify: !d.VerifyTLS,
		CAFile:             d.CAFile,
	}
	if d.SSH != nil && mgr != nil {
		opts.SSH = &wire.SSHPlan{Manager: mgr, Config: *d.SSH}
	}
	if d.Kube != nil && fwd != nil {
		opts.Kube = &wire.KubePlan{Forwarder: fwd}
	}
	return opts
}
