package conn

import (
	"net/url"
	"strings"
	"time"

	"github.com/unkn0wn-root/esterm/internal/errdef"
	"github.com/unkn0wn-root/esterm/internal/kubefwd"
)

type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBasic  AuthType = "basic"
	AuthAPIKey AuthType = "apiKey"
)

// Profile is the persisted half of a connection. Password and API key live
// in the secret store, never in the profile file.
type Profile struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	BaseURL   string          `json:"baseUrl"`
	AuthType  AuthType        `json:"authType"`
	Username  string          `json:"username,omitempty"`
	VerifyTLS bool            `json:"verifyTls"`
	CAFile    string          `json:"caFile,omitempty"`
	SSHTarget string          `json:"sshTarget,omitempty"`
	Kube      *kubefwd.Target `json:"kubeTarget,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Secrets is the keyring-held half of a connection.
type Secrets struct {
	Password string `json:"password,omitempty"`
	APIKey   string `json:"apiKey,omitempty"`
}

func (s Secrets) Empty() bool {
	return s.Password == "" && s.APIKey == ""
}

// Normalize validates a profile for saving and enforces the credential
// invariant: a base URL that embeds user:pass while authType is none is
// hoisted to basic auth, and userinfo never survives into the stored URL.
func Normalize(p *Profile, s *Secrets) error {
	p.Name = strings.TrimSpace(p.Name)
	p.BaseURL = strings.TrimSpace(p.BaseURL)
	p.Username = strings.TrimSpace(p.Username)
	if p.Name == "" {
		return errdef.New(errdef.CodeProfile, "profile name is required")
	}
	if p.BaseURL == "" {
		return errdef.New(errdef.CodeProfile, "base url is required")
	}

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return errdef.Wrap(errdef.CodeProfile, err, "parse base url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errdef.New(errdef.CodeProfile, "base url must be http or https, got %q", p.BaseURL)
	}
	if u.Host == "" {
		return errdef.New(errdef.CodeProfile, "base url has no host: %q", p.BaseURL)
	}

	if p.AuthType == "" {
		p.AuthType = AuthNone
	}
	switch p.AuthType {
	case AuthNone, AuthBasic, AuthAPIKey:
	default:
		return errdef.New(errdef.CodeProfile, "unknown auth type %q", p.AuthType)
	}

	if user := u.User; user != nil {
		name := user.Username()
		pass, _ := user.Password()
		switch p.AuthType {
		case AuthNone:
			p.AuthType = AuthBasic
			p.Username = name
			s.Password = pass
		case AuthBasic:
			if p.Username == "" {
				p.Username = name
			}
			if s.Password == "" {
				s.Password = pass
			}
		}
		u.User = nil
	}

	u.Path = strings.TrimRight(u.Path, "/")
	p.BaseURL = strings.TrimRight(u.String(), "/")

	if p.Kube != nil {
		if err := p.Kube.Validate(); err != nil {
			return err
		}
	}
	return nil
}
