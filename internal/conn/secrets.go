package conn

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/99designs/keyring"

	"github.com/unkn0wn-root/esterm/internal/errdef"
)

const serviceName = "esterm"

// SecretStore keeps per-profile credentials in the OS keyring, falling
// back to an encrypted file under dir when no native backend exists.
type SecretStore struct {
	mu   sync.Mutex
	ring keyring.Keyring
}

func OpenSecrets(dir string) (*SecretStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:              serviceName,
		KeychainTrustApplication: true,
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt(serviceName),
	})
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeSecret, err, "open keyring")
	}
	return &SecretStore{ring: ring}, nil
}

// NewSecretStoreWith wraps an existing keyring. Tests pass an array
// keyring here.
func NewSecretStoreWith(ring keyring.Keyring) *SecretStore {
	return &SecretStore{ring: ring}
}

// Get returns the secrets for a profile. A missing entry is not an
// error; it resolves to empty secrets.
func (s *SecretStore) Get(profileID string) (Secrets, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.ring.Get(secretKey(profileID))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return Secrets{}, nil
		}
		return Secrets{}, errdef.Wrap(errdef.CodeSecret, err, "read secret")
	}
	var sec Secrets
	if err := json.Unmarshal(item.Data, &sec); err != nil {
		return Secrets{}, errdef.Wrap(errdef.CodeSecret, err, "decode secret")
	}
	return sec, nil
}

// Put stores the secrets for a profile. Empty secrets delete the entry
// instead, so stale credentials never linger after a profile is edited
// down to no auth.
func (s *SecretStore) Put(profileID string, sec Secrets) error {
	if sec.Empty() {
		return s.Delete(profileID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(sec)
	if err != nil {
		return errdef.Wrap(errdef.CodeSecret, err, "encode secret")
	}
	item := keyring.Item{
		Key:   secretKey(profileID),
		Data:  data,
		Label: serviceName + " profile " + profileID,
	}
	if err := s.ring.Set(item); err != nil {
		return errdef.Wrap(errdef.CodeSecret, err, "store secret")
	}
	return nil
}

func (s *SecretStore) Delete(profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.ring.Remove(secretKey(profileID))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return errdef.Wrap(errdef.CodeSecret, err, "remove secret")
	}
	return nil
}

func secretKey(profileID string) string {
	return "profile:" + profileID
}
