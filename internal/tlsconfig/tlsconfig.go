package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"

	"github.com/unkn0wn-root/esterm/internal/errdef"
)

type Files struct {
	Insecure   bool
	CAFile     string
	ClientCert string
	ClientKey  string
}

// Build assembles a tls.Config from file references. Relative paths resolve
// against baseDir. A custom CA bundle is appended to the system pool rather
// than replacing it.
func Build(files Files, baseDir string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if files.Insecure {
		cfg.InsecureSkipVerify = true
	}

	if files.CAFile != "" {
		path := resolve(files.CAFile, baseDir)
		pem, err := os.ReadFile(path)
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeFilesystem, err, "read ca bundle %s", path)
		}
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errdef.New(errdef.CodeHTTP, "no certificates found in %s", path)
		}
		cfg.RootCAs = pool
	}

	if files.ClientCert != "" || files.ClientKey != "" {
		if files.ClientCert == "" || files.ClientKey == "" {
			return nil, errdef.New(errdef.CodeHTTP, "client certificate and key must be provided together")
		}
		cert, err := tls.LoadX509KeyPair(resolve(files.ClientCert, baseDir), resolve(files.ClientKey, baseDir))
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeHTTP, err, "load client certificate")
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}

func resolve(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
