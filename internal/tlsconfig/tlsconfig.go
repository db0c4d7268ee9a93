// Package tlsconfig turns the [tls] settings into the client configuration
// used for secure hop connections.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"

	"github.com/unkn0wn-root/nethop/internal/config"
	"github.com/unkn0wn-root/nethop/internal/errdef"
)

// Build returns nil when the settings ask for nothing beyond the system
// defaults. Relative paths resolve against baseDir.
func Build(cfg config.TLSSettings, baseDir string) (*tls.Config, error) {
	if len(cfg.RootCAs) == 0 && cfg.ClientCert == "" && cfg.ClientKey == "" && !cfg.Insecure {
		return nil, nil
	}

	tc := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.Insecure, // nolint:gosec
	}

	if len(cfg.RootCAs) > 0 {
		pool, err := loadRootCAs(cfg.RootCAs, baseDir, cfg.RootMode != config.RootModeReplace)
		if err != nil {
			return nil, err
		}
		tc.RootCAs = pool
	}

	if cfg.ClientCert != "" || cfg.ClientKey != "" {
		if cfg.ClientCert == "" || cfg.ClientKey == "" {
			return nil, errdef.New(errdef.CodeConfig, "client certificate and key are both required")
		}
		cert, err := tls.LoadX509KeyPair(resolvePath(cfg.ClientCert, baseDir), resolvePath(cfg.ClientKey, baseDir))
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeConfig, err, "load client certificate")
		}
		tc.Certificates = []tls.Certificate{cert}
	}

	return tc, nil
}

func loadRootCAs(paths []string, baseDir string, mergeSystem bool) (*x509.CertPool, error) {
	var pool *x509.CertPool
	if mergeSystem {
		pool, _ = x509.SystemCertPool()
	}
	if pool == nil {
		pool = x509.NewCertPool()
	}

	for _, p := range paths {
		data, err := os.ReadFile(resolvePath(p, baseDir))
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeFilesystem, err, "read root ca %s", p)
		}
		if !pool.AppendCertsFromPEM(data) {
			return nil, errdef.New(errdef.CodeConfig, "no certificates found in %s", p)
		}
	}
	return pool, nil
}

func resolvePath(path, baseDir string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(baseDir, path))
}
