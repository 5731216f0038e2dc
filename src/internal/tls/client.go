// FILE: logship/src/internal/tls/client.go
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"logship/src/internal/config"

	"github.com/lixenwraith/log"
)

// Client holds the TLS settings the HTTP transport dials the ingestion
// endpoint with. A nil *Client means system defaults.
type Client struct {
	tlsConfig *tls.Config
	cert      *certReloader
	hasCA     bool
	logger    *log.Logger
}

// NewClient resolves the transport TLS settings. Returns nil when TLS
// customization is disabled.
func NewClient(cfg config.TLSClientConfig, logger *log.Logger) (*Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	minVersion, maxVersion, err := cfg.Versions()
	if err != nil {
		return nil, err
	}
	suites, err := cfg.CipherSuiteIDs()
	if err != nil {
		return nil, err
	}

	c := &Client{
		logger: logger,
		tlsConfig: &tls.Config{
			MinVersion:         minVersion,
			MaxVersion:         maxVersion,
			CipherSuites:       suites,
			ServerName:         cfg.ServerName,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}

	if cfg.ServerCAFile != "" {
		pool, err := loadRootCAs(cfg.ServerCAFile)
		if err != nil {
			return nil, err
		}
		c.tlsConfig.RootCAs = pool
		c.hasCA = true
	}

	switch {
	case cfg.ClientCertFile != "" && cfg.ClientKeyFile != "":
		reloader, err := newCertReloader(cfg.ClientCertFile, cfg.ClientKeyFile, logger)
		if err != nil {
			return nil, err
		}
		c.cert = reloader
		c.tlsConfig.GetClientCertificate = reloader.clientCertificate
	case cfg.ClientCertFile != "" || cfg.ClientKeyFile != "":
		return nil, fmt.Errorf("both client_cert_file and client_key_file must be provided for mTLS")
	}

	if cfg.InsecureSkipVerify {
		logger.Warn("msg", "Ingestion endpoint certificate will not be verified",
			"component", "tls")
	}
	logger.Info("msg", "TLS configured for ingestion endpoint",
		"component", "tls",
		"min_version", tls.VersionName(minVersion),
		"max_version", tls.VersionName(maxVersion),
		"mtls", c.cert != nil)
	return c, nil
}

// Config returns a copy of the dial configuration, nil for system defaults.
func (c *Client) Config() *tls.Config {
	if c == nil {
		return nil
	}
	return c.tlsConfig.Clone()
}

// GetStats reports the active TLS settings.
func (c *Client) GetStats() map[string]any {
	if c == nil {
		return map[string]any{"enabled": false}
	}
	stats := map[string]any{
		"enabled":              true,
		"min_version":          tls.VersionName(c.tlsConfig.MinVersion),
		"max_version":          tls.VersionName(c.tlsConfig.MaxVersion),
		"cipher_suites":        len(c.tlsConfig.CipherSuites),
		"custom_ca":            c.hasCA,
		"mtls":                 c.cert != nil,
		"insecure_skip_verify": c.tlsConfig.InsecureSkipVerify,
	}
	if c.cert != nil {
		stats["client_cert_reloads"] = c.cert.reloads.Load()
	}
	return stats
}

func loadRootCAs(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read server CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in server CA file %s", path)
	}
	return pool, nil
}

// certReloader serves the mTLS client certificate and picks up a rotated
// pair at the next handshake after the cert file changes.
type certReloader struct {
	certFile string
	keyFile  string
	logger   *log.Logger

	mu      sync.Mutex
	cert    *tls.Certificate
	modTime time.Time
	reloads atomic.Uint64
}

func newCertReloader(certFile, keyFile string, logger *log.Logger) (*certReloader, error) {
	r := &certReloader{certFile: certFile, keyFile: keyFile, logger: logger}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// load must be called with mu held once the reloader is shared
func (r *certReloader) load() error {
	info, err := os.Stat(r.certFile)
	if err != nil {
		return fmt.Errorf("failed to stat client cert: %w", err)
	}
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load client cert/key: %w", err)
	}
	r.cert = &cert
	r.modTime = info.ModTime()
	return nil
}

func (r *certReloader) clientCertificate(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Stat(r.certFile)
	if err != nil || !info.ModTime().After(r.modTime) {
		return r.cert, nil
	}

	// Half-written pairs fail to load; keep the previous one until then
	if err := r.load(); err != nil {
		r.logger.Warn("msg", "Client certificate reload failed, keeping previous",
			"component", "tls",
			"cert_file", r.certFile,
			"error", err)
		return r.cert, nil
	}
	r.reloads.Add(1)
	r.logger.Info("msg", "Client certificate reloaded",
		"component", "tls",
		"cert_file", r.certFile)
	return r.cert, nil
}
