// FILE: logship/src/internal/config/tls.go
package config

import (
	"crypto/tls"
	"fmt"
	"strings"
)

// TLSClientConfig configures TLS towards https ingestion endpoints.
type TLSClientConfig struct {
	Enabled bool `toml:"enabled"`

	// CA bundle used to verify the server, system roots when empty
	ServerCAFile string `toml:"server_ca_file"`

	// Client certificate for mTLS, reloaded when the file changes
	ClientCertFile string `toml:"client_cert_file"`
	ClientKeyFile  string `toml:"client_key_file"`

	ServerName string `toml:"server_name"`

	// "TLS1.2" or "TLS1.3"; defaults 1.2 and 1.3
	MinVersion string `toml:"min_version"`
	MaxVersion string `toml:"max_version"`

	// Comma-separated Go suite names, TLS 1.2 only
	CipherSuites string `toml:"cipher_suites"`

	InsecureSkipVerify bool `toml:"insecure_skip_verify"`
}

var tlsVersions = map[string]uint16{
	"TLS1.2": tls.VersionTLS12,
	"TLS12":  tls.VersionTLS12,
	"TLS1.3": tls.VersionTLS13,
	"TLS13":  tls.VersionTLS13,
}

// Versions resolves the configured protocol bounds.
func (c TLSClientConfig) Versions() (minVersion, maxVersion uint16, err error) {
	if minVersion, err = resolveTLSVersion("min_version", c.MinVersion, tls.VersionTLS12); err != nil {
		return 0, 0, err
	}
	if maxVersion, err = resolveTLSVersion("max_version", c.MaxVersion, tls.VersionTLS13); err != nil {
		return 0, 0, err
	}
	if minVersion > maxVersion {
		return 0, 0, fmt.Errorf("min_version %s is above max_version %s", c.MinVersion, c.MaxVersion)
	}
	return minVersion, maxVersion, nil
}

func resolveTLSVersion(field, name string, fallback uint16) (uint16, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return fallback, nil
	}
	v, ok := tlsVersions[name]
	if !ok {
		return 0, fmt.Errorf("invalid %s: %s (must be TLS1.2 or TLS1.3)", field, name)
	}
	return v, nil
}

// CipherSuiteIDs resolves cipher_suites against the suites crypto/tls
// considers secure. Nil means the Go defaults.
func (c TLSClientConfig) CipherSuiteIDs() ([]uint16, error) {
	if strings.TrimSpace(c.CipherSuites) == "" {
		return nil, nil
	}

	known := make(map[string]uint16)
	for _, suite := range tls.CipherSuites() {
		for _, v := range suite.SupportedVersions {
			// 1.3 suites are fixed by crypto/tls
			if v == tls.VersionTLS12 {
				known[suite.Name] = suite.ID
				break
			}
		}
	}

	var ids []uint16
	for _, name := range strings.Split(c.CipherSuites, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("unsupported cipher suite: %s", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func validateTLSClient(cfg *TLSClientConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if (cfg.ClientCertFile == "") != (cfg.ClientKeyFile == "") {
		return fmt.Errorf("both client_cert_file and client_key_file must be provided for mTLS")
	}

	minVersion, _, err := cfg.Versions()
	if err != nil {
		return err
	}

	suites, err := cfg.CipherSuiteIDs()
	if err != nil {
		return err
	}
	if len(suites) > 0 && minVersion == tls.VersionTLS13 {
		return fmt.Errorf("cipher_suites have no effect when min_version is TLS1.3")
	}

	return nil
}
