// FILE: logship/src/internal/config/validation_test.go
package config

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig_Defaults(t *testing.T) {
	require.NoError(t, validateConfig(defaults()))
}

func TestValidateConfig(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{
			name:   "InvalidLogOutput",
			mutate: func(c *Config) { c.Logging.Output = "syslog" },
			errMsg: "invalid log output mode",
		},
		{
			name:   "InvalidLogLevel",
			mutate: func(c *Config) { c.Logging.Level = "trace" },
			errMsg: "invalid log level",
		},
		{
			name:   "ZeroCapacity",
			mutate: func(c *Config) { c.Buffer.CapacityBytes = 0 },
			errMsg: "capacity must be positive",
		},
		{
			name:   "ChunkLargerThanCapacity",
			mutate: func(c *Config) { c.Buffer.MaxChunkBytes = c.Buffer.CapacityBytes + 1 },
			errMsg: "exceeds capacity",
		},
		{
			name: "FastSlowerThanNormal",
			mutate: func(c *Config) {
				c.Buffer.FastIntervalMS = 800
				c.Buffer.NormalIntervalMS = 400
			},
			errMsg: "slower than normal interval",
		},
		{
			name:   "MissingURL",
			mutate: func(c *Config) { c.Transport.URL = "" },
			errMsg: "url is required",
		},
		{
			name:   "BadScheme",
			mutate: func(c *Config) { c.Transport.TimeURL = "ftp://example.com/time" },
			errMsg: "must use http or https",
		},
		{
			name:   "BackoffBelowOne",
			mutate: func(c *Config) { c.Transport.RetryBackoff = 0.5 },
			errMsg: "retry backoff",
		},
		{
			name:   "ZeroSendTimeout",
			mutate: func(c *Config) { c.Buffer.SendTimeoutMS = 0 },
			errMsg: "send timeout must be positive",
		},
		{
			name: "TLSCertWithoutKey",
			mutate: func(c *Config) {
				c.Transport.TLS = TLSClientConfig{Enabled: true, ClientCertFile: "/etc/logship/client.pem"}
			},
			errMsg: "client_key_file",
		},
		{
			name: "TLSBadVersion",
			mutate: func(c *Config) {
				c.Transport.TLS = TLSClientConfig{Enabled: true, MinVersion: "SSL3"}
			},
			errMsg: "invalid min_version",
		},
		{
			name: "TLSLegacyVersion",
			mutate: func(c *Config) {
				c.Transport.TLS = TLSClientConfig{Enabled: true, MinVersion: "TLS1.0"}
			},
			errMsg: "must be TLS1.2 or TLS1.3",
		},
		{
			name: "TLSMinAboveMax",
			mutate: func(c *Config) {
				c.Transport.TLS = TLSClientConfig{Enabled: true, MinVersion: "TLS1.3", MaxVersion: "TLS1.2"}
			},
			errMsg: "above max_version",
		},
		{
			name: "TLSUnknownCipher",
			mutate: func(c *Config) {
				c.Transport.TLS = TLSClientConfig{Enabled: true, CipherSuites: "TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,TLS_RSA_WITH_RC4_128_SHA"}
			},
			errMsg: "unsupported cipher suite: TLS_RSA_WITH_RC4_128_SHA",
		},
		{
			name: "TLSCiphersWithTLS13Only",
			mutate: func(c *Config) {
				c.Transport.TLS = TLSClientConfig{Enabled: true, MinVersion: "TLS1.3", CipherSuites: "TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256"}
			},
			errMsg: "no effect",
		},
		{
			name:   "UnknownPolicy",
			mutate: func(c *Config) { c.RateLimit.Policy = "block" },
			errMsg: "invalid rate limit policy",
		},
		{
			name:   "UnknownSourceType",
			mutate: func(c *Config) { c.Source.Type = "syslog" },
			errMsg: "invalid source type",
		},
		{
			name:   "FileSourceWithoutPath",
			mutate: func(c *Config) { c.Source.Type = "file" },
			errMsg: "requires a path",
		},
		{
			name:   "UnknownSeverity",
			mutate: func(c *Config) { c.Source.DefaultSeverity = "loud" },
			errMsg: "unknown severity",
		},
		{
			name: "BadFilterRegex",
			mutate: func(c *Config) {
				c.Source.Filters = []FilterConfig{{Type: FilterTypeInclude, Patterns: []string{"["}}}
			},
			errMsg: "invalid regex",
		},
		{
			name: "BadFilterLogic",
			mutate: func(c *Config) {
				c.Source.Filters = []FilterConfig{{Logic: "xor"}}
			},
			errMsg: "invalid logic",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaults()
			tc.mutate(cfg)

			err := validateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestValidateTLSClient_DisabledIgnoresFields(t *testing.T) {
	assert.NoError(t, validateTLSClient(&TLSClientConfig{ClientCertFile: "only-cert.pem", MinVersion: "bogus"}))
}

func TestTLSClientConfig_Versions(t *testing.T) {
	minVersion, maxVersion, err := TLSClientConfig{}.Versions()
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS12), minVersion)
	assert.Equal(t, uint16(tls.VersionTLS13), maxVersion)

	minVersion, maxVersion, err = TLSClientConfig{MinVersion: "tls13", MaxVersion: " TLS1.3 "}.Versions()
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS13), minVersion)
	assert.Equal(t, uint16(tls.VersionTLS13), maxVersion)
}

func TestTLSClientConfig_CipherSuiteIDs(t *testing.T) {
	ids, err := TLSClientConfig{}.CipherSuiteIDs()
	require.NoError(t, err)
	assert.Nil(t, ids)

	ids, err = TLSClientConfig{CipherSuites: "TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256, TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,"}.CipherSuiteIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint16{
		tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
	}, ids)

	// 1.3 suites cannot be selected
	_, err = TLSClientConfig{CipherSuites: "TLS_AES_128_GCM_SHA256"}.CipherSuiteIDs()
	assert.Error(t, err)
}

func TestDurations(t *testing.T) {
	b := DefaultBufferConfig()
	assert.Equal(t, "500ms", b.NormalInterval().String())
	assert.Equal(t, "100ms", b.FastInterval().String())
	assert.Equal(t, "5m0s", b.SyncInterval().String())
	assert.Equal(t, "2m0s", b.SendTimeout().String())
	assert.Equal(t, "5s", b.ShutdownTimeout().String())

	tr := DefaultTransportConfig()
	assert.Equal(t, "30s", tr.Timeout().String())
}

func TestCustomEnvTransform(t *testing.T) {
	assert.Equal(t, "LOGSHIP_BUFFER_CAPACITY_BYTES", customEnvTransform("buffer.capacity_bytes"))
	assert.Equal(t, "LOGSHIP_TRANSPORT_URL", customEnvTransform("transport.url"))
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("LOGSHIP_CONFIG_FILE", "/etc/logship/custom.toml")
	assert.Equal(t, "/etc/logship/custom.toml", GetConfigPath())

	t.Setenv("LOGSHIP_CONFIG_FILE", "custom.toml")
	t.Setenv("LOGSHIP_CONFIG_DIR", "/opt/conf")
	assert.Equal(t, "/opt/conf/custom.toml", GetConfigPath())

	t.Setenv("LOGSHIP_CONFIG_FILE", "")
	assert.Equal(t, "/opt/conf/logship.toml", GetConfigPath())
}
