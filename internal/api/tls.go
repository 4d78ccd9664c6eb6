package api

import (
	"crypto/tls"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"
)

// TLSConfig names the certificate and key served by the API.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// TLSConfigFromEnv reads MAPCOLOR_TLS_CERT and MAPCOLOR_TLS_KEY. It returns
// nil unless both are set.
func TLSConfigFromEnv() *TLSConfig {
	cert, key := os.Getenv("MAPCOLOR_TLS_CERT"), os.Getenv("MAPCOLOR_TLS_KEY")
	if cert == "" || key == "" {
		return nil
	}
	return &TLSConfig{CertFile: cert, KeyFile: key}
}

func (c *TLSConfig) Enabled() bool {
	return c != nil && c.CertFile != "" && c.KeyFile != ""
}

// ServerConfig loads the key pair into a server-side tls.Config.
func (c *TLSConfig) ServerConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load key pair %s: %w", c.CertFile, err)
	}
	if leaf := cert.Leaf; leaf != nil && time.Now().After(leaf.NotAfter) {
		log.Printf("tls: certificate %s expired at %s", c.CertFile, leaf.NotAfter.Format(time.RFC3339))
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

var activeTLS atomic.Pointer[TLSConfig]

// InitTLS replaces the active TLS settings with those from the environment.
func InitTLS() { activeTLS.Store(TLSConfigFromEnv()) }

func IsTLSEnabled() bool { return activeTLS.Load().Enabled() }

func GetTLSConfig() *TLSConfig { return activeTLS.Load() }

func SetTLSConfigForTest(cfg *TLSConfig) { activeTLS.Store(cfg) }

// LoadTLSConfig returns the server tls.Config, or nil for plain HTTP. A key
// pair that fails to load is logged and also yields plain HTTP.
func LoadTLSConfig() *tls.Config {
	cfg := activeTLS.Load()
	if !cfg.Enabled() {
		return nil
	}
	sc, err := cfg.ServerConfig()
	if err != nil {
		log.Printf("tls: %v; serving plain HTTP", err)
		return nil
	}
	return sc
}
