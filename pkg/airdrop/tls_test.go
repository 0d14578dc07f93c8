package airdrop

import (
	"crypto/tls"
	"testing"
)

func TestNewTLSConfigAcceptsUnverifiedPeers(t *testing.T) {
	id, err := LoadOrCreateIdentity(t.TempDir(), "", "Test Mac", "PC/Go", "en0")
	if err != nil {
		t.Fatalf("LoadOrCreateIdentity: %v", err)
	}

	cfg := NewTLSConfig(id)
	if !cfg.InsecureSkipVerify {
		t.Error("expected InsecureSkipVerify: peers self-sign and are never chain-validated")
	}
	if cfg.ClientAuth != tls.RequestClientCert {
		t.Errorf("ClientAuth = %v, want RequestClientCert (never require a client cert)", cfg.ClientAuth)
	}
	if len(cfg.Certificates) != 1 {
		t.Fatalf("expected exactly one leaf certificate, got %d", len(cfg.Certificates))
	}
	if cfg.MinVersion != tls.VersionTLS11 {
		t.Errorf("MinVersion = %v, want TLS 1.1", cfg.MinVersion)
	}
}
