package airdrop

import (
	"crypto/tls"
)

// NewTLSConfig builds the TLS configuration shared by the client and
// server halves of the protocol engine: it presents the local self-signed
// leaf certificate, trusts the bundled root CA bundle, and disables
// verification of the peer's certificate since AirDrop peers are
// self-signed and Apple's own implementation does the same.
//
// TLS 1.0 is explicitly excluded; everything from 1.1 up is negotiable.
func NewTLSConfig(id *Identity) *tls.Config {
	pool := id.RootCAPool()
	return &tls.Config{
		Certificates:       []tls.Certificate{id.leafCertificate},
		RootCAs:            pool,
		ClientCAs:          pool,
		MinVersion:         tls.VersionTLS11,
		InsecureSkipVerify: true,               // peers are self-signed; Apple accepts them unconditionally too
		ClientAuth:         tls.RequestClientCert, // request but never require or verify a peer cert
	}
}
