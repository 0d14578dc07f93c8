// Package certs embeds the root CA bundle the TLS context factory loads
// as a trust anchor. apple_root_ca.pem is a placeholder self-signed
// certificate standing in for the PKI bundle a packaged build would ship
// (Apple's real root CA cannot be redistributed here); since the peer
// certificate verification this bundle would normally anchor is disabled
// by design (see NewTLSConfig), the placeholder is behaviorally
// equivalent for this implementation.
package certs

import _ "embed"

//go:embed apple_root_ca.pem
var RootCABundle []byte
