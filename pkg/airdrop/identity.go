package airdrop

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"math/big"
	mrand "math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/ralph-wren/opendrop/pkg/airdrop/certs"
)

const (
	leafKeyBits  = 2048
	leafValidity = 365 * 24 * time.Hour

	certFileName       = "certificate.pem"
	keyFileName        = "key.pem"
	validationFileName = "validation_record.cms"
)

// Identity is the per-process configuration a Sender or Receiver presents
// to peers: a stable service id, human-readable name/model, the
// capability bitmap advertised over mDNS, the interface all sockets are
// scoped to, and the key material backing the TLS context.
type Identity struct {
	ServiceID      string
	ComputerName   string
	ComputerModel  string
	Flags          uint32
	InterfaceName  string
	ValidationData []byte // verbatim pass-through blob, nil if absent

	leafCertificate tls.Certificate
	rootCAPEM       []byte
}

// LoadOrCreateIdentity builds an Identity for this process. It loads an
// existing key pair and certificate from keyDir, generating and
// persisting a new 2048-bit RSA key and 365-day self-signed certificate
// on first use. serviceID, if empty, is replaced by a random 48-bit value
// rendered as 12 lowercase hex digits.
func LoadOrCreateIdentity(keyDir, serviceID, computerName, computerModel, interfaceName string) (*Identity, error) {
	if serviceID == "" {
		var err error
		serviceID, err = randomServiceID()
		if err != nil {
			return nil, fmt.Errorf("generate service id: %w", err)
		}
	}

	cert, err := loadOrCreateCertificate(keyDir, computerName)
	if err != nil {
		return nil, err
	}

	id := &Identity{
		ServiceID:       serviceID,
		ComputerName:    computerName,
		ComputerModel:   computerModel,
		Flags:           DefaultReceiverFlags,
		InterfaceName:   interfaceName,
		leafCertificate: cert,
		rootCAPEM:       certs.RootCABundle,
	}

	recordPath := filepath.Join(keyDir, validationFileName)
	if data, err := os.ReadFile(recordPath); err == nil {
		id.ValidationData = data
	}

	return id, nil
}

// RootCAPool returns a cert pool containing the bundled root CA, used as
// the trust anchor in the TLS context factory.
func (id *Identity) RootCAPool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(id.rootCAPEM)
	return pool
}

func randomServiceID() (string, error) {
	b := make([]byte, 6) // 48 bits
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// loadOrCreateCertificate loads a PEM key pair from keyDir, generating one
// on first use. Mirrors the load-or-create pattern used for the rest of
// this codebase's on-disk key material: try to read, fall back to
// generate-then-persist with restrictive permissions.
func loadOrCreateCertificate(keyDir, commonName string) (tls.Certificate, error) {
	certPath := filepath.Join(keyDir, certFileName)
	keyPath := filepath.Join(keyDir, keyFileName)

	if cert, err := tls.LoadX509KeyPair(certPath, keyPath); err == nil {
		return cert, nil
	}

	if err := os.MkdirAll(keyDir, 0700); err != nil {
		return tls.Certificate{}, fmt.Errorf("create key directory %s: %w", keyDir, err)
	}

	certPEM, keyPEM, err := generateSelfSignedCert(commonName)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("generate self-signed certificate: %w", err)
	}

	if err := os.WriteFile(keyPath, keyPEM, 0600); err != nil {
		return tls.Certificate{}, fmt.Errorf("write key file %s: %w", keyPath, err)
	}
	if err := os.WriteFile(certPath, certPEM, 0644); err != nil {
		return tls.Certificate{}, fmt.Errorf("write certificate file %s: %w", certPath, err)
	}

	return tls.X509KeyPair(certPEM, keyPEM)
}

// generateSelfSignedCert produces a 2048-bit RSA key and a 365-day
// self-signed leaf certificate with CN=commonName, PEM-encoded.
func generateSelfSignedCert(commonName string) (certPEM, keyPEM []byte, err error) {
	key, err := rsa.GenerateKey(rand.Reader, leafKeyBits)
	if err != nil {
		return nil, nil, err
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, err
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(leafValidity),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, err
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return certPEM, keyPEM, nil
}

// newComputerName returns a best-effort default computer name when none
// is configured, mirroring the reference implementation's fallback to the
// machine hostname.
func newComputerName() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return fmt.Sprintf("opendrop-%d", mrand.Intn(1_000_000))
}
