// Package ca implements the private Certificate Authority of spec.md §4.6:
// a self-contained X.509 issuer that generates its own root on first boot
// and signs short-lived leaf certificates from client CSRs, binding the
// leaf's Common Name to the authenticated user id.
//
// x509 certificate construction is stdlib-only by necessity: no example in
// the retrieval pack pulls in a third-party CA/issuance library (cfssl,
// smallstep, etc.) and crypto/x509 is the idiomatic, complete tool for this
// job — see DESIGN.md.
package ca

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // key identifiers, not a security boundary
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Yundera/mesh-router-backend/server/status"
)

// Config configures the root certificate's identity and file locations.
type Config struct {
	CertPath      string
	KeyPath       string
	Product       string
	Org           string
	Unit          string
	ValidityHours int    // leaf certificate validity, default 72
	ServerDomain  string // optional; if set, leaves also get a "*.<ServerDomain>" SAN entry
}

const rootValidity = 10 * 365 * 24 * time.Hour

// Authority is the CA's in-memory state, populated once by Bootstrap and
// read-only thereafter.
type Authority struct {
	cfg Config

	mu        sync.RWMutex
	caCert    *x509.Certificate
	caKey     *rsa.PrivateKey
	caCertPEM []byte
}

// New creates an uninitialized Authority; call Bootstrap before serving requests.
func New(cfg Config) *Authority {
	if cfg.ValidityHours <= 0 {
		cfg.ValidityHours = 72
	}
	return &Authority{cfg: cfg}
}

// Bootstrap generates a root keypair/certificate on first boot, or loads an
// existing one from cfg.CertPath/cfg.KeyPath. A parse failure on an existing
// pair is fatal: the caller should treat it as a startup error.
func (a *Authority) Bootstrap() error {
	_, certErr := os.Stat(a.cfg.CertPath)
	_, keyErr := os.Stat(a.cfg.KeyPath)

	if os.IsNotExist(certErr) || os.IsNotExist(keyErr) {
		return a.generateRoot()
	}

	return a.loadRoot()
}

func (a *Authority) generateRoot() error {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("generate CA key: %w", err)
	}

	subject := pkix.Name{
		CommonName:         a.cfg.Product,
		Organization:       []string{a.cfg.Org},
		OrganizationalUnit: []string{a.cfg.Unit},
	}

	skid := subjectKeyID(&key.PublicKey)

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               subject,
		Issuer:                subject,
		NotBefore:             now,
		NotAfter:              now.Add(rootValidity),
		BasicConstraintsValid: true,
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		SubjectKeyId:          skid,
		SignatureAlgorithm:    x509.SHA256WithRSA,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("create root certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	if dir := filepath.Dir(a.cfg.CertPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create CA cert dir: %w", err)
		}
	}
	if dir := filepath.Dir(a.cfg.KeyPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create CA key dir: %w", err)
		}
	}
	if err := os.WriteFile(a.cfg.CertPath, certPEM, 0644); err != nil {
		return fmt.Errorf("write CA cert: %w", err)
	}
	if err := os.WriteFile(a.cfg.KeyPath, keyPEM, 0600); err != nil {
		return fmt.Errorf("write CA key: %w", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return fmt.Errorf("parse freshly generated CA certificate: %w", err)
	}

	a.mu.Lock()
	a.caCert = cert
	a.caKey = key
	a.caCertPEM = certPEM
	a.mu.Unlock()
	return nil
}

func (a *Authority) loadRoot() error {
	certPEM, err := os.ReadFile(a.cfg.CertPath)
	if err != nil {
		return fmt.Errorf("read CA cert: %w", err)
	}
	keyPEM, err := os.ReadFile(a.cfg.KeyPath)
	if err != nil {
		return fmt.Errorf("read CA key: %w", err)
	}

	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil {
		return fmt.Errorf("decode CA cert PEM: no block found in %s", a.cfg.CertPath)
	}
	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return fmt.Errorf("parse CA cert: %w", err)
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return fmt.Errorf("decode CA key PEM: no block found in %s", a.cfg.KeyPath)
	}
	key, err := x509.ParsePKCS1PrivateKey(keyBlock.Bytes)
	if err != nil {
		return fmt.Errorf("parse CA key: %w", err)
	}

	a.mu.Lock()
	a.caCert = cert
	a.caKey = key
	a.caCertPEM = certPEM
	a.mu.Unlock()
	return nil
}

// GetCACertificate returns the cached root certificate PEM bytes.
func (a *Authority) GetCACertificate() ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.caCertPEM == nil {
		return nil, status.NewCANotInitializedError()
	}
	return a.caCertPEM, nil
}

// SignResult is what SignCSR returns on success.
type SignResult struct {
	CertificatePEM []byte
	NotAfter       time.Time
}

// SignCSR signs a PEM-encoded PKCS#10 CSR on behalf of userID, binding the
// CSR's Common Name to it, and assembling the SAN list per spec.md §4.6 step 5.
func (a *Authority) SignCSR(csrPEM []byte, userID string, publicIP string) (*SignResult, error) {
	a.mu.RLock()
	caCert, caKey := a.caCert, a.caKey
	a.mu.RUnlock()
	if caCert == nil || caKey == nil {
		return nil, status.NewCANotInitializedError()
	}

	block, _ := pem.Decode(csrPEM)
	if block == nil {
		return nil, status.Errorf(status.InvalidArgument, "invalid CSR: no PEM block found")
	}
	csr, err := x509.ParseCertificateRequest(block.Bytes)
	if err != nil {
		return nil, status.Errorf(status.InvalidArgument, "invalid CSR: %v", err)
	}

	if err := csr.CheckSignature(); err != nil {
		return nil, status.Errorf(status.InvalidArgument, "invalid CSR signature: %v", err)
	}

	if csr.Subject.CommonName != userID {
		return nil, status.Errorf(status.InvalidArgument,
			"CSR common name %q does not match authenticated user %q", csr.Subject.CommonName, userID)
	}

	serial, err := randomSerial()
	if err != nil {
		return nil, fmt.Errorf("generate leaf serial: %w", err)
	}

	now := time.Now()
	notAfter := now.Add(time.Duration(a.cfg.ValidityHours) * time.Hour)

	var dnsNames []string
	if a.cfg.ServerDomain != "" {
		dnsNames = append(dnsNames, "*."+a.cfg.ServerDomain)
	}
	dnsNames = append(dnsNames, "*.nip.io")

	var ipAddrs []net.IP
	if publicIP != "" {
		if ip := net.ParseIP(publicIP); ip != nil {
			ipAddrs = append(ipAddrs, ip)
		}
	}

	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               csr.Subject,
		Issuer:                caCert.Subject,
		NotBefore:             now,
		NotAfter:              notAfter,
		BasicConstraintsValid: true,
		IsCA:                  false,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		DNSNames:              dnsNames,
		IPAddresses:           ipAddrs,
		SubjectKeyId:          subjectKeyID(csr.PublicKey),
		AuthorityKeyId:        caCert.SubjectKeyId,
		SignatureAlgorithm:    x509.SHA256WithRSA,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, caCert, csr.PublicKey, caKey)
	if err != nil {
		return nil, fmt.Errorf("sign leaf certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return &SignResult{CertificatePEM: certPEM, NotAfter: notAfter}, nil
}

func randomSerial() (*big.Int, error) {
	buf := make([]byte, 15)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	hexStr := fmt.Sprintf("00%x", buf)
	serial := new(big.Int)
	if _, ok := serial.SetString(hexStr, 16); !ok {
		return nil, fmt.Errorf("invalid serial hex: %s", hexStr)
	}
	return serial, nil
}

func subjectKeyID(pub interface{}) []byte {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil
	}
	sum := sha1.Sum(der)
	return sum[:]
}
