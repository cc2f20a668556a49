package ca

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthority(t *testing.T) *Authority {
	t.Helper()
	dir := t.TempDir()
	authority := New(Config{
		CertPath:      filepath.Join(dir, "ca-cert.pem"),
		KeyPath:       filepath.Join(dir, "ca-key.pem"),
		Product:       "test-directory",
		Org:           "Test Org",
		Unit:          "Test Unit",
		ValidityHours: 72,
		ServerDomain:  "example.test",
	})
	require.NoError(t, authority.Bootstrap())
	return authority
}

func generateCSR(t *testing.T, cn string) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.CertificateRequest{
		Subject:            pkix.Name{CommonName: cn},
		SignatureAlgorithm: x509.SHA256WithRSA,
	}
	der, err := x509.CreateCertificateRequest(rand.Reader, template, key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: der})
}

func TestBootstrapGeneratesThenLoadsRoot(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CertPath:      filepath.Join(dir, "ca-cert.pem"),
		KeyPath:       filepath.Join(dir, "ca-key.pem"),
		Product:       "test-directory",
		Org:           "Test",
		Unit:          "Test",
		ValidityHours: 72,
	}

	first := New(cfg)
	require.NoError(t, first.Bootstrap())
	pemBytes, err := first.GetCACertificate()
	require.NoError(t, err)
	require.NotEmpty(t, pemBytes)

	second := New(cfg)
	require.NoError(t, second.Bootstrap())
	reloaded, err := second.GetCACertificate()
	require.NoError(t, err)
	assert.Equal(t, pemBytes, reloaded)
}

func TestGetCACertificateBeforeBootstrap(t *testing.T) {
	authority := New(Config{CertPath: "unused", KeyPath: "unused"})
	_, err := authority.GetCACertificate()
	require.Error(t, err)
}

func TestSignCSRBindsCommonNameToUser(t *testing.T) {
	authority := newTestAuthority(t)
	csrPEM := generateCSR(t, "u1")

	result, err := authority.SignCSR(csrPEM, "u1", "")
	require.NoError(t, err)
	require.NotEmpty(t, result.CertificatePEM)

	block, _ := pem.Decode(result.CertificatePEM)
	require.NotNil(t, block)
	leaf, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)

	assert.Equal(t, "u1", leaf.Subject.CommonName)
	assert.Contains(t, leaf.DNSNames, "*.nip.io")
	assert.Contains(t, leaf.DNSNames, "*.example.test")
	assert.WithinDuration(t, leaf.NotAfter, leaf.NotBefore.Add(72*time.Hour), time.Second)

	caPEM, err := authority.GetCACertificate()
	require.NoError(t, err)
	caBlock, _ := pem.Decode(caPEM)
	caCert, err := x509.ParseCertificate(caBlock.Bytes)
	require.NoError(t, err)

	roots := x509.NewCertPool()
	roots.AddCert(caCert)
	_, err = leaf.Verify(x509.VerifyOptions{Roots: roots, KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny}})
	require.NoError(t, err)
}

func TestSignCSRRejectsCommonNameMismatch(t *testing.T) {
	authority := newTestAuthority(t)
	csrPEM := generateCSR(t, "someone-else")

	_, err := authority.SignCSR(csrPEM, "u1", "")
	require.Error(t, err)
}
