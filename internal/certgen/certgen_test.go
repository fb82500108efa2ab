package certgen_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/atinyakov/WardrobeKeeper/internal/certgen"
	"github.com/atinyakov/WardrobeKeeper/internal/client/gateway"
)

func parseCert(t *testing.T, certPEM []byte) *x509.Certificate {
	t.Helper()
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatalf("not a certificate PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse cert: %v", err)
	}
	return cert
}

func TestIssueServer_VerifiesAgainstCA(t *testing.T) {
	ca, err := certgen.NewAuthority("Test CA")
	if err != nil {
		t.Fatalf("NewAuthority failed: %v", err)
	}
	certPEM, keyPEM, err := ca.IssueServer("localhost", "127.0.0.1")
	if err != nil {
		t.Fatalf("IssueServer failed: %v", err)
	}
	if _, err := tls.X509KeyPair(certPEM, keyPEM); err != nil {
		t.Fatalf("certificate and key do not match: %v", err)
	}

	cert := parseCert(t, certPEM)
	if cert.Subject.CommonName != "localhost" {
		t.Errorf("CommonName = %q; want localhost", cert.Subject.CommonName)
	}
	if len(cert.IPAddresses) != 1 || !cert.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")) {
		t.Errorf("IPAddresses = %v", cert.IPAddresses)
	}

	roots := x509.NewCertPool()
	roots.AddCert(ca.Cert)
	for _, host := range []string{"localhost", "127.0.0.1"} {
		if _, err := cert.Verify(x509.VerifyOptions{Roots: roots, DNSName: host}); err != nil {
			t.Errorf("verify for %s: %v", host, err)
		}
	}
	if _, err := cert.Verify(x509.VerifyOptions{Roots: roots, DNSName: "example.com"}); err == nil {
		t.Error("expected verification to fail for a host not in the SANs")
	}
}

func TestIssueServer_NoHosts(t *testing.T) {
	ca, _ := certgen.NewAuthority("Test CA")
	if _, _, err := ca.IssueServer(); err == nil {
		t.Error("expected error without hosts")
	}
}

func TestLoadAuthority_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := certgen.WriteDevCerts(dir, "localhost"); err != nil {
		t.Fatalf("WriteDevCerts failed: %v", err)
	}

	ca, err := certgen.LoadAuthority(filepath.Join(dir, certgen.CACertFile), filepath.Join(dir, certgen.CAKeyFile))
	if err != nil {
		t.Fatalf("LoadAuthority failed: %v", err)
	}
	if !ca.Cert.IsCA {
		t.Error("loaded certificate should be a CA")
	}
	if _, _, err := ca.IssueServer("localhost"); err != nil {
		t.Errorf("loaded CA cannot sign: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, certgen.ServerKeyFile))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("server key mode = %v; want 0600", info.Mode().Perm())
	}
}

func TestLoadAuthority_RSAKey(t *testing.T) {
	dir := t.TempDir()
	ca, _ := certgen.NewAuthority("Test CA")
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	certPath := filepath.Join(dir, "ca.crt")
	keyPath := filepath.Join(dir, "ca.key")
	_ = os.WriteFile(certPath, ca.CertPEM(), 0o600)
	_ = os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(rsaKey)}), 0o600)

	loaded, err := certgen.LoadAuthority(certPath, keyPath)
	if err != nil {
		t.Fatalf("LoadAuthority failed: %v", err)
	}
	if _, ok := loaded.Key.(*rsa.PrivateKey); !ok {
		t.Errorf("key type = %T; want *rsa.PrivateKey", loaded.Key)
	}
}

func TestLoadAuthority_Errors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pem")
	_ = os.WriteFile(garbage, []byte("not pem"), 0o600)

	if err := certgen.WriteDevCerts(dir, "localhost"); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name      string
		cert, key string
	}{
		{"missing cert", filepath.Join(dir, "nope.crt"), filepath.Join(dir, certgen.CAKeyFile)},
		{"missing key", filepath.Join(dir, certgen.CACertFile), filepath.Join(dir, "nope.key")},
		{"bad cert pem", garbage, filepath.Join(dir, certgen.CAKeyFile)},
		{"bad key pem", filepath.Join(dir, certgen.CACertFile), garbage},
		{"leaf is not a CA", filepath.Join(dir, certgen.ServerCertFile), filepath.Join(dir, certgen.ServerKeyFile)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := certgen.LoadAuthority(tt.cert, tt.key); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// TestDevCerts_GatewayClientTrustsServer serves HTTPS with the generated
// server pair and connects with the wardrobe client's CA-pinned transport.
func TestDevCerts_GatewayClientTrustsServer(t *testing.T) {
	dir := t.TempDir()
	if err := certgen.WriteDevCerts(dir, "127.0.0.1"); err != nil {
		t.Fatalf("WriteDevCerts failed: %v", err)
	}
	pair, err := tls.LoadX509KeyPair(filepath.Join(dir, certgen.ServerCertFile), filepath.Join(dir, certgen.ServerKeyFile))
	if err != nil {
		t.Fatalf("load server pair: %v", err)
	}

	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	srv.TLS = &tls.Config{Certificates: []tls.Certificate{pair}}
	srv.StartTLS()
	defer srv.Close()

	client, err := gateway.NewHTTPClient(filepath.Join(dir, certgen.CACertFile))
	if err != nil {
		t.Fatalf("NewHTTPClient failed: %v", err)
	}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET over generated TLS failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
