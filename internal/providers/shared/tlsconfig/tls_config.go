// Package tlsconfig turns a context's tls block into a crypto/tls client
// config. NSX managers ship with self-signed certificates, so the common
// setups are a pinned CA file or an explicit insecure-skip-verify opt-in.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/faults"
)

// BuildTLSConfig builds the client TLS config for one context scope (the
// scope names the config block in error messages, e.g. "manager"). A nil tls
// block yields a nil config so the caller keeps the transport defaults.
func BuildTLSConfig(tlsSettings *config.TLS, scope string) (*tls.Config, error) {
	if tlsSettings == nil {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: tlsSettings.InsecureSkipVerify,
	}

	if err := pinRootCAs(tlsConfig, tlsSettings.CACertFile, scope); err != nil {
		return nil, err
	}
	if err := attachClientPair(tlsConfig, tlsSettings, scope); err != nil {
		return nil, err
	}
	return tlsConfig, nil
}

func pinRootCAs(tlsConfig *tls.Config, caCertFile string, scope string) error {
	caPath := strings.TrimSpace(caCertFile)
	if caPath == "" {
		return nil
	}

	pemBytes, err := os.ReadFile(caPath)
	if err != nil {
		return tlsError(scope, "ca-cert-file could not be read", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemBytes) {
		return tlsError(scope, "ca-cert-file carries no usable PEM certificate", nil)
	}
	tlsConfig.RootCAs = pool
	return nil
}

func attachClientPair(tlsConfig *tls.Config, tlsSettings *config.TLS, scope string) error {
	certFile := strings.TrimSpace(tlsSettings.ClientCertFile)
	keyFile := strings.TrimSpace(tlsSettings.ClientKeyFile)

	switch {
	case certFile == "" && keyFile == "":
		return nil
	case certFile == "" || keyFile == "":
		return tlsError(scope, "client-cert-file and client-key-file must be set together", nil)
	}

	pair, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return tlsError(scope, "client certificate pair is invalid", err)
	}
	tlsConfig.Certificates = []tls.Certificate{pair}
	return nil
}

func tlsError(scope string, message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, fmt.Sprintf("%s.tls %s", scope, message), cause)
}
