package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hamed0406/certwatch/internal/domain"
)

const (
	DefaultPort    = "443"
	DefaultTimeout = 10 * time.Second
)

// TLSProber dials host:Port, completes a verified TLS handshake and reports
// the leaf certificate's expiry and issuer organization.
type TLSProber struct {
	Port    string
	Timeout time.Duration
	// RootCAs overrides the system trust store (tests, private CAs).
	RootCAs *x509.CertPool
	Clock   clockwork.Clock
}

func NewTLSProber(timeout time.Duration) *TLSProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TLSProber{
		Port:    DefaultPort,
		Timeout: timeout,
		Clock:   clockwork.NewRealClock(),
	}
}

var errNoPeerCertificate = errors.New("server presented no certificate")

func (p *TLSProber) Probe(ctx context.Context, host domain.Host) domain.CertificateResult {
	leaf, err := p.fetchLeaf(ctx, string(host))
	if err != nil {
		return domain.NewFailure(host, err)
	}
	issuer := ""
	if len(leaf.Issuer.Organization) > 0 {
		issuer = leaf.Issuer.Organization[0]
	}
	return domain.NewResult(host, leaf.NotAfter, issuer, p.Clock.Now())
}

func (p *TLSProber) fetchLeaf(ctx context.Context, host string) (*x509.Certificate, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	d := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: p.Timeout},
		Config: &tls.Config{
			ServerName: host,
			RootCAs:    p.RootCAs,
			MinVersion: tls.VersionTLS12,
		},
	}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, p.port()))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	tc, ok := conn.(*tls.Conn)
	if !ok {
		return nil, fmt.Errorf("unexpected connection type %T", conn)
	}
	certs := tc.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil, errNoPeerCertificate
	}
	return certs[0], nil
}

func (p *TLSProber) port() string {
	if p.Port == "" {
		return DefaultPort
	}
	return p.Port
}
