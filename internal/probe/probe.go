package probe

import (
	"context"

	"github.com/hamed0406/certwatch/internal/domain"
)

// Prober reads the certificate of a single host.
//
// Implementations never return an error: every failure (DNS, connect,
// handshake, missing certificate) comes back as a result whose Error field is
// set and whose certificate fields hold the domain sentinels.
type Prober interface {
	Probe(ctx context.Context, host domain.Host) domain.CertificateResult
}

// Func adapts a plain function to the Prober interface.
type Func func(ctx context.Context, host domain.Host) domain.CertificateResult

func (f Func) Probe(ctx context.Context, host domain.Host) domain.CertificateResult {
	return f(ctx, host)
}
