// Package connectivity gates outbound traffic on network reachability so
// requests fail fast with a distinguishable error instead of burning a full
// transport timeout while offline.
package connectivity

import (
	"context"
	"net"
	"net/url"
	"time"
)

// Checker reports whether the network path to the platform is usable.
type Checker interface {
	Online(ctx context.Context) bool
}

// Probe dials the API host with a short timeout to decide reachability.
type Probe struct {
	host    string
	timeout time.Duration
	dial    func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewProbe builds a Probe for the given API base URL. The default port is
// inferred from the URL scheme when the host carries none.
func NewProbe(baseURL string) (*Probe, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	host := u.Host
	if u.Port() == "" {
		port := "443"
		if u.Scheme == "http" {
			port = "80"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}

	dialer := &net.Dialer{}
	return &Probe{
		host:    host,
		timeout: 3 * time.Second,
		dial:    dialer.DialContext,
	}, nil
}

// Online reports whether a TCP connection to the API host succeeds.
func (p *Probe) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dial(ctx, "tcp", p.host)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Static is a fixed-answer Checker for tests and for callers that want the
// gate disabled.
type Static bool

// Online returns the configured answer.
func (s Static) Online(context.Context) bool { return bool(s) }
