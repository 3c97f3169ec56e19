package sanitize

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/nikhilbhutani/narrator/internal/apperr"
)

// Resolver looks up the addresses of a host. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// blockedPrefixes covers special-purpose ranges the netip predicates miss.
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("64:ff9b::/96"),
	netip.MustParsePrefix("64:ff9b:1::/48"),
}

// URLGuard rejects URLs that could reach loopback, private or link-local
// networks.
type URLGuard struct {
	resolver Resolver
	allowed  []netip.Prefix
}

type GuardOption func(*URLGuard)

func WithResolver(r Resolver) GuardOption {
	return func(g *URLGuard) { g.resolver = r }
}

// WithAllowedNetworks exempts the given prefixes from the address checks.
func WithAllowedNetworks(prefixes ...netip.Prefix) GuardOption {
	return func(g *URLGuard) { g.allowed = append(g.allowed, prefixes...) }
}

func NewURLGuard(opts ...GuardOption) *URLGuard {
	g := &URLGuard{resolver: net.DefaultResolver}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check parses raw and verifies that every address its host resolves to is
// publicly routable. It performs DNS lookups but never contacts the host.
func (g *URLGuard) Check(ctx context.Context, raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperr.New(apperr.UnsafeURL, "url is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, apperr.Wrap(apperr.UnsafeURL, err, "invalid url format")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, apperr.New(apperr.UnsafeURL, "only http and https urls are allowed")
	}
	if u.User != nil {
		return nil, apperr.New(apperr.UnsafeURL, "urls with credentials are not allowed")
	}

	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" {
		return nil, apperr.New(apperr.UnsafeURL, "url has no host")
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return nil, apperr.New(apperr.UnsafeURL, "local urls are not allowed")
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if err := g.CheckAddr(addr); err != nil {
			return nil, err
		}
		return u, nil
	}

	addrs, err := g.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, apperr.Wrap(apperr.FetchError, err, "could not resolve host %q", host)
	}
	if len(addrs) == 0 {
		return nil, apperr.New(apperr.FetchError, "host %q has no addresses", host)
	}
	for _, a := range addrs {
		addr, ok := netip.AddrFromSlice(a.IP)
		if !ok {
			return nil, apperr.New(apperr.UnsafeURL, "host %q resolved to an invalid address", host)
		}
		if err := g.CheckAddr(addr); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// CheckAddr rejects non-public addresses unless explicitly allowed.
func (g *URLGuard) CheckAddr(addr netip.Addr) error {
	addr = addr.Unmap()
	for _, p := range g.allowed {
		if p.Contains(addr) {
			return nil
		}
	}

	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() || addr.IsMulticast() {
		return apperr.New(apperr.UnsafeURL, "address %s is not publicly routable", addr)
	}
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return apperr.New(apperr.UnsafeURL, "address %s is in reserved range %s", addr, p)
		}
	}
	return nil
}

// Dialer returns a dialer that re-checks the resolved address at connect
// time, so a host cannot pass Check and then resolve to a private address.
func (g *URLGuard) Dialer(timeout time.Duration) *net.Dialer {
	return &net.Dialer{
		Timeout: timeout,
		Control: func(network, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return fmt.Errorf("split dial address: %w", err)
			}
			addr, err := netip.ParseAddr(host)
			if err != nil {
				return fmt.Errorf("parse dial address: %w", err)
			}
			return g.CheckAddr(addr)
		},
	}
}
