package audit

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
)

// Column widths of the audit tables, in characters.
const (
	MaxActionLength    = 100
	MaxSubjectLength   = 200
	MaxUsernameLength  = 150
	MaxUserAgentLength = 300
)

// Meta is the request information attached to every audit entry.
type Meta struct {
	IP        string
	UserAgent string
}

type metaKey struct{}

// WithMeta stores m in ctx.
func WithMeta(ctx context.Context, m Meta) context.Context {
	return context.WithValue(ctx, metaKey{}, m)
}

// MetaFrom returns the metadata stored in ctx, or the zero Meta.
func MetaFrom(ctx context.Context) Meta {
	m, _ := ctx.Value(metaKey{}).(Meta)
	return m
}

// Proxies is the set of networks allowed to report the client address in
// X-Forwarded-For. A nil or empty set trusts nobody and every request is
// attributed to its direct peer.
type Proxies struct {
	prefixes []netip.Prefix
}

// ParseProxies accepts CIDR blocks and bare addresses.
func ParseProxies(entries []string) (*Proxies, error) {
	p := &Proxies{}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			p.prefixes = append(p.prefixes, netip.PrefixFrom(prefix.Addr().Unmap(), unmappedBits(prefix)).Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		p.prefixes = append(p.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return p, nil
}

// unmappedBits converts the length of an IPv4-mapped IPv6 prefix to IPv4.
func unmappedBits(prefix netip.Prefix) int {
	if prefix.Addr().Is4In6() {
		return max(prefix.Bits()-96, 0)
	}
	return prefix.Bits()
}

func (p *Proxies) trusts(addr netip.Addr) bool {
	if p == nil {
		return false
	}
	for _, prefix := range p.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the caller's address, or "" when RemoteAddr does not
// parse. X-Forwarded-For is read only when the direct peer is a trusted
// proxy: hops are walked right to left and the first one outside the
// trusted set wins. A hop that is not an address stops the walk at the
// last good one.
func (p *Proxies) ClientIP(r *http.Request) string {
	peer, ok := parseRemoteAddr(r.RemoteAddr)
	if !ok {
		return ""
	}
	if !p.trusts(peer) {
		return peer.String()
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	client := peer
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		addr, err := netip.ParseAddr(hop)
		if err != nil {
			break
		}
		client = addr.Unmap()
		if !p.trusts(client) {
			break
		}
	}
	return client.String()
}

// Meta extracts the client address and user agent from r.
func (p *Proxies) Meta(r *http.Request) Meta {
	return Meta{
		IP:        p.ClientIP(r),
		UserAgent: TruncateUserAgent(r.UserAgent()),
	}
}

func parseRemoteAddr(remote string) (netip.Addr, bool) {
	if ap, err := netip.ParseAddrPort(remote); err == nil {
		return ap.Addr().Unmap(), true
	}
	if addr, err := netip.ParseAddr(remote); err == nil {
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}

// TruncateUserAgent cuts ua to MaxUserAgentLength characters.
func TruncateUserAgent(ua string) string {
	return truncate(ua, MaxUserAgentLength)
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
