package intel

import (
	"context"
	"fmt"
	"net"
	"strings"
)

const selfIPURL = "https://api.ipify.org"

// ResolveTarget turns the user-supplied target into an IP string. An empty
// target auto-detects the caller's own public IP through the dispatcher; a
// hostname is resolved via DNS and falls back to the raw input when
// resolution fails, so the providers get a chance to reject it themselves.
func (a *App) ResolveTarget(ctx context.Context, target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		res, err := a.dispatcher.Get(ctx, selfIPURL)
		if err != nil {
			return "", fmt.Errorf("could not auto-detect own IP: %w", err)
		}
		ip := strings.TrimSpace(string(res.Body))
		if net.ParseIP(ip) == nil {
			return "", fmt.Errorf("could not auto-detect own IP: unexpected response %q", ip)
		}
		return ip, nil
	}

	if net.ParseIP(target) != nil {
		return target, nil
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", target)
	if err != nil || len(ips) == 0 {
		return target, nil
	}
	return ips[0].String(), nil
}
