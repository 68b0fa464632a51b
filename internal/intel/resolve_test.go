package intel

import (
	"context"
	"path/filepath"
	"testing"

	"geointel/internal/shared/types"
)

func testApp(t *testing.T) *App {
	t.Helper()
	cfg := &types.Config{}
	cfg.ApplyDefaults()
	cfg.PoolConf.StoragePath = filepath.Join(t.TempDir(), "proxies.txt")
	return New(cfg)
}

func TestResolveTargetIPPassthrough(t *testing.T) {
	a := testApp(t)

	ip, err := a.ResolveTarget(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ip != "8.8.8.8" {
		t.Errorf("IP target must pass through unchanged, got %q", ip)
	}
}

func TestResolveTargetTrimsWhitespace(t *testing.T) {
	a := testApp(t)

	ip, err := a.ResolveTarget(context.Background(), "  8.8.8.8  ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ip != "8.8.8.8" {
		t.Errorf("whitespace not trimmed, got %q", ip)
	}
}

func TestResolveTargetUnresolvableHostnameFallsBack(t *testing.T) {
	a := testApp(t)

	// DNS failure is not fatal: the raw input goes through so the providers
	// can reject it themselves.
	ip, err := a.ResolveTarget(context.Background(), "definitely-not-a-real-host.invalid")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ip != "definitely-not-a-real-host.invalid" {
		t.Errorf("unresolvable hostname must fall back to the raw input, got %q", ip)
	}
}
