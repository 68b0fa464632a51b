package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	fs := NewFileStorage(path)

	endpoints := []string{"http://1.2.3.4:8080", "socks5://5.6.7.8:1080"}
	if err := fs.Save(endpoints); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := fs.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d candidates, want 2", len(loaded))
	}

	got := map[string]bool{}
	for _, c := range loaded {
		got[c.Endpoint()] = true
	}
	for _, e := range endpoints {
		if !got[e] {
			t.Errorf("endpoint %s missing after round trip", e)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	fs := NewFileStorage(filepath.Join(t.TempDir(), "missing.txt"))
	loaded, err := fs.Load()
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty set, got %d", len(loaded))
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	content := "http://1.2.3.4:8080\n" +
		"garbage line\n" +
		"# comment\n" +
		"ftp://9.9.9.9:21\n" +
		"http://no-port\n" +
		"\n" +
		"5.6.7.8:3128\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	fs := NewFileStorage(path)
	loaded, err := fs.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d candidates, want 2 (malformed skipped)", len(loaded))
	}
	if loaded[1].Scheme != "http" {
		t.Errorf("bare host:port should default to http, got %q", loaded[1].Scheme)
	}
}
