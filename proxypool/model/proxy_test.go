package model

import "testing"

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare host port", "1.2.3.4:8080", "http://1.2.3.4:8080", false},
		{"explicit http", "http://1.2.3.4:8080", "http://1.2.3.4:8080", false},
		{"socks5", "socks5://1.2.3.4:1080", "socks5://1.2.3.4:1080", false},
		{"whitespace trimmed", "  1.2.3.4:8080  ", "http://1.2.3.4:8080", false},
		{"empty", "", "", true},
		{"no port", "1.2.3.4", "", true},
		{"bad port", "1.2.3.4:port", "", true},
		{"port out of range", "1.2.3.4:70000", "", true},
		{"unsupported scheme", "ftp://1.2.3.4:21", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseEndpoint(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEndpoint(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && c.Endpoint() != tt.want {
				t.Errorf("ParseEndpoint(%q) = %s, want %s", tt.in, c.Endpoint(), tt.want)
			}
		})
	}
}

func TestDedupe(t *testing.T) {
	in := []Candidate{
		{Host: "1.1.1.1", Port: 80, Scheme: "http", Source: "a"},
		{Host: "1.1.1.1", Port: 80, Scheme: "http", Source: "b"},
		{Host: "1.1.1.1", Port: 80, Scheme: "socks5"},
		{Host: "2.2.2.2", Port: 80, Scheme: "http"},
	}
	out := Dedupe(in)
	if len(out) != 3 {
		t.Fatalf("Dedupe returned %d, want 3", len(out))
	}
	// First occurrence wins.
	if out[0].Source != "a" {
		t.Errorf("dedupe did not keep first occurrence, got source %q", out[0].Source)
	}
}
