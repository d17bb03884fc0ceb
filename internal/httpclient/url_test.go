package httpclient

import (
	"errors"
	"testing"
)

func TestParseURLDefaultsPort443(t *testing.T) {
	u, err := parseURL("https://api.example.com/v1/messages")
	if err != nil {
		t.Fatalf("parseURL: %v", err)
	}
	if u.Host != "api.example.com" || u.Port != "443" || u.Path != "/v1/messages" {
		t.Fatalf("unexpected parse: %+v", u)
	}
}

func TestParseURLExplicitPort(t *testing.T) {
	u, err := parseURL("https://localhost:8443/ws")
	if err != nil {
		t.Fatalf("parseURL: %v", err)
	}
	if u.Port != "8443" {
		t.Fatalf("expected port 8443, got %s", u.Port)
	}
}

func TestParseURLRejectsNonHTTPS(t *testing.T) {
	_, err := parseURL("http://example.com/")
	if !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func TestParseURLNoPath(t *testing.T) {
	u, err := parseURL("https://example.com")
	if err != nil {
		t.Fatalf("parseURL: %v", err)
	}
	if u.Path != "/" {
		t.Fatalf("expected root path, got %s", u.Path)
	}
}
