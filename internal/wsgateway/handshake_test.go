package wsgateway

import (
	"bufio"
	"net"
	"strings"
	"testing"
)

// TestAcceptKeyMatchesRFCExample uses the known test vector from RFC 6455
// §1.3: key "dGhlIHNhbXBsZSBub25jZQ==" must accept to
// "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=".
func TestAcceptKeyMatchesRFCExample(t *testing.T) {
	got := acceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Fatalf("acceptKey = %q, want %q", got, want)
	}
}

func TestHandshakeUpgradesWithValidRequest(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	done := make(chan error, 1)
	go func() { done <- handshake(server, "") }()

	req := "GET /ws HTTP/1.1\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"
	if _, err := client.Write([]byte(req)); err != nil {
		t.Fatalf("write request: %v", err)
	}

	reader := bufio.NewReader(client)
	status, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if !strings.Contains(status, "101") {
		t.Fatalf("expected 101 status, got %q", status)
	}

	var acceptLine string
	for {
		line, err := reader.ReadString('\n')
		if err != nil || strings.TrimSpace(line) == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "sec-websocket-accept:") {
			acceptLine = strings.TrimSpace(line)
		}
	}
	if !strings.Contains(acceptLine, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=") {
		t.Fatalf("unexpected accept header: %q", acceptLine)
	}

	if err := <-done; err != nil {
		t.Fatalf("handshake: %v", err)
	}
}

func TestHandshakeRejectsMissingUpgradeHeader(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	done := make(chan error, 1)
	go func() { done <- handshake(server, "") }()

	req := "GET /ws HTTP/1.1\r\nSec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"
	client.Write([]byte(req))

	buf := make([]byte, 512)
	n, _ := client.Read(buf)
	if !strings.Contains(string(buf[:n]), "400") {
		t.Fatalf("expected 400 response, got %q", buf[:n])
	}

	if err := <-done; err == nil {
		t.Fatal("expected handshake error for missing Upgrade header")
	}
}

func TestHandshakeRejectsBadToken(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	done := make(chan error, 1)
	go func() { done <- handshake(server, "secret") }()

	req := "GET /ws HTTP/1.1\r\n" +
		"Upgrade: websocket\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"
	client.Write([]byte(req))

	buf := make([]byte, 512)
	n, _ := client.Read(buf)
	if !strings.Contains(string(buf[:n]), "401") {
		t.Fatalf("expected 401 response, got %q", buf[:n])
	}

	if err := <-done; err == nil {
		t.Fatal("expected handshake error for bad token")
	}
}

func TestHandshakeAcceptsBearerToken(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	done := make(chan error, 1)
	go func() { done <- handshake(server, "secret") }()

	req := "GET /ws HTTP/1.1\r\n" +
		"Upgrade: websocket\r\n" +
		"Authorization: Bearer secret\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"
	client.Write([]byte(req))

	buf := make([]byte, 512)
	n, _ := client.Read(buf)
	if !strings.Contains(string(buf[:n]), "101") {
		t.Fatalf("expected 101 response, got %q", buf[:n])
	}
	if err := <-done; err != nil {
		t.Fatalf("handshake: %v", err)
	}
}

func TestHandshakeAcceptsQueryToken(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	done := make(chan error, 1)
	go func() { done <- handshake(server, "secret") }()

	req := "GET /ws?token=secret HTTP/1.1\r\n" +
		"Upgrade: websocket\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"
	client.Write([]byte(req))

	buf := make([]byte, 512)
	n, _ := client.Read(buf)
	if !strings.Contains(string(buf[:n]), "101") {
		t.Fatalf("expected 101 response, got %q", buf[:n])
	}
	if err := <-done; err != nil {
		t.Fatalf("handshake: %v", err)
	}
}
