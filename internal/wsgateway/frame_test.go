package wsgateway

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestFrameRoundTripUnmasked(t *testing.T) {
	for _, length := range []int{0, 125, 126, 65535, 65536} {
		payload := make([]byte, length)
		if _, err := rand.Read(payload); err != nil {
			t.Fatalf("rand.Read: %v", err)
		}

		var buf bytes.Buffer
		if err := writeFrame(&buf, OpcodeText, payload); err != nil {
			t.Fatalf("writeFrame(len=%d): %v", length, err)
		}

		decoded, err := readFrame(&buf)
		if err != nil {
			t.Fatalf("readFrame(len=%d): %v", length, err)
		}
		if decoded.Opcode != OpcodeText {
			t.Fatalf("expected text opcode, got %v", decoded.Opcode)
		}
		if !bytes.Equal(decoded.Payload, payload) {
			t.Fatalf("payload mismatch at length %d", length)
		}
	}
}

func TestFrameRoundTripMasked(t *testing.T) {
	payload := []byte("hello from a client")
	mask := [4]byte{0x11, 0x22, 0x33, 0x44}

	masked := make([]byte, len(payload))
	for i, b := range payload {
		masked[i] = b ^ mask[i%4]
	}

	var buf bytes.Buffer
	buf.WriteByte(0x80 | byte(OpcodeText))
	buf.WriteByte(0x80 | byte(len(payload)))
	buf.Write(mask[:])
	buf.Write(masked)

	decoded, err := readFrame(&buf)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if string(decoded.Payload) != string(payload) {
		t.Fatalf("expected unmasked payload %q, got %q", payload, decoded.Payload)
	}
}

func TestWriteFrameAlwaysUnmasked(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFrame(&buf, OpcodeText, []byte("x")); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	second := buf.Bytes()[1]
	if second&0x80 != 0 {
		t.Fatal("server-written frame must not set the MASK bit")
	}
}
