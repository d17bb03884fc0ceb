package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"
)

// OnDataLine is invoked with the payload following "data: " on each SSE
// line. Returning false stops the stream early.
type OnDataLine func(payload string) bool

// PostStream sends an HTTPS POST and streams the response as
// Server-Sent-Events: headers are read up front, then the connection is
// read line by line; each line beginning "data: " is dispatched to cb.
// The stream ends when cb returns false, the sentinel "[DONE]" payload
// arrives, the peer closes the connection, or an I/O error occurs.
func (c *Client) PostStream(url string, body []byte, headers []Header, cb OnDataLine) error {
	u, err := parseURL(url)
	if err != nil {
		return err
	}

	conn, err := c.dial(u.Host, u.Port)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := serializeRequest(conn, "POST", u.Path, u.Host, headers, body); err != nil {
		return err
	}

	lr := &lineReader{conn: conn, timeout: c.readTimeout()}

	// Read headers up to the blank line; anything already buffered past
	// it becomes the initial body buffer for the line scanner below.
	for {
		line, err := lr.readLine()
		if err != nil {
			return err
		}
		if line == "" {
			break
		}
	}

	for {
		line, err := lr.readLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		const prefix = "data: "
		if !bytes.HasPrefix([]byte(line), []byte(prefix)) {
			continue
		}
		payload := line[len(prefix):]
		if payload == "[DONE]" {
			return nil
		}
		if !cb(payload) {
			return nil
		}
	}
}

// lineReader pulls \n-terminated lines (trailing \r stripped) off a
// connection, refilling its buffer from the socket as needed.
type lineReader struct {
	conn    interface{ Read([]byte) (int, error) }
	timeout time.Duration
	buf     []byte
}

func (r *lineReader) readLine() (string, error) {
	for {
		if idx := bytes.IndexByte(r.buf, '\n'); idx >= 0 {
			line := r.buf[:idx]
			r.buf = r.buf[idx+1:]
			line = bytes.TrimSuffix(line, []byte("\r"))
			return string(line), nil
		}

		if setter, ok := r.conn.(interface{ SetReadDeadline(time.Time) error }); ok && r.timeout > 0 {
			setter.SetReadDeadline(time.Now().Add(r.timeout))
		}

		chunk := make([]byte, 4096)
		n, err := r.conn.Read(chunk)
		if n > 0 {
			r.buf = append(r.buf, chunk[:n]...)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("sse read: %w", err)
		}
	}
}
