package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Session is an ordered, append-only sequence of Messages identified by a
// channel-prefixed session key. When Path is set the session is rehydrated
// from disk on Open and rewritten on every Save.
type Session struct {
	Key      string
	Path     string
	Messages []Message
}

// sessionDir is the on-disk layout: {workspace}/.cclaw/sessions.
func sessionDir(workspace string) string {
	return filepath.Join(workspace, ".cclaw", "sessions")
}

// Open loads (or creates) the session identified by key under workspace. A
// missing or corrupt file yields an empty session rather than an error —
// the store always hands back something usable.
func Open(workspace, key string) *Session {
	s := &Session{Key: key}
	if key == "" {
		return s
	}
	s.Path = filepath.Join(sessionDir(workspace), key+".json")

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return s
	}
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return s
	}
	s.Messages = msgs
	return s
}

// OpenEphemeral returns a session with no on-disk path; Save is a no-op.
func OpenEphemeral(key string) *Session {
	return &Session{Key: key}
}

// AddUser appends a user message with a single text block.
func (s *Session) AddUser(text string) {
	s.Messages = append(s.Messages, Message{
		Role:    RoleUser,
		Content: []ContentBlock{{Type: BlockText, Text: text}},
	})
}

// AddAssistant appends an assistant message with a single text block.
func (s *Session) AddAssistant(text string) {
	s.Messages = append(s.Messages, Message{
		Role:    RoleAssistant,
		Content: []ContentBlock{{Type: BlockText, Text: text}},
	})
}

// AddToolUse appends a tool_use block to the trailing assistant message,
// creating one if the last message isn't assistant. input is parsed to
// validate it re-serializes cleanly; an unparsable string becomes an empty
// object rather than being dropped.
func (s *Session) AddToolUse(id, name, inputJSON string) {
	raw := json.RawMessage(inputJSON)
	if !json.Valid(raw) {
		raw = json.RawMessage("{}")
	}

	block := ContentBlock{Type: BlockToolUse, ID: id, Name: name, Input: raw}

	if n := len(s.Messages); n > 0 && s.Messages[n-1].Role == RoleAssistant {
		s.Messages[n-1].Content = append(s.Messages[n-1].Content, block)
		return
	}
	s.Messages = append(s.Messages, Message{
		Role:    RoleAssistant,
		Content: []ContentBlock{block},
	})
}

// AddToolResult appends a user message containing a single tool_result
// block referencing a previously emitted tool_use id.
func (s *Session) AddToolResult(id, output string) {
	s.Messages = append(s.Messages, Message{
		Role:    RoleUser,
		Content: []ContentBlock{{Type: BlockToolResult, ToolUseID: id, Output: output}},
	})
}

// SerializeMessages encodes the message array for transmission to a
// provider.
func (s *Session) SerializeMessages() (string, error) {
	data, err := json.Marshal(s.Messages)
	if err != nil {
		return "", fmt.Errorf("serialize session %s: %w", s.Key, err)
	}
	return string(data), nil
}

// Save writes the session to disk. Atomicity is best-effort-plus: the
// message array is written to a sibling temp file and renamed into place,
// so a crash mid-write never corrupts the existing session (the teacher's
// write-in-place has no such barrier — see design notes).
func (s *Session) Save() error {
	if s.Path == "" {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.Marshal(s.Messages)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.Key, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp session file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp session file: %w", err)
	}
	return nil
}

// Close releases in-memory state. The on-disk file, if any, survives.
func (s *Session) Close() {
	s.Messages = nil
}
