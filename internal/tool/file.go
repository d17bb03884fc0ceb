package tool

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fileReadLimit bounds bytes returned for a single file_read call.
const fileReadLimit = 512 * 1024

type fileReadInput struct {
	Path string `json:"path"`
}

type fileWriteInput struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// resolveInWorkspace joins path under workspace and rejects escapes via
// "..", keeping every file tool confined to the workspace root.
func resolveInWorkspace(workspace, path string) (string, error) {
	root := filepath.Clean(workspace)
	full := filepath.Join(root, path)
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", path)
	}
	return full, nil
}

// FileReadHandler reads a workspace-relative file, bounded to fileReadLimit.
func FileReadHandler(inputJSON, workspace string) Result {
	var in fileReadInput
	if err := decodeInput(inputJSON, &in); err != nil || in.Path == "" {
		return fail("file_read: invalid input, expected {\"path\": string}")
	}

	full, err := resolveInWorkspace(workspace, in.Path)
	if err != nil {
		return fail(fmt.Sprintf("file_read: %v", err))
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return fail(fmt.Sprintf("file_read: %v", err))
	}
	return ok(truncate(string(data), fileReadLimit))
}

// FileWriteHandler writes content to a workspace-relative file, creating
// parent directories as needed.
func FileWriteHandler(inputJSON, workspace string) Result {
	var in fileWriteInput
	if err := decodeInput(inputJSON, &in); err != nil || in.Path == "" {
		return fail("file_write: invalid input, expected {\"path\": string, \"content\": string}")
	}

	full, err := resolveInWorkspace(workspace, in.Path)
	if err != nil {
		return fail(fmt.Sprintf("file_write: %v", err))
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fail(fmt.Sprintf("file_write: %v", err))
	}
	if err := os.WriteFile(full, []byte(in.Content), 0o644); err != nil {
		return fail(fmt.Sprintf("file_write: %v", err))
	}
	return ok(fmt.Sprintf("wrote %d bytes to %s", len(in.Content), in.Path))
}
