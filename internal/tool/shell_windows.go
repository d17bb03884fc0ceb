//go:build windows

package tool

// shellCommand wraps command for execution under cmd.exe on platforms
// without a POSIX shell; output semantics (merged stdout/stderr, exit
// prefix) are identical to the Unix path.
func shellCommand(command string) (string, []string) {
	return "cmd.exe", []string{"/C", command}
}
