//go:build !windows

package tool

// shellCommand wraps command for execution under the POSIX shell.
func shellCommand(command string) (string, []string) {
	return "/bin/sh", []string{"-c", command}
}
