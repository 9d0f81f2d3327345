//go:build unix

package terminal

import (
	"os"

	"golang.org/x/sys/unix"
)

// queryTerminalSize asks the kernel for the window size of stdout
func queryTerminalSize() (cols, rows int, err error) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, err
	}
	return int(ws.Col), int(ws.Row), nil
}
