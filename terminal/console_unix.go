//go:build unix

package terminal

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Console owns the host-side terminal state the engine itself stays
// out of: raw mode, the alternate screen, cursor visibility, and mouse
// reporting. All toggles are explicit methods writing known escape
// sequences. The engine assumes these are in effect when used.
type Console struct {
	in    *os.File
	out   *os.File
	inFd  int
	saved *term.State
	mouse bool
}

// NewConsole wraps the process's controlling terminal
func NewConsole() *Console {
	return &Console{
		in:   os.Stdin,
		out:  os.Stdout,
		inFd: int(os.Stdin.Fd()),
	}
}

// Init enters raw mode, switches to the alternate screen, hides the
// cursor, and disables autowrap
func (c *Console) Init() error {
	if !term.IsTerminal(c.inFd) {
		return fmt.Errorf("console: stdin is not a terminal")
	}
	saved, err := term.MakeRaw(c.inFd)
	if err != nil {
		return fmt.Errorf("console: raw mode: %w", err)
	}
	c.saved = saved

	c.out.WriteString(csiAltScreenEnter)
	c.out.WriteString(csiCursorHide)
	c.out.WriteString(csiAutoWrapOff)
	c.out.WriteString(csiClear)
	return nil
}

// Fini restores the terminal. Safe to call multiple times.
func (c *Console) Fini() {
	if c.saved == nil {
		return
	}
	if c.mouse {
		c.DisableMouse()
	}
	c.out.WriteString(csiCursorShow)
	c.out.WriteString(csiAltScreenExit)
	c.out.WriteString(csiAutoWrapOn)
	c.out.WriteString(csiReset)
	term.Restore(c.inFd, c.saved)
	c.saved = nil
}

// EnableMouse turns on SGR-encoded click and drag reporting
func (c *Console) EnableMouse() {
	if c.mouse {
		return
	}
	c.out.WriteString(csiMouseSGROn)
	c.out.WriteString(csiMouseClickOn)
	c.out.WriteString(csiMouseDragOn)
	c.mouse = true
}

// DisableMouse turns mouse reporting back off
func (c *Console) DisableMouse() {
	if !c.mouse {
		return
	}
	c.out.WriteString(csiMouseDragOff)
	c.out.WriteString(csiMouseClickOff)
	c.out.WriteString(csiMouseSGROff)
	c.mouse = false
}

// Read blocks up to timeout for input bytes, returning nil on timeout.
// A non-positive timeout blocks indefinitely. EINTR retries; the
// caller's loop handles SIGWINCH separately.
func (c *Console) Read(buf []byte, timeout time.Duration) (int, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	for {
		fds := []unix.PollFd{{Fd: int32(c.inFd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, ms)
		if err != nil {
			if err == unix.EINTR {
				return 0, nil
			}
			return 0, err
		}
		if n == 0 {
			return 0, nil
		}
		rn, err := unix.Read(c.inFd, buf)
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			return 0, err
		}
		if rn == 0 {
			return 0, io.EOF
		}
		return rn, nil
	}
}

// EmergencyRestore writes the teardown sequences when Fini cannot run,
// e.g. from a panic handler. Best effort; raw mode itself can only be
// undone via the saved termios, so pair this with Fini when possible.
func EmergencyRestore(w io.Writer) {
	io.WriteString(w, csiMouseDragOff)
	io.WriteString(w, csiMouseClickOff)
	io.WriteString(w, csiMouseSGROff)
	io.WriteString(w, csiCursorShow)
	io.WriteString(w, csiAltScreenExit)
	io.WriteString(w, csiAutoWrapOn)
	io.WriteString(w, csiReset)
	if f, ok := w.(*os.File); ok {
		f.Sync()
	}
}
