// folio is a terminal EPUB reader. One goroutine owns the terminal:
// it polls stdin, feeds the byte decoder, applies key and mouse events
// to the state store, and renders a frame through the differential
// renderer.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"folio/config"
	"folio/content"
	"folio/epub"
	"folio/library"
	"folio/store"
	"folio/terminal"
	"folio/ui"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: folio <book.epub>")
		os.Exit(2)
	}
	if err := run(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, "folio:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg config.Config
	lg  *log.Logger

	lib    *library.Library
	bookID int64
	book   *epub.Book

	st    *store.Store
	view  ui.View
	con   *terminal.Console
	dec   *terminal.Decoder
	rend  *terminal.Renderer
	probe *terminal.SizeProbe

	// Laid-out lines of the current chapter at the current text width
	lines     []content.Line
	layoutW   int
	width     int
	height    int
	quit      bool
	statusSet time.Time
}

func run(bookPath string) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		// A broken config file should not hide the book; continue on
		// defaults
		cfg = config.Default()
	}

	lg, logClose := openLogger(cfg.LogPath)
	defer logClose()

	lib, err := library.Open(cfg.LibraryPath)
	if err != nil {
		return err
	}
	defer lib.Close()

	book, err := epub.Open(bookPath)
	if err != nil {
		return err
	}
	defer book.Close()

	hash, err := library.HashFile(bookPath)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(bookPath)
	if err != nil {
		abs = bookPath
	}
	bookID, err := lib.AddBook(abs, book.Title, book.Author, hash)
	if err != nil {
		return err
	}

	a := &app{
		cfg:    cfg,
		lg:     lg,
		lib:    lib,
		bookID: bookID,
		book:   book,
		st:     store.New(),
		view:   ui.View{Cfg: cfg},
		dec:    newDecoder(cfg),
		probe:  terminal.NewSizeProbe(),
	}

	a.con = terminal.NewConsole()
	if err := a.con.Init(); err != nil {
		return err
	}
	defer a.con.Fini()
	defer func() {
		if r := recover(); r != nil {
			terminal.EmergencyRestore(os.Stdout)
			panic(r)
		}
	}()
	if cfg.Mouse {
		a.con.EnableMouse()
	}

	a.rend = terminal.NewRenderer(terminal.NewStdoutSink())
	a.lg.Info("opened", "book", book.Title, "chapters", len(book.Spine))

	a.st.Dispatch(store.OpenBook{Path: abs, Title: book.Title, Chapters: len(book.Spine)})
	a.restorePosition()

	done := make(chan struct{})
	defer close(done)
	reload, err := config.Watch(config.Path(), done)
	if err != nil {
		a.lg.Warn("config watch unavailable", "err", err)
	}

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)

	return a.loop(reload, winch)
}

func newDecoder(cfg config.Config) *terminal.Decoder {
	return terminal.NewDecoder(
		terminal.WithEscapeTimeout(cfg.EscapeTimeout()),
		terminal.WithSequenceTimeout(cfg.SequenceTimeout()),
	)
}

func openLogger(path string) (*log.Logger, func()) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			lg := log.NewWithOptions(f, log.Options{
				ReportTimestamp: true,
				Level:           log.InfoLevel,
			})
			return lg, func() { f.Close() }
		}
	}
	// Never log to the terminal the renderer owns
	return log.New(discard{}), func() {}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func (a *app) loop(reload <-chan config.Config, winch <-chan os.Signal) error {
	buf := make([]byte, 4096)
	for !a.quit {
		select {
		case cfg, ok := <-reload:
			if ok {
				a.applyConfig(cfg)
			}
		case <-winch:
			a.probe.Refresh()
		default:
		}

		a.render()

		timeout := 100 * time.Millisecond
		if d, ok := a.dec.PendingTimeout(time.Now()); ok && d < timeout {
			timeout = d
		}
		n, err := a.con.Read(buf, timeout)
		if err != nil {
			// EOF on stdin: nothing more will arrive
			a.lg.Info("stdin closed", "err", err)
			break
		}
		if n > 0 {
			a.dec.Feed(buf[:n])
		}
		now := time.Now()
		for {
			tok, ok := a.dec.NextToken(now)
			if !ok {
				break
			}
			a.handleToken(tok)
		}
		a.expireStatus()
	}
	a.savePosition()
	return nil
}

// applyConfig folds a live reload into the running session
func (a *app) applyConfig(cfg config.Config) {
	mouseChanged := cfg.Mouse != a.cfg.Mouse
	a.cfg = cfg
	a.view = ui.View{Cfg: cfg}
	a.dec = newDecoder(cfg)
	if mouseChanged {
		if cfg.Mouse {
			a.con.EnableMouse()
		} else {
			a.con.DisableMouse()
		}
	}
	a.layoutW = 0 // force re-layout with new margins
	a.rend.Invalidate()
	a.setStatus("config reloaded")
	a.lg.Info("config reloaded")
}

func (a *app) render() {
	w, h := a.probe.Size()
	a.width, a.height = w, h

	if tw := a.view.TextWidth(w); tw != a.layoutW {
		a.relayout(tw)
	}

	a.rend.StartFrame(w, h)
	a.view.Draw(a.rend, a.st.State(), a.lines, a.book.TOC, w, h)
	if err := a.rend.EndFrame(); err != nil {
		a.lg.Error("flush", "err", err)
	}
}

// relayout rebuilds the current chapter's lines for a new text width,
// preserving the reading position proportionally
func (a *app) relayout(tw int) {
	st := a.st.State()
	frac := 0.0
	if st.LineCount > 1 {
		frac = float64(st.LineOffset) / float64(st.LineCount-1)
	}
	a.loadChapter(st.ChapterIndex, 0)
	a.layoutW = tw

	nst := a.st.State()
	if nst.LineCount > 1 && frac > 0 {
		a.st.Dispatch(store.ScrollTo{
			Offset:   int(frac * float64(nst.LineCount-1)),
			PageSize: ui.PageSize(a.height),
		})
	}
}

// loadChapter parses and lays out one spine item. Offsets out of
// range clamp in the reducer.
func (a *app) loadChapter(index, offset int) {
	raw, err := a.book.Chapter(index)
	if err != nil {
		a.lg.Error("chapter", "index", index, "err", err)
		a.setStatus("chapter unreadable")
		return
	}
	blocks := content.Parse(raw)
	for i := range blocks {
		if blocks[i].Kind == content.BlockCode {
			blocks[i].Text = content.ExpandTabs(blocks[i].Text, a.cfg.TabStop)
		}
	}
	tw := a.view.TextWidth(a.width)
	a.lines = content.Layout(blocks, tw)
	a.layoutW = tw
	a.st.Dispatch(store.ShowChapter{Index: index, Lines: len(a.lines), Offset: offset})
}

func (a *app) restorePosition() {
	w, h := a.probe.Size()
	a.width, a.height = w, h
	pos, err := a.lib.LoadPosition(a.bookID)
	if err != nil {
		a.loadChapter(0, 0)
		return
	}
	idx := pos.SpineIndex
	if idx < 0 || idx >= len(a.book.Spine) {
		idx = 0
	}
	a.loadChapter(idx, pos.LineOffset)
}

func (a *app) savePosition() {
	st := a.st.State()
	if err := a.lib.SavePosition(a.bookID, st.ChapterIndex, st.LineOffset); err != nil {
		a.lg.Error("save position", "err", err)
	}
}

func (a *app) setStatus(msg string) {
	a.st.Dispatch(store.SetStatus{Text: msg})
	a.statusSet = time.Now()
}

func (a *app) expireStatus() {
	if a.st.State().Status != "" && time.Since(a.statusSet) > 3*time.Second {
		a.st.Dispatch(store.SetStatus{})
	}
}

func (a *app) handleToken(tok terminal.Token) {
	if ev, ok := terminal.ParseMouse(tok); ok {
		a.handleMouse(ev)
		return
	}
	ev, ok := terminal.DecodeKey(tok)
	if !ok {
		return
	}
	switch a.st.State().Mode {
	case store.ModeTOC:
		a.handleTOCKey(ev)
	case store.ModeHelp:
		a.handleHelpKey(ev)
	default:
		a.handleReaderKey(ev)
	}
}

func (a *app) handleMouse(ev terminal.MouseEvent) {
	if a.st.State().Mode != store.ModeReading {
		return
	}
	page := ui.PageSize(a.height)
	switch ev.Btn {
	case terminal.MouseBtnWheelUp:
		a.st.Dispatch(store.Scroll{Delta: -3, PageSize: page})
	case terminal.MouseBtnWheelDown:
		a.st.Dispatch(store.Scroll{Delta: 3, PageSize: page})
	}
}

func (a *app) handleReaderKey(ev terminal.KeyEvent) {
	page := ui.PageSize(a.height)
	st := a.st.State()
	switch {
	case ev.Key == terminal.KeyRune && ev.Rune == 'q', ev.Key == terminal.KeyCtrlC:
		a.quit = true
	case ev.Key == terminal.KeyRune && ev.Rune == 'j', ev.Key == terminal.KeyDown:
		a.st.Dispatch(store.Scroll{Delta: 1, PageSize: page})
	case ev.Key == terminal.KeyRune && ev.Rune == 'k', ev.Key == terminal.KeyUp:
		a.st.Dispatch(store.Scroll{Delta: -1, PageSize: page})
	case ev.Key == terminal.KeyRune && ev.Rune == ' ', ev.Key == terminal.KeyPageDown:
		a.st.Dispatch(store.Scroll{Delta: page, PageSize: page})
	case ev.Key == terminal.KeyRune && ev.Rune == 'b', ev.Key == terminal.KeyPageUp:
		a.st.Dispatch(store.Scroll{Delta: -page, PageSize: page})
	case ev.Key == terminal.KeyRune && ev.Rune == 'g', ev.Key == terminal.KeyHome:
		a.st.Dispatch(store.ScrollTo{Offset: 0, PageSize: page})
	case ev.Key == terminal.KeyRune && ev.Rune == 'G', ev.Key == terminal.KeyEnd:
		a.st.Dispatch(store.ScrollTo{Offset: -1, PageSize: page})
	case ev.Key == terminal.KeyRune && ev.Rune == 'n', ev.Key == terminal.KeyRight:
		if st.ChapterIndex+1 < st.ChapterCount {
			a.savePosition()
			a.loadChapter(st.ChapterIndex+1, 0)
		}
	case ev.Key == terminal.KeyRune && ev.Rune == 'p', ev.Key == terminal.KeyLeft:
		if st.ChapterIndex > 0 {
			a.savePosition()
			a.loadChapter(st.ChapterIndex-1, 0)
		}
	case ev.Key == terminal.KeyRune && ev.Rune == 't':
		a.st.Dispatch(store.SetMode{Mode: store.ModeTOC})
	case ev.Key == terminal.KeyRune && ev.Rune == '?':
		a.st.Dispatch(store.SetMode{Mode: store.ModeHelp})
	}
}

func (a *app) handleTOCKey(ev terminal.KeyEvent) {
	st := a.st.State()
	matches := ui.FilterTOC(a.book.TOC, st.TOCFilter)
	switch {
	case ev.Key == terminal.KeyEscape:
		a.st.Dispatch(store.SetMode{Mode: store.ModeReading})
	case ev.Key == terminal.KeyCtrlC:
		a.quit = true
	case ev.Key == terminal.KeyDown || ev.Key == terminal.KeyCtrlN:
		a.st.Dispatch(store.TOCMove{Delta: 1, Count: len(matches)})
	case ev.Key == terminal.KeyUp || ev.Key == terminal.KeyCtrlP:
		a.st.Dispatch(store.TOCMove{Delta: -1, Count: len(matches)})
	case ev.Key == terminal.KeyBackspace:
		if f := st.TOCFilter; f != "" {
			a.st.Dispatch(store.TOCFilterInput{Text: trimLastRune(f)})
		}
	case ev.Key == terminal.KeyEnter:
		if st.TOCSelection < len(matches) {
			entry := a.book.TOC[matches[st.TOCSelection]]
			if idx := a.book.SpineIndex(entry.Href); idx >= 0 {
				a.savePosition()
				a.loadChapter(idx, 0)
			} else {
				a.setStatus("entry has no chapter")
			}
		}
		a.st.Dispatch(store.SetMode{Mode: store.ModeReading})
	case ev.Key == terminal.KeyRune && ev.Mod&^terminal.ModShift == 0:
		a.st.Dispatch(store.TOCFilterInput{Text: st.TOCFilter + string(ev.Rune)})
	}
}

func (a *app) handleHelpKey(ev terminal.KeyEvent) {
	switch {
	case ev.Key == terminal.KeyCtrlC:
		a.quit = true
	case ev.Key == terminal.KeyEscape,
		ev.Key == terminal.KeyRune && (ev.Rune == 'q' || ev.Rune == '?'),
		ev.Key == terminal.KeyEnter:
		a.st.Dispatch(store.SetMode{Mode: store.ModeReading})
	}
}

func trimLastRune(s string) string {
	r := []rune(s)
	return string(r[:len(r)-1])
}
