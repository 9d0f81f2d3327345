// Package store holds the reader's screen state behind a small
// action/reducer dispatch loop. Confined to the event-loop goroutine;
// no locking.
package store

// Mode selects the active screen
type Mode uint8

const (
	ModeReading Mode = iota
	ModeTOC
	ModeHelp
)

// State is the complete UI state. Values, not pointers: a reducer
// returns a modified copy and observers compare before/after.
type State struct {
	Mode Mode

	BookPath  string
	BookTitle string

	ChapterIndex int
	ChapterCount int
	LineOffset   int
	LineCount    int // laid-out lines of the current chapter

	TOCFilter    string
	TOCSelection int

	Status string
}

// Action mutates state through the reducer
type Action interface{ isAction() }

type (
	// OpenBook records the loaded book's identity and geometry
	OpenBook struct {
		Path     string
		Title    string
		Chapters int
	}
	// ShowChapter lands on a chapter, optionally at a saved offset
	ShowChapter struct {
		Index  int
		Lines  int
		Offset int
	}
	// Scroll moves the viewport by a signed number of lines
	Scroll struct{ Delta, PageSize int }
	// ScrollTo jumps to an absolute offset (0 = top, -1 = bottom)
	ScrollTo struct{ Offset, PageSize int }
	// SetMode switches screens
	SetMode struct{ Mode Mode }
	// TOCFilterInput edits the overlay filter text
	TOCFilterInput struct{ Text string }
	// TOCMove moves the overlay selection by a signed amount
	TOCMove struct{ Delta, Count int }
	// SetStatus replaces the status-bar message
	SetStatus struct{ Text string }
)

func (OpenBook) isAction()       {}
func (ShowChapter) isAction()    {}
func (Scroll) isAction()         {}
func (ScrollTo) isAction()       {}
func (SetMode) isAction()        {}
func (TOCFilterInput) isAction() {}
func (TOCMove) isAction()        {}
func (SetStatus) isAction()      {}

// Observer is notified after every dispatch with old and new state
type Observer func(prev, next State)

// Store owns the state
type Store struct {
	state     State
	observers []Observer
}

func New() *Store {
	return &Store{}
}

// State returns the current snapshot
func (s *Store) State() State {
	return s.state
}

// Subscribe registers an observer for all future dispatches
func (s *Store) Subscribe(o Observer) {
	s.observers = append(s.observers, o)
}

// Dispatch applies an action and notifies observers
func (s *Store) Dispatch(a Action) {
	prev := s.state
	s.state = reduce(prev, a)
	for _, o := range s.observers {
		o(prev, s.state)
	}
}

func reduce(st State, a Action) State {
	switch a := a.(type) {
	case OpenBook:
		st.BookPath = a.Path
		st.BookTitle = a.Title
		st.ChapterCount = a.Chapters
		st.ChapterIndex = 0
		st.LineOffset = 0
		st.Mode = ModeReading

	case ShowChapter:
		st.ChapterIndex = clamp(a.Index, 0, maxInt(st.ChapterCount-1, 0))
		st.LineCount = a.Lines
		st.LineOffset = clamp(a.Offset, 0, maxInt(a.Lines-1, 0))

	case Scroll:
		st.LineOffset = clampOffset(st.LineOffset+a.Delta, st.LineCount, a.PageSize)

	case ScrollTo:
		off := a.Offset
		if off < 0 {
			off = st.LineCount // clampOffset pulls it to the last page
		}
		st.LineOffset = clampOffset(off, st.LineCount, a.PageSize)

	case SetMode:
		st.Mode = a.Mode
		if a.Mode == ModeTOC {
			st.TOCFilter = ""
			st.TOCSelection = 0
		}

	case TOCFilterInput:
		st.TOCFilter = a.Text
		st.TOCSelection = 0

	case TOCMove:
		st.TOCSelection = clamp(st.TOCSelection+a.Delta, 0, maxInt(a.Count-1, 0))

	case SetStatus:
		st.Status = a.Text
	}
	return st
}

// clampOffset keeps at least one page line visible: the maximum offset
// leaves a full page only when the chapter has one
func clampOffset(off, lines, page int) int {
	if page < 1 {
		page = 1
	}
	max := lines - page
	if max < 0 {
		max = 0
	}
	return clamp(off, 0, max)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
