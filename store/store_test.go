package store

import "testing"

func TestOpenBookResetsPosition(t *testing.T) {
	s := New()
	s.Dispatch(OpenBook{Path: "/b.epub", Title: "B", Chapters: 5})
	st := s.State()
	if st.BookTitle != "B" || st.ChapterCount != 5 || st.ChapterIndex != 0 || st.Mode != ModeReading {
		t.Fatalf("state = %+v", st)
	}
}

func TestShowChapterClamps(t *testing.T) {
	s := New()
	s.Dispatch(OpenBook{Chapters: 3})
	s.Dispatch(ShowChapter{Index: 10, Lines: 40, Offset: 99})
	st := s.State()
	if st.ChapterIndex != 2 {
		t.Fatalf("chapter index = %d", st.ChapterIndex)
	}
	if st.LineOffset != 39 {
		t.Fatalf("offset = %d", st.LineOffset)
	}
}

func TestScrollBounds(t *testing.T) {
	s := New()
	s.Dispatch(ShowChapter{Index: 0, Lines: 100})
	s.Dispatch(Scroll{Delta: -5, PageSize: 20})
	if got := s.State().LineOffset; got != 0 {
		t.Fatalf("scrolled above top: %d", got)
	}
	s.Dispatch(Scroll{Delta: 500, PageSize: 20})
	if got := s.State().LineOffset; got != 80 {
		t.Fatalf("bottom clamp = %d, want 80", got)
	}
}

func TestScrollShortChapter(t *testing.T) {
	s := New()
	s.Dispatch(ShowChapter{Index: 0, Lines: 5})
	s.Dispatch(Scroll{Delta: 10, PageSize: 20})
	if got := s.State().LineOffset; got != 0 {
		t.Fatalf("short chapter offset = %d", got)
	}
}

func TestScrollToEnds(t *testing.T) {
	s := New()
	s.Dispatch(ShowChapter{Index: 0, Lines: 100})
	s.Dispatch(ScrollTo{Offset: -1, PageSize: 20})
	if got := s.State().LineOffset; got != 80 {
		t.Fatalf("bottom = %d", got)
	}
	s.Dispatch(ScrollTo{Offset: 0, PageSize: 20})
	if got := s.State().LineOffset; got != 0 {
		t.Fatalf("top = %d", got)
	}
}

func TestTOCModeResetsOverlay(t *testing.T) {
	s := New()
	s.Dispatch(TOCFilterInput{Text: "old"})
	s.Dispatch(TOCMove{Delta: 3, Count: 10})
	s.Dispatch(SetMode{Mode: ModeTOC})
	st := s.State()
	if st.TOCFilter != "" || st.TOCSelection != 0 {
		t.Fatalf("overlay not reset: %+v", st)
	}
}

func TestTOCMoveClamps(t *testing.T) {
	s := New()
	s.Dispatch(TOCMove{Delta: -2, Count: 4})
	if got := s.State().TOCSelection; got != 0 {
		t.Fatalf("selection = %d", got)
	}
	s.Dispatch(TOCMove{Delta: 99, Count: 4})
	if got := s.State().TOCSelection; got != 3 {
		t.Fatalf("selection = %d", got)
	}
}

func TestObserversSeeBothStates(t *testing.T) {
	s := New()
	var gotPrev, gotNext string
	s.Subscribe(func(prev, next State) {
		gotPrev, gotNext = prev.Status, next.Status
	})
	s.Dispatch(SetStatus{Text: "hello"})
	if gotPrev != "" || gotNext != "hello" {
		t.Fatalf("observer saw %q -> %q", gotPrev, gotNext)
	}
}

func TestFilterInputResetsSelection(t *testing.T) {
	s := New()
	s.Dispatch(TOCMove{Delta: 2, Count: 5})
	s.Dispatch(TOCFilterInput{Text: "ch"})
	st := s.State()
	if st.TOCFilter != "ch" || st.TOCSelection != 0 {
		t.Fatalf("state = %+v", st)
	}
}
