package terminal

import "testing"

func TestZeroStyleEmitsNothing(t *testing.T) {
	var s Style
	if got := s.sgr(); got != "" {
		t.Fatalf("zero style sgr = %q", got)
	}
}

func TestSGRRoundTrip(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{"1", "\x1b[1m"},
		{"1;31", "\x1b[1;31m"},
		{"7", "\x1b[7m"},
		{"31;44", "\x1b[31;44m"},
		{"91", "\x1b[91m"},
		{"38;5;208", "\x1b[38;5;208m"},
		{"48;2;10;20;30", "\x1b[48;2;10;20;30m"},
		{"1;4;38;5;99;48;5;16", "\x1b[1;4;38;5;99;48;5;16m"},
	}
	for _, tc := range cases {
		s := applySGR(Style{}, tc.body)
		if got := s.sgr(); got != tc.want {
			t.Errorf("applySGR(%q).sgr() = %q, want %q", tc.body, got, tc.want)
		}
	}
}

func TestSGRReset(t *testing.T) {
	s := applySGR(Style{}, "1;31")
	if applySGR(s, "0") != (Style{}) {
		t.Fatal("explicit 0 did not reset")
	}
	if applySGR(s, "") != (Style{}) {
		t.Fatal("empty body did not reset")
	}
}

func TestSGRAttributeClears(t *testing.T) {
	s := applySGR(Style{}, "1;2;3;4;5;7")
	s = applySGR(s, "22;23")
	if s.Attr&(AttrBold|AttrDim|AttrItalic) != 0 {
		t.Fatalf("22;23 left attrs %b", s.Attr)
	}
	if s.Attr&(AttrUnderline|AttrBlink|AttrReverse) == 0 {
		t.Fatal("22;23 cleared too much")
	}
}

func TestSGRDefaultColors(t *testing.T) {
	s := applySGR(Style{}, "31;44")
	s = applySGR(s, "39")
	if s.Fg != (Color{}) {
		t.Fatalf("39 left fg %+v", s.Fg)
	}
	if s.Bg != Basic(4) {
		t.Fatalf("39 disturbed bg: %+v", s.Bg)
	}
	s = applySGR(s, "49")
	if !s.IsZero() {
		t.Fatalf("style not zero after 39;49: %+v", s)
	}
}

func TestSGRUnknownParamsSkipped(t *testing.T) {
	s := applySGR(Style{}, "1;58;31")
	if s.Attr != AttrBold || s.Fg != Basic(1) {
		t.Fatalf("unknown param disturbed parse: %+v", s)
	}
}

func TestSGRMalformedExtendedColor(t *testing.T) {
	// 38 without a complete 5;n or 2;r;g;b tail stops the scan but
	// keeps what was already accumulated
	s := applySGR(Style{}, "1;38;5")
	if s.Attr != AttrBold {
		t.Fatalf("bold lost on malformed tail: %+v", s)
	}
	if s.Fg != (Color{}) {
		t.Fatalf("malformed 38 set fg: %+v", s.Fg)
	}
}

func TestSGROutOfRangeClamped(t *testing.T) {
	s := applySGR(Style{}, "38;2;300;0;999")
	if s.Fg.Mode != ColorRGB || s.Fg.R != 255 || s.Fg.B != 255 {
		t.Fatalf("clamp failed: %+v", s.Fg)
	}
}

func TestBrightBackground(t *testing.T) {
	s := Style{Bg: Basic(12)}
	if got := s.sgr(); got != "\x1b[104m" {
		t.Fatalf("bright bg sgr = %q", got)
	}
}
