package terminal

import "testing"

func TestParseMousePress(t *testing.T) {
	ev, ok := ParseMouse(csiTok("<0;10;5M"))
	if !ok {
		t.Fatal("press not parsed")
	}
	want := MouseEvent{X: 9, Y: 4, Btn: MouseBtnLeft, Action: MouseActionPress}
	if ev != want {
		t.Fatalf("got %+v, want %+v", ev, want)
	}
}

func TestParseMouseRelease(t *testing.T) {
	ev, ok := ParseMouse(csiTok("<0;10;5m"))
	if !ok || ev.Action != MouseActionRelease {
		t.Fatalf("release = %+v ok=%v", ev, ok)
	}
}

func TestParseMouseButtons(t *testing.T) {
	cases := []struct {
		body string
		btn  MouseButton
	}{
		{"<0;1;1M", MouseBtnLeft},
		{"<1;1;1M", MouseBtnMiddle},
		{"<2;1;1M", MouseBtnRight},
		{"<64;1;1M", MouseBtnWheelUp},
		{"<65;1;1M", MouseBtnWheelDown},
	}
	for _, tc := range cases {
		ev, ok := ParseMouse(csiTok(tc.body))
		if !ok || ev.Btn != tc.btn {
			t.Errorf("%q: btn = %v ok=%v, want %v", tc.body, ev.Btn, ok, tc.btn)
		}
	}
}

func TestParseMouseDragAndMove(t *testing.T) {
	ev, ok := ParseMouse(csiTok("<32;4;4M")) // left + motion
	if !ok || ev.Action != MouseActionDrag || ev.Btn != MouseBtnLeft {
		t.Fatalf("drag = %+v ok=%v", ev, ok)
	}
	ev, ok = ParseMouse(csiTok("<35;4;4M")) // no button + motion
	if !ok || ev.Action != MouseActionMove {
		t.Fatalf("move = %+v ok=%v", ev, ok)
	}
}

func TestParseMouseModifiers(t *testing.T) {
	ev, ok := ParseMouse(csiTok("<28;2;3M")) // 4|8|16 on button 0
	if !ok {
		t.Fatal("not parsed")
	}
	if ev.Mod != ModShift|ModAlt|ModCtrl {
		t.Fatalf("mods = %v", ev.Mod)
	}
}

func TestParseMouseRejects(t *testing.T) {
	rejects := []Token{
		{Kind: TokenCSI, Text: "\x1b[1;5D"},       // key, not mouse
		{Kind: TokenCSI, Text: "\x1b[<0;10M"},     // missing field
		{Kind: TokenCSI, Text: "\x1b[<0;a;5M"},    // non-numeric
		{Kind: TokenCSI, Text: "\x1b[<0;1;2;3M"},  // extra field
		{Kind: TokenChar, Text: "M"},              // wrong kind
		{Kind: TokenString, Text: "\x1b]0;x\x07"}, // string sequence
	}
	for _, tok := range rejects {
		if ev, ok := ParseMouse(tok); ok {
			t.Errorf("%q parsed to %+v, want rejection", tok.Text, ev)
		}
	}
}
