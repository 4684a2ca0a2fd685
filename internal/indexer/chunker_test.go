package indexer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewWindowChunker(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{name: "defaults", size: DefaultChunkSize, overlap: DefaultOverlap},
		{name: "no overlap", size: 10, overlap: 0},
		{name: "overlap one less than size", size: 10, overlap: 9},
		{name: "zero size", size: 0, overlap: 0, wantErr: true},
		{name: "negative size", size: -5, overlap: 0, wantErr: true},
		{name: "negative overlap", size: 10, overlap: -1, wantErr: true},
		{name: "overlap equals size", size: 10, overlap: 10, wantErr: true},
		{name: "overlap exceeds size", size: 10, overlap: 20, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewWindowChunker(tt.size, tt.overlap)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewWindowChunker(%d, %d) expected error, got nil", tt.size, tt.overlap)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewWindowChunker(%d, %d) unexpected error: %v", tt.size, tt.overlap, err)
			}
			if c.Size() != tt.size {
				t.Errorf("Size() = %v, want %v", c.Size(), tt.size)
			}
			if c.Overlap() != tt.overlap {
				t.Errorf("Overlap() = %v, want %v", c.Overlap(), tt.overlap)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: " \n\t\r ", want: ""},
		{name: "collapses runs", input: "Black  Sun\n\nCrew", want: "Black Sun Crew"},
		{name: "trims ends", input: "  Alliance \n", want: "Alliance"},
		{name: "unicode spaces", input: "Empire\u00a0\u2003Federation", want: "Empire Federation"},
		{name: "information separators", input: "line one\x1eline two\x1f", want: "line one line two"},
		{name: "already normal", input: "Space Force", want: "Space Force"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWindowChunker_Chunk_ShortText(t *testing.T) {
	c, _ := NewWindowChunker(DefaultChunkSize, DefaultOverlap)

	raw := "The Alliance\n\nexpanded   into\tLTT 1234."
	windows := c.Chunk(raw, 4)

	if len(windows) != 1 {
		t.Fatalf("Chunk() returned %d windows, want 1", len(windows))
	}
	w := windows[0]
	if w.Text != Normalize(raw) {
		t.Errorf("window text = %q, want %q", w.Text, Normalize(raw))
	}
	if w.Page != 4 {
		t.Errorf("window page = %d, want 4", w.Page)
	}
	if w.Start != 0 || w.End != utf8.RuneCountInString(Normalize(raw)) {
		t.Errorf("window bounds = [%d, %d), want [0, %d)", w.Start, w.End, utf8.RuneCountInString(Normalize(raw)))
	}
}

func TestWindowChunker_Chunk_Empty(t *testing.T) {
	c, _ := NewWindowChunker(DefaultChunkSize, DefaultOverlap)

	for _, raw := range []string{"", "   ", "\n\n\t"} {
		if windows := c.Chunk(raw, 1); len(windows) != 0 {
			t.Errorf("Chunk(%q) returned %d windows, want 0", raw, len(windows))
		}
	}
}

func TestWindowChunker_Chunk_Windows(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantBounds [][2]int
	}{
		{
			name:       "no sentence punctuation",
			text:       strings.Repeat("a", 1000),
			wantBounds: [][2]int{{0, 900}, {750, 1000}},
		},
		{
			name:       "exactly one window",
			text:       strings.Repeat("a", 900),
			wantBounds: [][2]int{{0, 900}},
		},
		{
			name:       "snaps to sentence end inside lookahead",
			text:       strings.Repeat("x", 905) + ". " + strings.Repeat("y", 500),
			wantBounds: [][2]int{{0, 907}, {757, 1407}},
		},
		{
			name:       "question mark counts as sentence end",
			text:       strings.Repeat("x", 950) + "? " + strings.Repeat("y", 100),
			wantBounds: [][2]int{{0, 952}, {802, 1052}},
		},
		{
			name:       "punctuation beyond lookahead is ignored",
			text:       strings.Repeat("x", 1030) + ". " + strings.Repeat("y", 200),
			wantBounds: [][2]int{{0, 900}, {750, 1232}},
		},
		{
			name:       "whitespace after punctuation must fall inside lookahead",
			text:       strings.Repeat("x", 1019) + ". " + strings.Repeat("y", 100),
			wantBounds: [][2]int{{0, 900}, {750, 1121}},
		},
		{
			name:       "punctuation without whitespace is not a sentence end",
			text:       strings.Repeat("x", 910) + ".5" + strings.Repeat("y", 100),
			wantBounds: [][2]int{{0, 900}, {750, 1012}},
		},
	}

	c, _ := NewWindowChunker(DefaultChunkSize, DefaultOverlap)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			windows := c.Chunk(tt.text, 1)
			if len(windows) != len(tt.wantBounds) {
				t.Fatalf("Chunk() returned %d windows, want %d", len(windows), len(tt.wantBounds))
			}
			runes := []rune(tt.text)
			for i, w := range windows {
				if w.Start != tt.wantBounds[i][0] || w.End != tt.wantBounds[i][1] {
					t.Errorf("window %d bounds = [%d, %d), want [%d, %d)", i, w.Start, w.End, tt.wantBounds[i][0], tt.wantBounds[i][1])
				}
				if w.Text != string(runes[w.Start:w.End]) {
					t.Errorf("window %d text does not match its bounds", i)
				}
			}
		})
	}
}

func TestWindowChunker_Chunk_Coverage(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("The Federation patrols the Sol system. ")
		if i%7 == 0 {
			b.WriteString("Influence shifted!\n")
		}
	}
	raw := b.String()
	text := []rune(Normalize(raw))

	sizes := []struct{ size, overlap int }{
		{DefaultChunkSize, DefaultOverlap},
		{300, 0},
		{50, 49},
	}
	for _, s := range sizes {
		c, err := NewWindowChunker(s.size, s.overlap)
		if err != nil {
			t.Fatalf("NewWindowChunker() error = %v", err)
		}
		windows := c.Chunk(raw, 1)
		if len(windows) == 0 {
			t.Fatalf("Chunk() returned no windows")
		}
		if windows[0].Start != 0 {
			t.Errorf("first window starts at %d, want 0", windows[0].Start)
		}
		if last := windows[len(windows)-1]; last.End != len(text) {
			t.Errorf("last window ends at %d, want %d", last.End, len(text))
		}
		for i := 1; i < len(windows); i++ {
			prev, cur := windows[i-1], windows[i]
			if cur.Start > prev.End {
				t.Errorf("size=%d: gap between window %d (end %d) and %d (start %d)", s.size, i-1, prev.End, i, cur.Start)
			}
			if cur.Start <= prev.Start {
				t.Errorf("size=%d: window %d does not advance (start %d after %d)", s.size, i, cur.Start, prev.Start)
			}
			if cur.Start != prev.End-s.overlap {
				t.Errorf("size=%d: window %d starts at %d, want %d", s.size, i, cur.Start, prev.End-s.overlap)
			}
		}
		for i, w := range windows {
			if n := utf8.RuneCountInString(w.Text); n > s.size+SentenceLookahead {
				t.Errorf("size=%d: window %d has %d runes, longer than size plus lookahead", s.size, i, n)
			}
		}
	}
}

func TestWindowChunker_Chunk_CountsRunes(t *testing.T) {
	c, _ := NewWindowChunker(10, 2)

	windows := c.Chunk(strings.Repeat("é", 25), 1)
	want := [][2]int{{0, 10}, {8, 18}, {16, 25}}
	if len(windows) != len(want) {
		t.Fatalf("Chunk() returned %d windows, want %d", len(windows), len(want))
	}
	for i, w := range windows {
		if w.Start != want[i][0] || w.End != want[i][1] {
			t.Errorf("window %d bounds = [%d, %d), want [%d, %d)", i, w.Start, w.End, want[i][0], want[i][1])
		}
		if !utf8.ValidString(w.Text) {
			t.Errorf("window %d text is not valid UTF-8", i)
		}
	}
}

func TestSentenceEnd(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want int
	}{
		{name: "empty", ext: "", want: 0},
		{name: "no punctuation", ext: "abc def", want: 0},
		{name: "period space", ext: "abc. def", want: 5},
		{name: "exclamation", ext: "go! now", want: 4},
		{name: "first boundary wins", ext: "a. b? c", want: 3},
		{name: "punctuation at end", ext: "abc.", want: 0},
		{name: "abbreviation counts", ext: "e.g. this", want: 5},
		{name: "decimal is skipped", ext: "3.5 ly. next", want: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sentenceEnd([]rune(tt.ext)); got != tt.want {
				t.Errorf("sentenceEnd(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}
