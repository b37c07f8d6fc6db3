package display

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http/httptest"
	"testing"

	"github.com/sweeney/chime-clock/internal/logic"
)

// fakePanel records what was sent to it.
type fakePanel struct {
	bounds image.Rectangle
	draws  int
	last   *image.RGBA
	halted bool
	err    error
}

func (f *fakePanel) String() string          { return "fake" }
func (f *fakePanel) ColorModel() color.Model { return color.RGBAModel }
func (f *fakePanel) Bounds() image.Rectangle { return f.bounds }

func (f *fakePanel) Halt() error {
	f.halted = true
	return nil
}

func (f *fakePanel) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if f.err != nil {
		return f.err
	}
	f.draws++
	f.last = image.NewRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			f.last.Set(x, y, src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y))
		}
	}
	return nil
}

func litPixels(img image.Image, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if r, g, b, _ := img.At(x, y).RGBA(); r|g|b != 0 {
				n++
			}
		}
	}
	return n
}

func TestPresenterRows(t *testing.T) {
	p := New(&fakePanel{bounds: image.Rect(0, 0, 128, 64)}, image.Rectangle{})
	if p.Rows() != 4 {
		t.Errorf("expected 4 rows on 128x64, got %d", p.Rows())
	}
	p = New(nil, DefaultBounds)
	if p.Rows() != 18 {
		t.Errorf("expected 18 rows on 320x240, got %d", p.Rows())
	}
}

func TestSetLineDrawsOnlyItsRow(t *testing.T) {
	panel := &fakePanel{bounds: image.Rect(0, 0, 128, 64)}
	p := New(panel, image.Rectangle{})

	p.SetLine(1, "12:00:00")
	if err := p.Flush(); err != nil {
		t.Fatal(err)
	}
	if panel.draws != 1 {
		t.Fatalf("expected 1 draw, got %d", panel.draws)
	}
	if litPixels(panel.last, p.rowRect(1)) == 0 {
		t.Error("expected text in row 1")
	}
	for _, row := range []int{0, 2, 3} {
		if n := litPixels(panel.last, p.rowRect(row)); n != 0 {
			t.Errorf("row %d: expected blank, got %d lit pixels", row, n)
		}
	}
}

func TestSetLineUnchangedSkipsFlush(t *testing.T) {
	panel := &fakePanel{bounds: image.Rect(0, 0, 128, 64)}
	p := New(panel, image.Rectangle{})
	p.SetLine(0, "hello")
	p.Flush()
	p.SetLine(0, "hello")
	p.Flush()
	if panel.draws != 1 {
		t.Errorf("expected unchanged text not to redraw, got %d draws", panel.draws)
	}
	p.SetLine(0, "world")
	p.Flush()
	if panel.draws != 2 {
		t.Errorf("expected changed text to redraw, got %d draws", panel.draws)
	}
}

func TestSetLineClearsOldText(t *testing.T) {
	p := New(nil, DefaultBounds)
	p.SetLine(0, "WWWWWWWWWWWWWWWWWWWW")
	wide := litPixels(p.canvas, p.rowRect(0))
	p.SetLine(0, ".")
	if narrow := litPixels(p.canvas, p.rowRect(0)); narrow >= wide || narrow == 0 {
		t.Errorf("expected old text cleared: wide=%d narrow=%d", wide, narrow)
	}
}

func TestSetLineOutOfRange(t *testing.T) {
	p := New(nil, image.Rect(0, 0, 64, 26))
	p.SetLine(-1, "x")
	p.SetLine(2, "x")
	if litPixels(p.canvas, p.canvas.Bounds()) != 0 {
		t.Error("out-of-range rows must not draw")
	}
}

func TestFlushError(t *testing.T) {
	panel := &fakePanel{bounds: image.Rect(0, 0, 128, 64), err: errors.New("spi")}
	p := New(panel, image.Rectangle{})
	if err := p.Flush(); err == nil {
		t.Error("expected panel error")
	}
}

func TestHalt(t *testing.T) {
	panel := &fakePanel{bounds: image.Rect(0, 0, 128, 64)}
	p := New(panel, image.Rectangle{})
	p.SetLine(0, "bye")
	if err := p.Halt(); err != nil {
		t.Fatal(err)
	}
	if !panel.halted {
		t.Error("expected panel halted")
	}
	if litPixels(panel.last, panel.last.Bounds()) != 0 {
		t.Error("expected blank screen before halt")
	}
}

func TestServeHTTP(t *testing.T) {
	p := New(nil, image.Rect(0, 0, 100, 50))
	p.SetLine(0, "hi")

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest("GET", "/display.png", nil))
	if ct := rec.Header().Get("content-type"); ct != "image/png" {
		t.Errorf("content-type: got %q", ct)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 100, 50) {
		t.Errorf("bounds: got %v", img.Bounds())
	}
}

// bmp24 builds an uncompressed 24-bit bottom-up BMP.
func bmp24(w, h int, px func(x, y int) color.RGBA) []byte {
	stride := (3*w + 3) &^ 3
	var b bytes.Buffer
	le := func(v interface{}) { binary.Write(&b, binary.LittleEndian, v) }
	b.WriteString("BM")
	le(uint32(54 + stride*h))
	le(uint32(0))
	le(uint32(54))
	le(uint32(40))
	le(int32(w))
	le(int32(h))
	le(uint16(1))
	le(uint16(24))
	le(uint32(0))
	le(uint32(stride * h))
	le(uint32(2835))
	le(uint32(2835))
	le(uint32(0))
	le(uint32(0))
	for y := h - 1; y >= 0; y-- {
		row := make([]byte, stride)
		for x := 0; x < w; x++ {
			c := px(x, y)
			row[3*x], row[3*x+1], row[3*x+2] = c.B, c.G, c.R
		}
		b.Write(row)
	}
	return b.Bytes()
}

func TestLoadSplashFlipAndPadding(t *testing.T) {
	// Width 3 needs three bytes of padding per row.
	colors := [][]color.RGBA{
		{{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}},
		{{255, 255, 255, 255}, {0, 0, 0, 255}, {10, 20, 30, 255}},
	}
	data := bmp24(3, 2, func(x, y int) color.RGBA { return colors[y][x] })
	if len(data) != 54+12*2 {
		t.Fatalf("fixture size %d", len(data))
	}

	img, err := LoadSplash(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadSplash: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("bounds: got %v", img.Bounds())
	}
	for y := range colors {
		for x, want := range colors[y] {
			got := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if got != want {
				t.Errorf("(%d,%d): got %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestLoadSplashBad(t *testing.T) {
	if _, err := LoadSplash(bytes.NewReader([]byte("not a bitmap"))); err == nil {
		t.Error("expected decode error")
	}
	if _, err := LoadSplashFile("/nonexistent/splash.bmp"); err == nil {
		t.Error("expected open error")
	}
}

func TestSplashDrawsImage(t *testing.T) {
	p := New(nil, image.Rect(0, 0, 8, 8))
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.Set(1, 1, color.RGBA{255, 0, 0, 255})
	p.Splash(src)
	if r, _, _, _ := p.canvas.At(1, 1).RGBA(); r == 0 {
		t.Error("expected splash pixel on canvas")
	}
	p.Clear()
	if litPixels(p.canvas, p.canvas.Bounds()) != 0 {
		t.Error("expected Clear to blank the splash")
	}
}

func TestPressedText(t *testing.T) {
	lines := []int{0, 1, 2, 3}
	tests := []struct {
		s    logic.InputSample
		want string
	}{
		{0xFF, "No button pressed"},
		{0xFE, "P0 pressed"},
		{0xF6, "P3 pressed P0 pressed"},
		{0x7F, "No button pressed"},
	}
	for _, tt := range tests {
		if got := PressedText(tt.s, lines); got != tt.want {
			t.Errorf("%08b: got %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestStatusRows(t *testing.T) {
	clock := logic.ClockSnapshot{Year: 2026, Month: 10, Day: 19, Hour: 7, Minute: 8, Second: 9}
	st := logic.State{Sample: 0xFE, ChimeEnabled: true, LastDurationSeconds: 3}

	rows := StatusRows(clock, true, st, []int{0, 1, 2})
	want := []string{"2026/10/19", "07:08:09", "P0 pressed", "Chime ON  3s"}
	if len(rows) != len(want) {
		t.Fatalf("got %q", rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d: got %q, want %q", i, rows[i], want[i])
		}
	}

	st = logic.State{Sample: 0xFF, Playing: true, Settings: true}
	rows = StatusRows(clock, false, st, []int{0})
	want = []string{"----/--/--", "--:--:--", "SET: send time", "Chime OFF  PLAY"}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d: got %q, want %q", i, rows[i], want[i])
		}
	}
}
