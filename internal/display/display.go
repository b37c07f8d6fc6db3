// Package display draws the clock's status rows and splash image, and keeps
// a copy of the last frame for the web preview.
package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"net/http"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/display"
)

const marginX = 2

// DefaultBounds is used when there is no panel, which is the size of the
// 2.8" TFT the clock was designed around.
var DefaultBounds = image.Rect(0, 0, 320, 240)

// Presenter renders fixed text rows onto a canvas. A row is cleared and
// redrawn only when its text changes, so unchanged rows never flicker.
type Presenter struct {
	panel display.Drawer
	face  *basicfont.Face
	rowH  int

	mu     sync.Mutex
	canvas *image.RGBA // must hold mu to read or write.
	rows   []string
	drawn  []bool
	dirty  bool
}

// New returns a Presenter for panel. A nil panel renders only to the
// in-memory canvas, in which case bounds gives its size.
func New(panel display.Drawer, bounds image.Rectangle) *Presenter {
	if panel != nil {
		bounds = panel.Bounds()
	}
	face := basicfont.Face7x13
	p := &Presenter{
		panel:  panel,
		face:   face,
		rowH:   face.Height,
		canvas: image.NewRGBA(bounds),
	}
	n := bounds.Dy() / p.rowH
	p.rows = make([]string, n)
	p.drawn = make([]bool, n)
	p.clear()
	return p
}

// Rows returns how many text rows fit on the canvas.
func (p *Presenter) Rows() int {
	return len(p.rows)
}

func (p *Presenter) rowRect(row int) image.Rectangle {
	b := p.canvas.Bounds()
	return image.Rect(b.Min.X, b.Min.Y+row*p.rowH, b.Max.X, b.Min.Y+(row+1)*p.rowH)
}

// SetLine replaces the text of one row. Rows off the canvas are ignored.
func (p *Presenter) SetLine(row int, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if row < 0 || row >= len(p.rows) {
		return
	}
	if p.drawn[row] && p.rows[row] == text {
		return
	}
	r := p.rowRect(row)
	draw.Draw(p.canvas, r, image.Black, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  p.canvas,
		Src:  image.NewUniform(color.White),
		Face: p.face,
		Dot:  fixed.P(r.Min.X+marginX, r.Min.Y+p.face.Ascent),
	}
	d.DrawString(text)
	p.rows[row] = text
	p.drawn[row] = true
	p.dirty = true
}

// SetLines sets rows from 0. Rows past len(lines) are left alone.
func (p *Presenter) SetLines(lines []string) {
	for i, l := range lines {
		p.SetLine(i, l)
	}
}

func (p *Presenter) clear() {
	draw.Draw(p.canvas, p.canvas.Bounds(), image.Black, image.Point{}, draw.Src)
	for i := range p.rows {
		p.rows[i] = ""
		p.drawn[i] = false
	}
	p.dirty = true
}

// Clear blanks the canvas.
func (p *Presenter) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clear()
}

// Splash blanks the canvas and draws img at the top-left corner, clipped.
func (p *Presenter) Splash(img image.Image) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clear()
	draw.Draw(p.canvas, p.canvas.Bounds(), img, img.Bounds().Min, draw.Src)
}

// Flush sends the canvas to the panel if anything changed.
func (p *Presenter) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.dirty {
		return nil
	}
	p.dirty = false
	if p.panel == nil {
		return nil
	}
	if err := p.panel.Draw(p.canvas.Bounds(), p.canvas, p.canvas.Bounds().Min); err != nil {
		return fmt.Errorf("display: draw: %w", err)
	}
	return nil
}

// Halt blanks and halts the panel.
func (p *Presenter) Halt() error {
	p.Clear()
	if err := p.Flush(); err != nil {
		return err
	}
	if p.panel == nil {
		return nil
	}
	return p.panel.Halt()
}

// ServeHTTP serves the current frame as a PNG.
func (p *Presenter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	w.Header().Add("content-type", "image/png")
	w.WriteHeader(http.StatusOK)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := png.Encode(w, p.canvas); err != nil {
		log.Printf("display: encoding image: %v", err)
	}
}
