// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package terminal implements platform.Window on a tcell screen. Frames are
// drawn with upper half blocks, so each cell shows two pixels stacked
// vertically and the presentable size is columns x 2*rows.
//
// Terminals report key presses only. A pressed key stays held until a
// ProcessEvents call that sees no repeat of it, which then reports the
// release.
package terminal

import (
	"image"
	"sync"

	"github.com/gdamore/tcell/v2"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/bowtie/geom"
	"github.com/gogpu/bowtie/platform"
	"github.com/gogpu/bowtie/render"
)

const halfBlock = '▀'

// Window is a terminal window.
type Window struct {
	screen tcell.Screen
	cb     platform.Callbacks

	events chan tcell.Event
	quit   chan struct{}
	once   sync.Once

	held    map[platform.Key]bool
	pressed map[platform.Key]bool
	closed  bool

	// cells is the scaled frame, reused between presents.
	mu    sync.Mutex
	cells *image.RGBA
}

var _ platform.Window = (*Window)(nil)

// New opens the terminal and delivers notifications to cb.
func New(cb platform.Callbacks) (*Window, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewWithScreen(s, cb)
}

// NewWithScreen wraps an uninitialized screen.
func NewWithScreen(s tcell.Screen, cb platform.Callbacks) (*Window, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.HideCursor()
	s.Clear()

	w := &Window{
		screen:  s,
		cb:      cb,
		events:  make(chan tcell.Event, 100),
		quit:    make(chan struct{}),
		held:    make(map[platform.Key]bool),
		pressed: make(map[platform.Key]bool),
	}
	go w.poll()

	w.cb.NotifyContextCreated()
	w.cb.NotifyResized(w.Size())
	return w, nil
}

func (w *Window) poll() {
	for {
		ev := w.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case w.events <- ev:
		case <-w.quit:
			return
		}
	}
}

// Size returns the size in pixels.
func (w *Window) Size() geom.Size {
	cols, rows := w.screen.Size()
	return geom.Size{Width: cols, Height: rows * 2}
}

// ProcessEvents delivers queued input and resize events. It returns false
// after Ctrl-C or Close.
func (w *Window) ProcessEvents() bool {
	if w.closed {
		return false
	}
	clear(w.pressed)
	for drained := false; !drained; {
		select {
		case ev := <-w.events:
			w.handle(ev)
		default:
			drained = true
		}
	}
	for k := range w.held {
		if !w.pressed[k] {
			delete(w.held, k)
			w.cb.NotifyKeyUp(k)
		}
	}
	return !w.closed
}

func (w *Window) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlC {
			w.closed = true
			return
		}
		k := translate(ev)
		if k == platform.KeyUnknown {
			return
		}
		w.pressed[k] = true
		if !w.held[k] {
			w.held[k] = true
			w.cb.NotifyKeyDown(k)
		}
	case *tcell.EventResize:
		w.screen.Sync()
		w.cb.NotifyResized(w.Size())
	}
}

var keyMap = map[tcell.Key]platform.Key{
	tcell.KeyTab:        platform.KeyTab,
	tcell.KeyEnter:      platform.KeyEnter,
	tcell.KeyEscape:     platform.KeyEscape,
	tcell.KeyBackspace:  platform.KeyBackspace,
	tcell.KeyBackspace2: platform.KeyBackspace,
	tcell.KeyUp:         platform.KeyUp,
	tcell.KeyDown:       platform.KeyDown,
	tcell.KeyLeft:       platform.KeyLeft,
	tcell.KeyRight:      platform.KeyRight,
	tcell.KeyHome:       platform.KeyHome,
	tcell.KeyEnd:        platform.KeyEnd,
	tcell.KeyPgUp:       platform.KeyPageUp,
	tcell.KeyPgDn:       platform.KeyPageDown,
	tcell.KeyDelete:     platform.KeyDelete,
	tcell.KeyInsert:     platform.KeyInsert,
}

func translate(ev *tcell.EventKey) platform.Key {
	if ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		return platform.Key(r)
	}
	return keyMap[ev.Key()]
}

// Close restores the terminal. It is safe to call more than once.
func (w *Window) Close() error {
	w.once.Do(func() {
		w.closed = true
		close(w.quit)
		w.screen.Fini()
	})
	return nil
}

// Presenter returns a presenter that scales each frame to the screen.
func (w *Window) Presenter() render.Presenter {
	return render.PresenterFunc(w.present)
}

func (w *Window) present(frame *image.RGBA) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	size := w.Size()
	if size.Empty() {
		return nil
	}
	bounds := image.Rect(0, 0, size.Width, size.Height)
	if w.cells == nil || w.cells.Bounds() != bounds {
		w.cells = image.NewRGBA(bounds)
	}
	if frame.Bounds().Size() == bounds.Size() {
		xdraw.Draw(w.cells, bounds, frame, frame.Bounds().Min, xdraw.Src)
	} else {
		xdraw.NearestNeighbor.Scale(w.cells, bounds, frame, frame.Bounds(), xdraw.Src, nil)
	}

	for y := 0; y < size.Height/2; y++ {
		for x := 0; x < size.Width; x++ {
			top := w.cells.RGBAAt(x, 2*y)
			bottom := w.cells.RGBAAt(x, 2*y+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			w.screen.SetContent(x, y, halfBlock, nil, style)
		}
	}
	w.screen.Show()
	return nil
}
