// Package platform is the contract between the engine and a window
// system: a window delivers input and resize notifications through
// Callbacks and presents rendered frames.
package platform

import (
	"fmt"

	"github.com/gogpu/bowtie/geom"
	"github.com/gogpu/bowtie/render"
)

// Key identifies a keyboard key. Printable keys are their lower-case rune;
// keys without a rune use values above the Unicode range.
type Key rune

// Special keys.
const (
	KeyUnknown   Key = 0
	KeyTab       Key = '\t'
	KeyEnter     Key = '\r'
	KeyEscape    Key = 0x1b
	KeySpace     Key = ' '
	KeyBackspace Key = 0x7f
)

// Keys outside the Unicode range.
const (
	KeyUp Key = 0x110000 + iota
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyDelete
	KeyInsert
)

var keyNames = map[Key]string{
	KeyUnknown:   "Unknown",
	KeyTab:       "Tab",
	KeyEnter:     "Enter",
	KeyEscape:    "Escape",
	KeySpace:     "Space",
	KeyBackspace: "Backspace",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyPageUp:    "PageUp",
	KeyPageDown:  "PageDown",
	KeyDelete:    "Delete",
	KeyInsert:    "Insert",
}

// String returns the key name, or the rune for printable keys.
func (k Key) String() string {
	if n, ok := keyNames[k]; ok {
		return n
	}
	if k > 0x20 && k < 0x110000 {
		return string(rune(k))
	}
	return fmt.Sprintf("Key(%#x)", rune(k))
}

// Callbacks receive window notifications on the goroutine that calls
// Window.ProcessEvents. Nil callbacks are skipped.
type Callbacks struct {
	// ContextCreated is called once the window can present frames.
	ContextCreated func()

	// Resized reports the new presentable size in pixels.
	Resized func(size geom.Size)

	KeyDown func(key Key)
	KeyUp   func(key Key)
}

// NotifyContextCreated calls ContextCreated if set.
func (c *Callbacks) NotifyContextCreated() {
	if c.ContextCreated != nil {
		c.ContextCreated()
	}
}

// NotifyResized calls Resized if set.
func (c *Callbacks) NotifyResized(size geom.Size) {
	if c.Resized != nil {
		c.Resized(size)
	}
}

func (c *Callbacks) NotifyKeyDown(k Key) {
	if c.KeyDown != nil {
		c.KeyDown(k)
	}
}

func (c *Callbacks) NotifyKeyUp(k Key) {
	if c.KeyUp != nil {
		c.KeyUp(k)
	}
}

// Window is a presentation surface with an input queue.
type Window interface {
	// Size returns the presentable size in pixels.
	Size() geom.Size

	// ProcessEvents delivers pending events to the callbacks without
	// blocking. It returns false once the window has been asked to close.
	ProcessEvents() bool

	// Close releases the window.
	Close() error

	// Presenter returns the presenter drawing frames into the window. It
	// may be called from the render goroutine.
	Presenter() render.Presenter
}
