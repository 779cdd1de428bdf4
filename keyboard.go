package bowtie

import "github.com/gogpu/bowtie/platform"

// Keyboard tracks key state from platform callbacks. Pressed and Released
// report transitions since the previous frame; Held reports current state.
type Keyboard struct {
	held     map[platform.Key]bool
	pressed  map[platform.Key]bool
	released map[platform.Key]bool
}

func newKeyboard() Keyboard {
	return Keyboard{
		held:     make(map[platform.Key]bool),
		pressed:  make(map[platform.Key]bool),
		released: make(map[platform.Key]bool),
	}
}

func (k *Keyboard) Held(key platform.Key) bool     { return k.held[key] }
func (k *Keyboard) Pressed(key platform.Key) bool  { return k.pressed[key] }
func (k *Keyboard) Released(key platform.Key) bool { return k.released[key] }

func (k *Keyboard) press(key platform.Key) {
	if !k.held[key] {
		k.pressed[key] = true
	}
	k.held[key] = true
}

func (k *Keyboard) release(key platform.Key) {
	if k.held[key] {
		k.released[key] = true
	}
	delete(k.held, key)
}

// endFrame clears the transitions.
func (k *Keyboard) endFrame() {
	clear(k.pressed)
	clear(k.released)
}
