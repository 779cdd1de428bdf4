// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/bowtie/geom"
)

// CommandKind identifies the operation carried by a Command.
type CommandKind uint8

// Command kinds, in the order the renderer dispatches them.
const (
	// CommandFence signals the attached Fence.
	CommandFence CommandKind = iota
	// CommandLoadResource creates a resource at a logical handle.
	CommandLoadResource
	// CommandUpdateResource replaces the contents of a loaded resource.
	CommandUpdateResource
	// CommandUnloadResource destroys a resource and clears its slot.
	CommandUnloadResource
	// CommandResize changes the output resolution.
	CommandResize
	// CommandRenderWorld draws one world into its target.
	CommandRenderWorld
	// CommandCombineRenderedWorlds composites and presents the frame.
	CommandCombineRenderedWorlds
	// CommandSetUniformValue sets a material uniform.
	CommandSetUniformValue
	// CommandSpriteStateReflection mirrors sprite deltas into a world.
	CommandSpriteStateReflection

	commandKindCount
)

var commandKindNames = [...]string{
	CommandFence:                 "Fence",
	CommandLoadResource:          "LoadResource",
	CommandUpdateResource:        "UpdateResource",
	CommandUnloadResource:        "UnloadResource",
	CommandResize:                "Resize",
	CommandRenderWorld:           "RenderWorld",
	CommandCombineRenderedWorlds: "CombineRenderedWorlds",
	CommandSetUniformValue:       "SetUniformValue",
	CommandSpriteStateReflection: "SpriteStateReflection",
}

// String returns the string representation of a CommandKind.
func (k CommandKind) String() string {
	if k < commandKindCount {
		return commandKindNames[k]
	}
	return "Unknown"
}

// Command is one unit of work on the channel. Payload is copied at enqueue
// time; Data points into the frame arena and is valid until the next
// Arena.Reset.
type Command struct {
	Kind    CommandKind
	Payload Payload
	Data    []byte
}

// Payload is the fixed-size part of a Command. The set of payload types is
// closed.
type Payload interface {
	payload()
}

// ResourcePayload carries LoadResource and UpdateResource.
type ResourcePayload struct {
	Handle Handle
	Desc   Descriptor
}

// UnloadPayload carries UnloadResource.
type UnloadPayload struct {
	Handle Handle
}

// ResizePayload carries Resize.
type ResizePayload struct {
	Resolution geom.Size
}

// RenderWorldPayload carries RenderWorld. View is the world-space
// rectangle mapped onto the target.
type RenderWorldPayload struct {
	World Handle
	View  geom.Rect
	Time  float64
}

// CombinePayload carries CombineRenderedWorlds. Shader may be NoHandle.
type CombinePayload struct {
	Shader Handle
}

// UniformPayload carries SetUniformValue. The values travel in Data as
// little-endian float32.
type UniformPayload struct {
	Material Handle
	Name     string
	Type     UniformType
}

// SpriteReflection carries SpriteStateReflection: snapshots of the sprites
// created and changed in a world since the last sync.
type SpriteReflection struct {
	World Handle
	New   []SpriteState
	Dirty []SpriteState
}

func (*Fence) payload()             {}
func (ResourcePayload) payload()    {}
func (UnloadPayload) payload()      {}
func (ResizePayload) payload()      {}
func (RenderWorldPayload) payload() {}
func (CombinePayload) payload()     {}
func (UniformPayload) payload()     {}
func (SpriteReflection) payload()   {}

// encodeFloats writes values into dst as little-endian float32.
func encodeFloats(dst []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// DecodeFloats reads little-endian float32 values from b.
func DecodeFloats(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
