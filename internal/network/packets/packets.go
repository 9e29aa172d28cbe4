// Package packets defines the CustomModels extension packets.
package packets

import (
	"encoding/binary"
	stdmath "math"

	"github.com/Faultbox/ccmodels/internal/model"
	"github.com/Faultbox/ccmodels/pkg/encoding"
	"github.com/Faultbox/ccmodels/pkg/math"
)

// Packet opcodes.
const (
	OpDefineModel     byte = 0x32
	OpDefineModelPart byte = 0x33
	OpUndefineModel   byte = 0x34
)

// Protocol limits.
const (
	MaxSlots = 256 // model ids per connection
	MaxParts = 64  // parts per model
	MaxAnims = 4   // animations per part in the v2 encoding
)

// Part encoding versions.
const (
	PartsV1 = 1
	PartsV2 = 2
)

// Model flag bits.
const (
	flagBobbing byte = 1 << iota
	flagPushes
	flagUsesHumanSkin
	flagCalcHumanAnims
)

// Part flag bits.
const (
	flagFullbright byte = 1 << iota
	flagFirstPersonArm
)

// writer fills a fixed-size buffer in big-endian order.
type writer struct {
	buf []byte
	off int
}

func (w *writer) putByte(b byte) {
	w.buf[w.off] = b
	w.off++
}

func (w *writer) putUint16(v uint16) {
	binary.BigEndian.PutUint16(w.buf[w.off:], v)
	w.off += 2
}

func (w *writer) putFloat(f float32) {
	binary.BigEndian.PutUint32(w.buf[w.off:], stdmath.Float32bits(f))
	w.off += 4
}

func (w *writer) putVec3(v math.Vec3) {
	w.putFloat(v.X)
	w.putFloat(v.Y)
	w.putFloat(v.Z)
}

func (w *writer) putString(s string) {
	w.off += copy(w.buf[w.off:], encoding.UTF8ToFixedCP437(s, encoding.StringSize))
}

// DefineModel (0x32) declares a model header on a slot.
type DefineModel struct {
	ModelID          uint8
	Name             string
	Bobbing          bool
	Pushes           bool
	UsesHumanSkin    bool
	CalcHumanAnims   bool
	NameY            float32
	EyeY             float32
	CollisionBounds  math.Vec3
	PickingBoundsMin math.Vec3
	PickingBoundsMax math.Vec3
	UScale           uint16
	VScale           uint16
	PartCount        uint8
}

// NewDefineModel builds the header packet for m on slot id.
func NewDefineModel(id uint8, m *model.CompiledModel) *DefineModel {
	return &DefineModel{
		ModelID:          id,
		Name:             m.Name,
		Bobbing:          m.Bobbing,
		Pushes:           m.Pushes,
		UsesHumanSkin:    m.UsesHumanSkin,
		CalcHumanAnims:   m.CalcHumanAnims,
		NameY:            m.NameY,
		EyeY:             m.EyeY,
		CollisionBounds:  m.CollisionBounds,
		PickingBoundsMin: m.PickingBoundsMin,
		PickingBoundsMax: m.PickingBoundsMax,
		UScale:           m.UScale,
		VScale:           m.VScale,
		PartCount:        uint8(m.PartCount),
	}
}

// Size returns packet size.
func (p *DefineModel) Size() int {
	return 116
}

// Encode encodes the packet to bytes.
func (p *DefineModel) Encode() []byte {
	w := &writer{buf: make([]byte, p.Size())}
	w.putByte(OpDefineModel)
	w.putByte(p.ModelID)
	w.putString(p.Name)

	var flags byte
	if p.Bobbing {
		flags |= flagBobbing
	}
	if p.Pushes {
		flags |= flagPushes
	}
	if p.UsesHumanSkin {
		flags |= flagUsesHumanSkin
	}
	if p.CalcHumanAnims {
		flags |= flagCalcHumanAnims
	}
	w.putByte(flags)

	w.putFloat(p.NameY)
	w.putFloat(p.EyeY)
	w.putVec3(p.CollisionBounds)
	w.putVec3(p.PickingBoundsMin)
	w.putVec3(p.PickingBoundsMax)
	w.putUint16(p.UScale)
	w.putUint16(p.VScale)
	w.putByte(p.PartCount)
	return w.buf
}

// DefineModelPart (0x33) sends one part of the model on a slot. Parts are
// sent in order after the header.
type DefineModelPart struct {
	ModelID uint8
	Version int // PartsV1 or PartsV2
	Part    model.Part
}

// Size returns packet size for the part encoding version.
func (p *DefineModelPart) Size() int {
	if p.Version == PartsV1 {
		return 104
	}
	return 167
}

// Encode encodes the packet to bytes. V1 carries the first animation with a
// single parameter; v2 carries up to MaxAnims with all four.
func (p *DefineModelPart) Encode() []byte {
	part := &p.Part
	w := &writer{buf: make([]byte, p.Size())}
	w.putByte(OpDefineModelPart)
	w.putByte(p.ModelID)
	w.putVec3(part.Min)
	w.putVec3(part.Max)
	for face := 0; face < model.FaceCount; face++ {
		w.putUint16(part.U1[face])
		w.putUint16(part.V1[face])
		w.putUint16(part.U2[face])
		w.putUint16(part.V2[face])
	}
	w.putVec3(part.RotationOrigin)
	w.putVec3(part.Rotation)

	if p.Version == PartsV1 {
		var a model.AnimDescriptor
		if len(part.Anims) > 0 {
			a = part.Anims[0]
		}
		w.putByte(animByte(a))
		w.putFloat(a.A)
	} else {
		for i := 0; i < MaxAnims; i++ {
			var a model.AnimDescriptor
			if i < len(part.Anims) {
				a = part.Anims[i]
			}
			w.putByte(animByte(a))
			w.putFloat(a.A)
			w.putFloat(a.B)
			w.putFloat(a.C)
			w.putFloat(a.D)
		}
	}

	var flags byte
	if part.Fullbright {
		flags |= flagFullbright
	}
	if part.FirstPersonArm {
		flags |= flagFirstPersonArm
	}
	w.putByte(flags)
	return w.buf
}

func animByte(a model.AnimDescriptor) byte {
	return byte(a.Axis)<<6 | byte(a.Type)&0x3F
}

// UndefineModel (0x34) frees a slot on the client.
type UndefineModel struct {
	ModelID uint8
}

// Size returns packet size.
func (p *UndefineModel) Size() int {
	return 2
}

// Encode encodes the packet to bytes.
func (p *UndefineModel) Encode() []byte {
	return []byte{OpUndefineModel, p.ModelID}
}
