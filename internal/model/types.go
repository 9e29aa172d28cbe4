// Package model compiles scene documents into flat, wire-ready model parts
// and applies situational modifiers (sitting, skin layouts) to them.
package model

import (
	"fmt"

	"github.com/Faultbox/ccmodels/pkg/math"
)

// Face indices into a Part's UV arrays.
const (
	FaceUp = iota
	FaceDown
	FaceNorth
	FaceSouth
	FaceEast
	FaceWest
	FaceCount
)

// Axis is the axis an animation acts on.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// String returns the axis letter.
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return fmt.Sprintf("Axis(%d)", uint8(a))
	}
}

// AnimType is the procedural animation applied to a part. Values match the
// wire encoding.
type AnimType uint8

const (
	AnimNone AnimType = iota
	AnimHead
	AnimLeftLegX
	AnimRightLegX
	AnimLeftArmX
	AnimLeftArmZ
	AnimRightArmX
	AnimRightArmZ
	AnimSpin
	AnimSpinVelocity
	AnimSinRotate
	AnimSinRotateVelocity
	AnimSinTranslate
	AnimSinTranslateVelocity
	AnimSinSize
	AnimSinSizeVelocity
	AnimFlipRotate
	AnimFlipRotateVelocity
	AnimFlipTranslate
	AnimFlipTranslateVelocity
	AnimFlipSize
	AnimFlipSizeVelocity
)

var animTypeNames = [...]string{
	"None", "Head", "LeftLegX", "RightLegX", "LeftArmX", "LeftArmZ", "RightArmX", "RightArmZ",
	"Spin", "SpinVelocity", "SinRotate", "SinRotateVelocity", "SinTranslate", "SinTranslateVelocity",
	"SinSize", "SinSizeVelocity", "FlipRotate", "FlipRotateVelocity", "FlipTranslate",
	"FlipTranslateVelocity", "FlipSize", "FlipSizeVelocity",
}

func (t AnimType) String() string {
	if int(t) < len(animTypeNames) {
		return animTypeNames[t]
	}
	return fmt.Sprintf("AnimType(%d)", uint8(t))
}

// IsLeg reports whether the type is a procedural leg swing.
func (t AnimType) IsLeg() bool {
	return t == AnimLeftLegX || t == AnimRightLegX
}

// IsArm reports whether the type is a procedural arm swing.
func (t AnimType) IsArm() bool {
	return t >= AnimLeftArmX && t <= AnimRightArmZ
}

// IsLeft reports whether a limb type belongs to the left side.
func (t AnimType) IsLeft() bool {
	return t == AnimLeftLegX || t == AnimLeftArmX || t == AnimLeftArmZ
}

// IsFlip reports whether the type belongs to the flip family.
func (t AnimType) IsFlip() bool {
	return t >= AnimFlipRotate && t <= AnimFlipSizeVelocity
}

// AnimDescriptor is one animation attached to a part. The meaning of A..D
// depends on the type family:
//
//	pose:      A = multiplier on the limb's baseline swing
//	spin:      A = speed, B = shift
//	periodic:  A = speed, B = width, C = phase shift, D = position shift
//	flip:      A = speed, B = width, C = phase shift, D = max value (non-zero)
type AnimDescriptor struct {
	Type       AnimType
	Axis       Axis
	A, B, C, D float32
}

// Part is a compiled, flattened cuboid in block units.
type Part struct {
	Min            math.Vec3
	Max            math.Vec3
	Rotation       math.Vec3 // degrees
	RotationOrigin math.Vec3

	// UV rectangles in texture pixels, indexed by Face*.
	U1, V1, U2, V2 [FaceCount]uint16

	Anims []AnimDescriptor

	Fullbright     bool
	FirstPersonArm bool
	Layer          bool
	SkinLeftArm    bool
	SkinRightArm   bool
	SkinLeftLeg    bool
	SkinRightLeg   bool
}

// UsesHumanSkin reports whether the part is mapped onto a human skin limb.
func (p *Part) UsesHumanSkin() bool {
	return p.SkinLeftArm || p.SkinRightArm || p.SkinLeftLeg || p.SkinRightLeg
}

// HasAnim reports whether any animation on the part matches pred.
func (p *Part) HasAnim(pred func(AnimType) bool) bool {
	for _, a := range p.Anims {
		if pred(a.Type) {
			return true
		}
	}
	return false
}

// CompiledModel is the model header sent before its parts. Distances are
// in block units.
type CompiledModel struct {
	Name             string
	PartCount        int
	UScale, VScale   uint16
	NameY, EyeY      float32
	CollisionBounds  math.Vec3
	PickingBoundsMin math.Vec3
	PickingBoundsMax math.Vec3
	Bobbing          bool
	Pushes           bool
	UsesHumanSkin    bool
	CalcHumanAnims   bool
}

// nameYMargin keeps the name tag half a pixel above the tallest part.
const nameYMargin = 0.5 / 16

// AutoNameY places the name tag just above the tallest part.
func (m *CompiledModel) AutoNameY(parts []Part) {
	if len(parts) == 0 {
		return
	}
	top := parts[0].Max.Y
	for i := range parts[1:] {
		top = max(top, parts[i+1].Max.Y)
	}
	m.NameY = top + nameYMargin
}

// ApplyScale multiplies part geometry and header distances by s.
func ApplyScale(m *CompiledModel, parts []Part, s float32) {
	if s == 1 {
		return
	}
	for i := range parts {
		p := &parts[i]
		p.Min = p.Min.Scale(s)
		p.Max = p.Max.Scale(s)
		p.RotationOrigin = p.RotationOrigin.Scale(s)
	}
	m.NameY *= s
	m.EyeY *= s
	m.CollisionBounds = m.CollisionBounds.Scale(s)
	m.PickingBoundsMin = m.PickingBoundsMin.Scale(s)
	m.PickingBoundsMax = m.PickingBoundsMax.Scale(s)
}
