package model

import (
	"slices"

	"github.com/Faultbox/ccmodels/pkg/math"
)

// Modifier tags understood by Apply.
const (
	ModSit     = "sit"
	ModSitCute = "sitcute"
	ModAlex    = "alex"
	ModSteve   = "steve"
)

// Apply runs the modifier pipeline over a freshly compiled model: sitting
// poses first, then human skin layout rewrites (only when some part maps onto
// a human skin limb). Parts are modified in place; the returned slice may be
// shorter when parts are dropped.
func Apply(mods []string, m *CompiledModel, parts []Part) []Part {
	switch {
	case slices.Contains(mods, ModSitCute):
		ApplySit(m, parts, true)
	case slices.Contains(mods, ModSit):
		ApplySit(m, parts, false)
	}

	if UsesHumanSkin(parts) {
		if slices.Contains(mods, ModAlex) {
			ApplyAlex(parts)
		}
		if slices.Contains(mods, ModSteve) {
			parts = ApplySteve(parts)
		}
	}

	m.PartCount = len(parts)
	return parts
}

// UsesHumanSkin reports whether any part is mapped onto a human skin limb.
func UsesHumanSkin(parts []Part) bool {
	for i := range parts {
		if parts[i].UsesHumanSkin() {
			return true
		}
	}
	return false
}

// Sitting pose constants, degrees and block units.
const (
	sitLegPitch     = 90
	sitLegSplay     = 5
	sitCuteLegSplay = 1
	sitCuteArmPitch = -40
	sitCuteArmRoll  = 25
	sitCuteArmReach = 1.0 / 16
)

// ApplySit poses leg-animated parts forward and lowers the whole model so
// the bent legs rest on the ground. Legs whose animations were already
// stripped by a previous call are left alone, so a second call is a no-op.
func ApplySit(m *CompiledModel, parts []Part, cute bool) {
	var legs []int
	for i := range parts {
		if parts[i].HasAnim(AnimType.IsLeg) {
			legs = append(legs, i)
		}
	}

	if cute {
		crossArms(parts)
	}
	if len(legs) == 0 {
		return
	}

	first := &parts[legs[0]]
	bottom, top := first.Min.Y, first.Max.Y
	legWidth := first.Max.Z - first.Min.Z
	for _, i := range legs[1:] {
		bottom = min(bottom, parts[i].Min.Y)
		top = max(top, parts[i].Max.Y)
	}
	lower := (top - bottom) - legWidth/2

	splay := float32(sitLegSplay)
	if cute {
		splay = sitCuteLegSplay
	}
	for _, i := range legs {
		p := &parts[i]
		left := stripAnims(p, AnimType.IsLeg)
		yaw := -splay
		if left {
			yaw = splay
		}
		p.Rotation = math.Vec3{X: sitLegPitch, Y: yaw, Z: 0}
	}

	for i := range parts {
		p := &parts[i]
		p.Min.Y -= lower
		p.Max.Y -= lower
		p.RotationOrigin.Y -= lower
		p.FirstPersonArm = false
	}
	m.EyeY -= lower
	m.NameY -= lower
}

func crossArms(parts []Part) {
	for i := range parts {
		p := &parts[i]
		if !p.HasAnim(AnimType.IsArm) {
			continue
		}
		left := stripAnims(p, AnimType.IsArm)
		roll := float32(sitCuteArmRoll)
		if left {
			roll = -roll
		}
		p.Rotation = math.Vec3{X: sitCuteArmPitch, Y: 0, Z: roll}
		p.Min.Z -= sitCuteArmReach
		p.Max.Z -= sitCuteArmReach
		p.RotationOrigin.Z -= sitCuteArmReach
	}
}

// stripAnims sets matching animations to None and reports whether any of
// them belonged to the left side.
func stripAnims(p *Part, pred func(AnimType) bool) (left bool) {
	for j := range p.Anims {
		if !pred(p.Anims[j].Type) {
			continue
		}
		left = left || p.Anims[j].Type.IsLeft()
		p.Anims[j].Type = AnimNone
	}
	return left
}
