package model

import stdmath "math"

// slimArmWidth is the width difference between classic and slim arms.
const slimArmWidth = 1.0 / 16

// alexUVShift moves the low and high U edge of each arm face so the arm
// samples the 3-pixel-wide slim layout instead of the 4-pixel classic one.
var alexUVShift = map[string][2]int{
	"up":    {0, -1},
	"down":  {-1, -2},
	"front": {0, -1},
	"back":  {-1, -2},
	"inner": {-1, -1},
	"outer": {0, 0},
}

// ApplyAlex converts human arm parts to the slim skin layout: the outer side
// of each arm moves one pixel inward and the arm's UVs narrow to match.
func ApplyAlex(parts []Part) {
	for i := range parts {
		p := &parts[i]
		if !p.SkinLeftArm && !p.SkinRightArm {
			continue
		}

		// The outer side is whichever X edge is farther from the body centre.
		outerIsMin := -p.Min.X > p.Max.X
		inner, outer := FaceWest, FaceEast
		if outerIsMin {
			p.Min.X += slimArmWidth
			inner, outer = FaceEast, FaceWest
		} else {
			p.Max.X -= slimArmWidth
		}

		shiftU(p, FaceUp, alexUVShift["up"])
		shiftU(p, FaceDown, alexUVShift["down"])
		shiftU(p, FaceNorth, alexUVShift["front"])
		shiftU(p, FaceSouth, alexUVShift["back"])
		shiftU(p, inner, alexUVShift["inner"])
		shiftU(p, outer, alexUVShift["outer"])
	}
}

// shiftU moves the low and high U edges of a face, keeping the face's
// original U1/U2 direction.
func shiftU(p *Part, face int, d [2]int) {
	u1, u2 := int(p.U1[face]), int(p.U2[face])
	lo, hi := min(u1, u2)+d[0], max(u1, u2)+d[1]
	lo, hi = max(lo, 0), max(hi, 0)
	if u1 <= u2 {
		p.U1[face], p.U2[face] = uint16(lo), uint16(hi)
	} else {
		p.U1[face], p.U2[face] = uint16(hi), uint16(lo)
	}
}

// ApplySteve converts parts to the classic 64x32 skin: second-layer parts
// are dropped, V coordinates are doubled, and each left limb reuses the
// right limb's texture mirrored, since the classic sheet has one region per
// limb pair.
func ApplySteve(parts []Part) []Part {
	kept := parts[:0]
	for _, p := range parts {
		if !p.Layer {
			kept = append(kept, p)
		}
	}

	for i := range kept {
		p := &kept[i]
		for f := 0; f < FaceCount; f++ {
			p.V1[f] = doubleV(p.V1[f])
			p.V2[f] = doubleV(p.V2[f])
		}
	}

	mirrorLimb(kept, func(p *Part) bool { return p.SkinLeftArm }, func(p *Part) bool { return p.SkinRightArm })
	mirrorLimb(kept, func(p *Part) bool { return p.SkinLeftLeg }, func(p *Part) bool { return p.SkinRightLeg })
	return kept
}

// doubleV doubles a V coordinate, saturating at the largest wire value.
func doubleV(v uint16) uint16 {
	return uint16(min(uint32(v)*2, stdmath.MaxUint16))
}

func mirrorLimb(parts []Part, isLeft, isRight func(*Part) bool) {
	var right *Part
	for i := range parts {
		if isRight(&parts[i]) {
			right = &parts[i]
			break
		}
	}
	if right == nil {
		return
	}
	src := *right

	for i := range parts {
		p := &parts[i]
		if !isLeft(p) || p == right {
			continue
		}
		p.U1, p.U2 = src.U2, src.U1
		p.V1, p.V2 = src.V1, src.V2
		p.U1[FaceEast], p.U1[FaceWest] = p.U1[FaceWest], p.U1[FaceEast]
		p.V1[FaceEast], p.V1[FaceWest] = p.V1[FaceWest], p.V1[FaceEast]
		p.U2[FaceEast], p.U2[FaceWest] = p.U2[FaceWest], p.U2[FaceEast]
		p.V2[FaceEast], p.V2[FaceWest] = p.V2[FaceWest], p.V2[FaceEast]
	}
}
