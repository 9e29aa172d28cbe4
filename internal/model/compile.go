package model

import (
	"errors"
	"fmt"
	stdmath "math"
	"strings"

	"github.com/Faultbox/ccmodels/pkg/formats"
	"github.com/Faultbox/ccmodels/pkg/math"
)

// Compile errors.
var (
	ErrMissingElement = errors.New("outliner references unknown element")
	ErrOutlinerCycle  = errors.New("outliner group contains itself")
)

// pixelsPerBlock converts document pixel units to block units.
const pixelsPerBlock = 16

// Name tokens that set part flags instead of animations.
const (
	flagFullbright    = "fullbright"
	flagHand          = "hand"
	flagLayer         = "layer"
	flagHumanLeftArm  = "humanleftarm"
	flagHumanRightArm = "humanrightarm"
	flagHumanLeftLeg  = "humanleftleg"
	flagHumanRightLeg = "humanrightleg"
)

// transform is the state threaded from the outliner root to each leaf.
// Origin is carried but never accumulated: only rotation propagates.
type transform struct {
	rotation math.Vec3
	origin   math.Vec3
	visible  bool
}

type compiler struct {
	index  map[string]*formats.Element
	onPath map[string]bool
	parts  []Part
}

// Compile flattens the document's outliner into parts, in outliner order.
// Elements hidden by their own flag or any ancestor group produce no part.
func Compile(doc *formats.SceneDocument) ([]Part, error) {
	c := &compiler{
		index:  doc.ElementIndex(),
		onPath: make(map[string]bool),
	}
	if err := c.walk(doc.Outliner, transform{visible: true}); err != nil {
		return nil, err
	}
	return c.parts, nil
}

func (c *compiler) walk(nodes []formats.OutlinerNode, state transform) error {
	for _, node := range nodes {
		if node.IsGroup() {
			if err := c.walkGroup(node.Group, state); err != nil {
				return err
			}
			continue
		}

		e, ok := c.index[node.UUID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingElement, node.UUID)
		}
		if !state.visible || !e.Visible() {
			continue
		}

		part, err := compileElement(e, state)
		if err != nil {
			return fmt.Errorf("element %q: %w", e.Name, err)
		}
		c.parts = append(c.parts, part)
	}
	return nil
}

func (c *compiler) walkGroup(g *formats.Group, state transform) error {
	if g.UUID != "" {
		if c.onPath[g.UUID] {
			return fmt.Errorf("%w: %s", ErrOutlinerCycle, g.Name)
		}
		c.onPath[g.UUID] = true
		defer delete(c.onPath, g.UUID)
	}

	child := transform{
		rotation: state.rotation.Add(math.V3(g.Rotation)),
		origin:   state.origin,
		visible:  state.visible && g.Visible(),
	}
	return c.walk(g.Children, child)
}

func compileElement(e *formats.Element, state transform) (Part, error) {
	part := Part{
		Min:            math.V3(e.From).AddScalar(-e.Inflate).Scale(1.0 / pixelsPerBlock),
		Max:            math.V3(e.To).AddScalar(e.Inflate).Scale(1.0 / pixelsPerBlock),
		Rotation:       math.V3(e.Rotation).Add(state.rotation),
		RotationOrigin: math.V3(e.Origin).Add(state.origin).Scale(1.0 / pixelsPerBlock),
	}

	for i, name := range formats.FaceOrder {
		uv := e.Faces[name].UV
		u1, v1, u2, v2 := uvCoord(uv[0]), uvCoord(uv[1]), uvCoord(uv[2]), uvCoord(uv[3])
		if name == formats.FaceUp {
			u1, v1, u2, v2 = u2, v2, u1, v1
		}
		part.U1[i], part.V1[i], part.U2[i], part.V2[i] = u1, v1, u2, v2
	}

	if err := applyAttributes(&part, e.Name); err != nil {
		return Part{}, err
	}

	// Second half of the up-face swap: together they produce the client's
	// face orientation.
	for i := range part.U1 {
		part.U1[i], part.U2[i] = part.U2[i], part.U1[i]
	}
	return part, nil
}

// applyAttributes reads the comma-separated tokens of an element name.
func applyAttributes(part *Part, name string) error {
	stripped := strings.Join(strings.Fields(name), "")
	for _, token := range strings.Split(stripped, ",") {
		if token == "" {
			continue
		}
		switch strings.ToLower(token) {
		case flagFullbright:
			part.Fullbright = true
		case flagHand:
			part.FirstPersonArm = true
		case flagLayer:
			part.Layer = true
		case flagHumanLeftArm:
			part.SkinLeftArm = true
		case flagHumanRightArm:
			part.SkinRightArm = true
		case flagHumanLeftLeg:
			part.SkinLeftLeg = true
		case flagHumanRightLeg:
			part.SkinRightLeg = true
		default:
			anims, err := ParseAnim(token)
			if err != nil {
				return fmt.Errorf("attribute %q: %w", token, err)
			}
			part.Anims = append(part.Anims, anims...)
		}
	}
	return nil
}

func uvCoord(v float32) uint16 {
	r := stdmath.Round(float64(v))
	if r < 0 {
		return 0
	}
	if r > stdmath.MaxUint16 {
		return stdmath.MaxUint16
	}
	return uint16(r)
}
