// Package formats provides parsers for model authoring file formats.
// BBModel (scene-graph JSON) parser: elements are cuboids, the outliner is a
// tree of transform groups referencing elements by uuid.
package formats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// BBModel format errors.
var (
	ErrInvalidSceneJSON   = errors.New("invalid scene document JSON")
	ErrMissingResolution  = errors.New("scene document has no texture resolution")
	ErrInvalidOutlinerRef = errors.New("invalid outliner node")
)

// SupportedFormat is the only model_format the compiler fully understands.
const SupportedFormat = "free"

// FaceName identifies a cuboid face in the document.
type FaceName string

const (
	FaceUp    FaceName = "up"
	FaceDown  FaceName = "down"
	FaceNorth FaceName = "north"
	FaceSouth FaceName = "south"
	FaceEast  FaceName = "east"
	FaceWest  FaceName = "west"
)

// FaceOrder is the fixed face order used by compiled parts.
var FaceOrder = [6]FaceName{FaceUp, FaceDown, FaceNorth, FaceSouth, FaceEast, FaceWest}

// SceneMeta holds document metadata.
type SceneMeta struct {
	FormatVersion string `json:"format_version"`
	Format        string `json:"model_format"`
	BoxUV         bool   `json:"box_uv"`
}

// Resolution is the texture size in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Face is one textured side of an element.
type Face struct {
	UV       [4]float32 `json:"uv"`
	Texture  *int       `json:"texture,omitempty"` // nil when the face is untextured
	Rotation float32    `json:"rotation"`
}

// Element is a single cuboid primitive.
type Element struct {
	Name       string            `json:"name"`
	From       [3]float32        `json:"from"`
	To         [3]float32        `json:"to"`
	Inflate    float32           `json:"inflate,omitempty"`
	Rotation   [3]float32        `json:"rotation"`
	Origin     [3]float32        `json:"origin"`
	Visibility *bool             `json:"visibility,omitempty"`
	Faces      map[FaceName]Face `json:"faces"`
	UUID       string            `json:"uuid"`
}

// Visible reports the element's own visibility flag (absent means visible).
func (e *Element) Visible() bool {
	return e.Visibility == nil || *e.Visibility
}

// Group is an outliner transform node.
type Group struct {
	Name       string         `json:"name"`
	Origin     [3]float32     `json:"origin"`
	Rotation   [3]float32     `json:"rotation"`
	Visibility *bool          `json:"visibility,omitempty"`
	UUID       string         `json:"uuid"`
	Children   []OutlinerNode `json:"children"`
}

// Visible reports the group's own visibility flag (absent means visible).
func (g *Group) Visible() bool {
	return g.Visibility == nil || *g.Visibility
}

// OutlinerNode is either a leaf reference to an element uuid or a nested group.
type OutlinerNode struct {
	UUID  string // set for leaves
	Group *Group // set for groups
}

// IsGroup reports whether the node is a group.
func (n OutlinerNode) IsGroup() bool {
	return n.Group != nil
}

// UnmarshalJSON accepts a bare uuid string or a group object.
func (n *OutlinerNode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrInvalidOutlinerRef
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &n.UUID)
	case '{':
		n.Group = &Group{}
		return json.Unmarshal(data, n.Group)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidOutlinerRef, data)
	}
}

// MarshalJSON writes the node back in the document's mixed form.
func (n OutlinerNode) MarshalJSON() ([]byte, error) {
	if n.Group != nil {
		return json.Marshal(n.Group)
	}
	return json.Marshal(n.UUID)
}

// SceneDocument is a parsed scene-graph model document.
type SceneDocument struct {
	Meta       SceneMeta      `json:"meta"`
	Name       string         `json:"name"`
	Resolution Resolution     `json:"resolution"`
	Elements   []Element      `json:"elements"`
	Outliner   []OutlinerNode `json:"outliner"`
}

// ParseSceneDocument parses scene document JSON.
func ParseSceneDocument(data []byte) (*SceneDocument, error) {
	var doc SceneDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSceneJSON, err)
	}
	if doc.Resolution.Width <= 0 || doc.Resolution.Height <= 0 {
		return nil, ErrMissingResolution
	}
	return &doc, nil
}

// ElementIndex maps uuid to element.
func (d *SceneDocument) ElementIndex() map[string]*Element {
	index := make(map[string]*Element, len(d.Elements))
	for i := range d.Elements {
		index[d.Elements[i].UUID] = &d.Elements[i]
	}
	return index
}

// WarningKind classifies an unsupported feature found during validation.
type WarningKind int

const (
	WarnFormat WarningKind = iota
	WarnFaceRotation
	WarnMultiTexture
	WarnFractionalUV
	WarnNestedPivot
)

// String returns a short kind name.
func (k WarningKind) String() string {
	switch k {
	case WarnFormat:
		return "format"
	case WarnFaceRotation:
		return "face-rotation"
	case WarnMultiTexture:
		return "multi-texture"
	case WarnFractionalUV:
		return "fractional-uv"
	case WarnNestedPivot:
		return "nested-pivot"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Warning is a non-fatal validation finding.
type Warning struct {
	Kind    WarningKind
	Subject string // element or group name
	Message string
}

func (w Warning) String() string {
	if w.Subject == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.Subject, w.Message)
}

// Validate reports features the compiler can't represent faithfully.
func (d *SceneDocument) Validate() []Warning {
	var warnings []Warning

	if d.Meta.Format != SupportedFormat {
		warnings = append(warnings, Warning{
			Kind:    WarnFormat,
			Message: fmt.Sprintf("model format %q is not %q; use a free model", d.Meta.Format, SupportedFormat),
		})
	}

	for i := range d.Elements {
		warnings = append(warnings, validateElement(&d.Elements[i])...)
	}

	index := d.ElementIndex()
	var walk func(nodes []OutlinerNode)
	walk = func(nodes []OutlinerNode) {
		for _, n := range nodes {
			if !n.IsGroup() {
				continue
			}
			g := n.Group
			if !isZero(g.Rotation) && hasNestedPivot(g, index) {
				warnings = append(warnings, Warning{
					Kind:    WarnNestedPivot,
					Subject: g.Name,
					Message: "rotated group contains rotated children with a different pivot; only one pivot is kept",
				})
			}
			walk(g.Children)
		}
	}
	walk(d.Outliner)

	return warnings
}

func validateElement(e *Element) []Warning {
	var warnings []Warning
	textures := make(map[int]struct{})
	rotated, fractional := false, false

	for _, name := range FaceOrder {
		face, ok := e.Faces[name]
		if !ok {
			continue
		}
		if face.Texture != nil {
			textures[*face.Texture] = struct{}{}
		}
		if face.Rotation != 0 {
			rotated = true
		}
		for _, c := range face.UV {
			if c != float32(math.Trunc(float64(c))) {
				fractional = true
			}
		}
	}

	if rotated {
		warnings = append(warnings, Warning{Kind: WarnFaceRotation, Subject: e.Name, Message: "rotated UV faces are not supported"})
	}
	if len(textures) > 1 {
		warnings = append(warnings, Warning{Kind: WarnMultiTexture, Subject: e.Name, Message: "faces use more than one texture"})
	}
	if fractional {
		warnings = append(warnings, Warning{Kind: WarnFractionalUV, Subject: e.Name, Message: "UV coordinates are not whole pixels"})
	}
	return warnings
}

// hasNestedPivot reports whether a rotated descendant pivots somewhere other
// than the group's own origin.
func hasNestedPivot(g *Group, index map[string]*Element) bool {
	for _, c := range g.Children {
		if c.IsGroup() {
			if !isZero(c.Group.Rotation) && c.Group.Origin != g.Origin {
				return true
			}
			if hasNestedPivot(c.Group, index) {
				return true
			}
			continue
		}
		if e, ok := index[c.UUID]; ok && !isZero(e.Rotation) && e.Origin != g.Origin {
			return true
		}
	}
	return false
}

func isZero(v [3]float32) bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}
