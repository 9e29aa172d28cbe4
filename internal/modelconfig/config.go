// Package modelconfig holds the persisted, author-editable settings of each
// custom model and the pipeline that turns a stored model into wire-ready
// parts.
package modelconfig

import (
	"github.com/Faultbox/ccmodels/internal/model"
	"github.com/Faultbox/ccmodels/pkg/formats"
	"github.com/Faultbox/ccmodels/pkg/math"
)

const pixelsPerBlock = 16

// StoredModelConfig is a model's persisted settings. Distances are in
// pixels (16 per block).
type StoredModelConfig struct {
	Name ModelName `yaml:"-"`

	BaseName         string    `yaml:"name"`
	NameY            float32   `yaml:"name_y"`
	EyeY             float32   `yaml:"eye_y"`
	CollisionBounds  math.Vec3 `yaml:"collision_bounds"`
	PickingBoundsMin math.Vec3 `yaml:"picking_bounds_min"`
	PickingBoundsMax math.Vec3 `yaml:"picking_bounds_max"`
	Bobbing          bool      `yaml:"bobbing"`
	Pushes           bool      `yaml:"pushes"`
	UsesHumanSkin    bool      `yaml:"uses_human_skin"`
	CalcHumanAnims   bool      `yaml:"calc_human_anims"`
	AutoNameY        bool      `yaml:"auto_name_y"`
	DefaultSkin      string    `yaml:"default_skin,omitempty"`
	Scale            float32   `yaml:"scale"`
}

// New creates a config for name with humanoid defaults. Modifier tags in
// name are kept on Name but not persisted.
func New(name string) *StoredModelConfig {
	n := ParseModelName(name)
	return &StoredModelConfig{
		Name:             n,
		BaseName:         n.Base,
		NameY:            32.5,
		EyeY:             26,
		CollisionBounds:  math.Vec3{X: 8.6, Y: 28.1, Z: 8.6},
		PickingBoundsMin: math.Vec3{X: -8, Y: 0, Z: -4},
		PickingBoundsMax: math.Vec3{X: 8, Y: 32, Z: 4},
		Bobbing:          true,
		Pushes:           true,
		UsesHumanSkin:    true,
		CalcHumanAnims:   true,
		Scale:            1,
	}
}

// IsPersonal reports whether this is a player's primary personal model.
func (c *StoredModelConfig) IsPersonal() bool {
	return c.Name.IsPersonal()
}

// Header builds the compiled model header for parts compiled from doc.
func (c *StoredModelConfig) Header(fullName string, doc *formats.SceneDocument, parts []model.Part) *model.CompiledModel {
	const toBlocks = 1.0 / pixelsPerBlock
	m := &model.CompiledModel{
		Name:             fullName,
		PartCount:        len(parts),
		UScale:           uint16(doc.Resolution.Width),
		VScale:           uint16(doc.Resolution.Height),
		NameY:            c.NameY * toBlocks,
		EyeY:             c.EyeY * toBlocks,
		CollisionBounds:  c.CollisionBounds.Scale(toBlocks),
		PickingBoundsMin: c.PickingBoundsMin.Scale(toBlocks),
		PickingBoundsMax: c.PickingBoundsMax.Scale(toBlocks),
		Bobbing:          c.Bobbing,
		Pushes:           c.Pushes,
		UsesHumanSkin:    c.UsesHumanSkin,
		CalcHumanAnims:   c.CalcHumanAnims,
	}
	if c.AutoNameY {
		m.AutoNameY(parts)
	}
	return m
}
