package modelconfig

import (
	"errors"
	"fmt"
	stdmath "math"
	"strconv"
	"strings"

	"github.com/Faultbox/ccmodels/pkg/math"
)

// Field setter errors.
var (
	ErrUnknownField    = errors.New("unknown model field")
	ErrInvalidValue    = errors.New("invalid field value")
	ErrFieldRestricted = errors.New("field can't be changed on a personal model")
)

// MaxScale bounds the scale field.
const MaxScale = 2

type field struct {
	// restricted fields need privilege on primary personal models
	restricted bool
	set        func(c *StoredModelConfig, value string) error
}

var fields = map[string]field{
	"namey": {set: func(c *StoredModelConfig, v string) error {
		return setFloat(&c.NameY, v)
	}},
	"eyey": {set: func(c *StoredModelConfig, v string) error {
		return setFloat(&c.EyeY, v)
	}},
	"collisionbounds": {restricted: true, set: func(c *StoredModelConfig, v string) error {
		vals, err := parseFloats(v, 3)
		if err != nil {
			return err
		}
		if vals[0] < 0 || vals[1] < 0 || vals[2] < 0 {
			return fmt.Errorf("%w: collision bounds must not be negative", ErrInvalidValue)
		}
		c.CollisionBounds = math.Vec3{X: vals[0], Y: vals[1], Z: vals[2]}
		return nil
	}},
	"pickingbounds": {restricted: true, set: func(c *StoredModelConfig, v string) error {
		vals, err := parseFloats(v, 6)
		if err != nil {
			return err
		}
		lo := math.Vec3{X: vals[0], Y: vals[1], Z: vals[2]}
		hi := math.Vec3{X: vals[3], Y: vals[4], Z: vals[5]}
		if lo.X > hi.X || lo.Y > hi.Y || lo.Z > hi.Z {
			return fmt.Errorf("%w: picking bounds min must not exceed max", ErrInvalidValue)
		}
		c.PickingBoundsMin, c.PickingBoundsMax = lo, hi
		return nil
	}},
	"bobbing": {set: func(c *StoredModelConfig, v string) error {
		return setBool(&c.Bobbing, v)
	}},
	"pushes": {set: func(c *StoredModelConfig, v string) error {
		return setBool(&c.Pushes, v)
	}},
	"useshumanskin": {set: func(c *StoredModelConfig, v string) error {
		return setBool(&c.UsesHumanSkin, v)
	}},
	"calchumananims": {set: func(c *StoredModelConfig, v string) error {
		return setBool(&c.CalcHumanAnims, v)
	}},
	"autonamey": {set: func(c *StoredModelConfig, v string) error {
		return setBool(&c.AutoNameY, v)
	}},
	"defaultskin": {set: func(c *StoredModelConfig, v string) error {
		c.DefaultSkin = strings.TrimSpace(v)
		return nil
	}},
	"scale": {restricted: true, set: func(c *StoredModelConfig, v string) error {
		var s float32
		if err := setFloat(&s, v); err != nil {
			return err
		}
		if s <= 0 || s > MaxScale {
			return fmt.Errorf("%w: scale must be in (0, %d]", ErrInvalidValue, MaxScale)
		}
		c.Scale = s
		return nil
	}},
}

// FieldNames lists the settable fields in lowercase.
func FieldNames() []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	return names
}

// SetField validates and assigns one named field. Field names are
// case-insensitive. Restricted fields of a primary personal model can only
// be changed with privilege.
func (c *StoredModelConfig) SetField(name, value string, privileged bool) error {
	key := strings.ToLower(name)
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if f.restricted && c.IsPersonal() && !privileged {
		return fmt.Errorf("%w: %s", ErrFieldRestricted, name)
	}
	if err := f.set(c, value); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func setFloat(dst *float32, v string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
	if err != nil || stdmath.IsInf(f, 0) || stdmath.IsNaN(f) {
		return fmt.Errorf("%w: %q is not a number", ErrInvalidValue, v)
	}
	*dst = float32(f)
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %q is not true or false", ErrInvalidValue, v)
	}
	*dst = b
	return nil
}

// parseFloats reads exactly n numbers separated by spaces or commas.
func parseFloats(v string, n int) ([]float32, error) {
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ' ' || r == ',' })
	if len(parts) != n {
		return nil, fmt.Errorf("%w: expected %d numbers, got %d", ErrInvalidValue, n, len(parts))
	}
	vals := make([]float32, n)
	for i, p := range parts {
		if err := setFloat(&vals[i], p); err != nil {
			return nil, err
		}
	}
	return vals, nil
}
