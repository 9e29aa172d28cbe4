package modelconfig

import (
	"errors"
	"testing"

	"github.com/Faultbox/ccmodels/pkg/math"
)

func TestSetField(t *testing.T) {
	c := New("horse")

	if err := c.SetField("NameY", "40", false); err != nil {
		t.Fatalf("NameY: %v", err)
	}
	if c.NameY != 40 {
		t.Errorf("expected NameY 40, got %v", c.NameY)
	}

	if err := c.SetField("bobbing", "false", false); err != nil {
		t.Fatalf("bobbing: %v", err)
	}
	if c.Bobbing {
		t.Error("expected bobbing false")
	}

	if err := c.SetField("collisionbounds", "10 20, 10", false); err != nil {
		t.Fatalf("collisionbounds: %v", err)
	}
	if c.CollisionBounds != (math.Vec3{X: 10, Y: 20, Z: 10}) {
		t.Errorf("unexpected collision bounds %+v", c.CollisionBounds)
	}

	if err := c.SetField("pickingbounds", "-4 0 -4 4 16 4", false); err != nil {
		t.Fatalf("pickingbounds: %v", err)
	}
	if c.PickingBoundsMax.Y != 16 {
		t.Errorf("expected picking max Y 16, got %v", c.PickingBoundsMax.Y)
	}

	if err := c.SetField("scale", "1.5", false); err != nil {
		t.Fatalf("scale: %v", err)
	}
	if c.Scale != 1.5 {
		t.Errorf("expected scale 1.5, got %v", c.Scale)
	}
}

func TestSetField_Errors(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		field    string
		value    string
		priv     bool
		expected error
	}{
		{"unknown field", "horse", "colour", "red", false, ErrUnknownField},
		{"not a number", "horse", "namey", "tall", false, ErrInvalidValue},
		{"not a bool", "horse", "pushes", "maybe", false, ErrInvalidValue},
		{"negative bounds", "horse", "collisionbounds", "-1 2 3", false, ErrInvalidValue},
		{"too few bounds", "horse", "collisionbounds", "1 2", false, ErrInvalidValue},
		{"inverted picking", "horse", "pickingbounds", "4 0 0 -4 1 1", false, ErrInvalidValue},
		{"scale zero", "horse", "scale", "0", false, ErrInvalidValue},
		{"scale too big", "horse", "scale", "2.5", false, ErrInvalidValue},
		{"personal scale", "bob+", "scale", "1.5", false, ErrFieldRestricted},
		{"personal bounds", "bob+", "collisionbounds", "1 1 1", false, ErrFieldRestricted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.model).SetField(tt.field, tt.value, tt.priv)
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestSetField_PersonalPrivileged(t *testing.T) {
	c := New("bob+")
	if err := c.SetField("scale", "1.5", true); err != nil {
		t.Fatalf("expected privileged set to succeed, got %v", err)
	}
	if err := c.SetField("namey", "20", false); err != nil {
		t.Fatalf("expected unrestricted field to be settable, got %v", err)
	}
}

func TestFieldNames(t *testing.T) {
	names := FieldNames()
	if len(names) != len(fields) {
		t.Fatalf("expected %d names, got %d", len(fields), len(names))
	}
	for _, n := range names {
		if err := New("horse").SetField(n, "", true); errors.Is(err, ErrUnknownField) {
			t.Errorf("listed field %q is unknown", n)
		}
	}
}
