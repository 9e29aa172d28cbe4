package packets

import (
	"bytes"
	"encoding/binary"
	stdmath "math"
	"testing"

	"github.com/Faultbox/ccmodels/internal/model"
	"github.com/Faultbox/ccmodels/pkg/math"
)

func readFloat(buf []byte, off int) float32 {
	return stdmath.Float32frombits(binary.BigEndian.Uint32(buf[off:]))
}

func TestDefineModelEncode(t *testing.T) {
	m := &model.CompiledModel{
		Name:             "horse(sit)",
		PartCount:        3,
		UScale:           64,
		VScale:           32,
		NameY:            2.5,
		EyeY:             1.25,
		CollisionBounds:  math.Vec3{X: 1, Y: 2, Z: 3},
		PickingBoundsMin: math.Vec3{X: -1, Y: 0, Z: -1},
		PickingBoundsMax: math.Vec3{X: 1, Y: 2, Z: 1},
		Bobbing:          true,
		UsesHumanSkin:    true,
	}

	data := NewDefineModel(7, m).Encode()

	if len(data) != 116 {
		t.Fatalf("expected size 116, got %d", len(data))
	}
	if data[0] != OpDefineModel || data[1] != 7 {
		t.Errorf("expected opcode 0x32 slot 7, got %02x %d", data[0], data[1])
	}
	name := data[2:66]
	if !bytes.HasPrefix(name, []byte("horse(sit)")) || name[63] != ' ' {
		t.Errorf("expected space padded name, got %q", name)
	}
	if data[66] != 0b0101 {
		t.Errorf("expected flags bobbing|usesHumanSkin, got %04b", data[66])
	}
	if readFloat(data, 67) != 2.5 || readFloat(data, 71) != 1.25 {
		t.Errorf("unexpected nameY/eyeY %v %v", readFloat(data, 67), readFloat(data, 71))
	}
	if readFloat(data, 75) != 1 || readFloat(data, 83) != 3 {
		t.Error("collision bounds not at expected offset")
	}
	if readFloat(data, 87) != -1 || readFloat(data, 111-12) != 1 {
		t.Error("picking bounds not at expected offset")
	}
	if binary.BigEndian.Uint16(data[111:]) != 64 || binary.BigEndian.Uint16(data[113:]) != 32 {
		t.Error("uv scale not at expected offset")
	}
	if data[115] != 3 {
		t.Errorf("expected part count 3, got %d", data[115])
	}
}

func testPart() model.Part {
	p := model.Part{
		Min:            math.Vec3{X: -0.25, Y: 0, Z: -0.125},
		Max:            math.Vec3{X: 0.25, Y: 0.75, Z: 0.125},
		RotationOrigin: math.Vec3{Y: 0.75},
		Rotation:       math.Vec3{X: 90},
		Anims: []model.AnimDescriptor{
			{Type: model.AnimSpin, Axis: model.AxisY, A: 2, B: 3, C: 4, D: 5},
			{Type: model.AnimHead, Axis: model.AxisX, A: 1},
		},
		FirstPersonArm: true,
	}
	for f := 0; f < model.FaceCount; f++ {
		p.U1[f], p.V1[f], p.U2[f], p.V2[f] = uint16(f*4), uint16(f*4+1), uint16(f*4+2), uint16(f*4+3)
	}
	return p
}

func TestDefineModelPartEncodeV2(t *testing.T) {
	data := (&DefineModelPart{ModelID: 3, Version: PartsV2, Part: testPart()}).Encode()

	if len(data) != 167 {
		t.Fatalf("expected size 167, got %d", len(data))
	}
	if data[0] != OpDefineModelPart || data[1] != 3 {
		t.Errorf("expected opcode 0x33 slot 3, got %02x %d", data[0], data[1])
	}
	if readFloat(data, 2) != -0.25 || readFloat(data, 18) != 0.75 {
		t.Error("bounds not at expected offset")
	}
	// six faces of u1 v1 u2 v2 from offset 26
	for i := 0; i < 24; i++ {
		if got := binary.BigEndian.Uint16(data[26+2*i:]); got != uint16(i) {
			t.Fatalf("uv %d: expected %d, got %d", i, i, got)
		}
	}
	if readFloat(data, 74) != 0 || readFloat(data, 78) != 0.75 {
		t.Error("rotation origin not at expected offset")
	}
	if readFloat(data, 86) != 90 {
		t.Error("rotation not at expected offset")
	}

	const anims = 98
	if data[anims] != byte(model.AxisY)<<6|byte(model.AnimSpin) {
		t.Errorf("unexpected first anim byte %08b", data[anims])
	}
	if readFloat(data, anims+1) != 2 || readFloat(data, anims+13) != 5 {
		t.Error("first anim parameters not at expected offset")
	}
	if data[anims+17] != byte(model.AnimHead) {
		t.Errorf("unexpected second anim byte %08b", data[anims+17])
	}
	if data[anims+34] != 0 || data[anims+51] != 0 {
		t.Error("expected unused anim slots to be zero")
	}
	if data[166] != 0b10 {
		t.Errorf("expected firstPersonArm flag, got %02b", data[166])
	}
}

func TestDefineModelPartEncodeV1(t *testing.T) {
	p := testPart()
	p.Fullbright = true
	data := (&DefineModelPart{ModelID: 1, Version: PartsV1, Part: p}).Encode()

	if len(data) != 104 {
		t.Fatalf("expected size 104, got %d", len(data))
	}
	if data[98] != byte(model.AxisY)<<6|byte(model.AnimSpin) || readFloat(data, 99) != 2 {
		t.Error("expected first anim with its first parameter only")
	}
	if data[103] != 0b11 {
		t.Errorf("expected fullbright|firstPersonArm, got %02b", data[103])
	}
}

func TestUndefineModelEncode(t *testing.T) {
	data := (&UndefineModel{ModelID: 255}).Encode()
	if !bytes.Equal(data, []byte{0x34, 0xFF}) {
		t.Errorf("expected 34 ff, got % x", data)
	}
}
