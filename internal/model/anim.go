package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Animation attribute errors.
var (
	ErrInvalidAnimValue = errors.New("invalid animation value")
	ErrTooManyAnimArgs  = errors.New("too many animation values")
	ErrFlipMaxZero      = errors.New("flip animation max value (4th value) must not be 0")
)

// cosPhaseShift turns a sine into a cosine (a quarter cycle).
const cosPhaseShift = 0.25

type animTarget struct {
	typ  AnimType
	axis Axis
}

type animTemplate struct {
	targets  []animTarget
	defaults [4]float32
	cos      bool
}

// animTable maps an attribute name to the animations it emits and their
// default a|b|c|d values. Keys are lowercase.
var animTable = map[string]animTemplate{
	// pose
	"head":      {targets: []animTarget{{AnimHead, AxisX}}, defaults: [4]float32{1, 0, 0, 0}},
	"headx":     {targets: []animTarget{{AnimHead, AxisX}}, defaults: [4]float32{1, 0, 0, 0}},
	"heady":     {targets: []animTarget{{AnimHead, AxisY}}, defaults: [4]float32{1, 0, 0, 0}},
	"headz":     {targets: []animTarget{{AnimHead, AxisZ}}, defaults: [4]float32{1, 0, 0, 0}},
	"leftleg":   {targets: []animTarget{{AnimLeftLegX, AxisX}}, defaults: [4]float32{1, 0, 0, 0}},
	"leftlegx":  {targets: []animTarget{{AnimLeftLegX, AxisX}}, defaults: [4]float32{1, 0, 0, 0}},
	"leftlegy":  {targets: []animTarget{{AnimLeftLegX, AxisY}}, defaults: [4]float32{1, 0, 0, 0}},
	"leftlegz":  {targets: []animTarget{{AnimLeftLegX, AxisZ}}, defaults: [4]float32{1, 0, 0, 0}},
	"rightleg":  {targets: []animTarget{{AnimRightLegX, AxisX}}, defaults: [4]float32{1, 0, 0, 0}},
	"rightlegx": {targets: []animTarget{{AnimRightLegX, AxisX}}, defaults: [4]float32{1, 0, 0, 0}},
	"rightlegy": {targets: []animTarget{{AnimRightLegX, AxisY}}, defaults: [4]float32{1, 0, 0, 0}},
	"rightlegz": {targets: []animTarget{{AnimRightLegX, AxisZ}}, defaults: [4]float32{1, 0, 0, 0}},
	"leftarm":   {targets: []animTarget{{AnimLeftArmX, AxisX}, {AnimLeftArmZ, AxisZ}}, defaults: [4]float32{1, 0, 0, 0}},
	"leftarmx":  {targets: []animTarget{{AnimLeftArmX, AxisX}}, defaults: [4]float32{1, 0, 0, 0}},
	"leftarmz":  {targets: []animTarget{{AnimLeftArmZ, AxisZ}}, defaults: [4]float32{1, 0, 0, 0}},
	"rightarm":  {targets: []animTarget{{AnimRightArmX, AxisX}, {AnimRightArmZ, AxisZ}}, defaults: [4]float32{1, 0, 0, 0}},
	"rightarmx": {targets: []animTarget{{AnimRightArmX, AxisX}}, defaults: [4]float32{1, 0, 0, 0}},
	"rightarmz": {targets: []animTarget{{AnimRightArmZ, AxisZ}}, defaults: [4]float32{1, 0, 0, 0}},

	// spin
	"spin":          {targets: []animTarget{{AnimSpin, AxisY}}, defaults: [4]float32{1, 0, 0, 0}},
	"spinx":         {targets: []animTarget{{AnimSpin, AxisX}}, defaults: [4]float32{1, 0, 0, 0}},
	"spiny":         {targets: []animTarget{{AnimSpin, AxisY}}, defaults: [4]float32{1, 0, 0, 0}},
	"spinz":         {targets: []animTarget{{AnimSpin, AxisZ}}, defaults: [4]float32{1, 0, 0, 0}},
	"spinxvelocity": {targets: []animTarget{{AnimSpinVelocity, AxisX}}, defaults: [4]float32{1, 0, 0, 0}},
	"spinyvelocity": {targets: []animTarget{{AnimSpinVelocity, AxisY}}, defaults: [4]float32{1, 0, 0, 0}},
	"spinzvelocity": {targets: []animTarget{{AnimSpinVelocity, AxisZ}}, defaults: [4]float32{1, 0, 0, 0}},

	// periodic rotation
	"sinx":         {targets: []animTarget{{AnimSinRotate, AxisX}}, defaults: [4]float32{1, 1, 0, 0}},
	"siny":         {targets: []animTarget{{AnimSinRotate, AxisY}}, defaults: [4]float32{1, 1, 0, 0}},
	"sinz":         {targets: []animTarget{{AnimSinRotate, AxisZ}}, defaults: [4]float32{1, 1, 0, 0}},
	"sinxvelocity": {targets: []animTarget{{AnimSinRotateVelocity, AxisX}}, defaults: [4]float32{1, 1, 0, 0}},
	"sinyvelocity": {targets: []animTarget{{AnimSinRotateVelocity, AxisY}}, defaults: [4]float32{1, 1, 0, 0}},
	"sinzvelocity": {targets: []animTarget{{AnimSinRotateVelocity, AxisZ}}, defaults: [4]float32{1, 1, 0, 0}},

	// periodic rotation, quarter cycle ahead
	"cosx":         {targets: []animTarget{{AnimSinRotate, AxisX}}, defaults: [4]float32{1, 1, 0, 0}, cos: true},
	"cosy":         {targets: []animTarget{{AnimSinRotate, AxisY}}, defaults: [4]float32{1, 1, 0, 0}, cos: true},
	"cosz":         {targets: []animTarget{{AnimSinRotate, AxisZ}}, defaults: [4]float32{1, 1, 0, 0}, cos: true},
	"cosxvelocity": {targets: []animTarget{{AnimSinRotateVelocity, AxisX}}, defaults: [4]float32{1, 1, 0, 0}, cos: true},
	"cosyvelocity": {targets: []animTarget{{AnimSinRotateVelocity, AxisY}}, defaults: [4]float32{1, 1, 0, 0}, cos: true},
	"coszvelocity": {targets: []animTarget{{AnimSinRotateVelocity, AxisZ}}, defaults: [4]float32{1, 1, 0, 0}, cos: true},

	// periodic translation
	"sintranslatex":         {targets: []animTarget{{AnimSinTranslate, AxisX}}, defaults: [4]float32{1, 1, 0, 0}},
	"sintranslatey":         {targets: []animTarget{{AnimSinTranslate, AxisY}}, defaults: [4]float32{1, 1, 0, 0}},
	"sintranslatez":         {targets: []animTarget{{AnimSinTranslate, AxisZ}}, defaults: [4]float32{1, 1, 0, 0}},
	"sintranslatexvelocity": {targets: []animTarget{{AnimSinTranslateVelocity, AxisX}}, defaults: [4]float32{1, 1, 0, 0}},
	"sintranslateyvelocity": {targets: []animTarget{{AnimSinTranslateVelocity, AxisY}}, defaults: [4]float32{1, 1, 0, 0}},
	"sintranslatezvelocity": {targets: []animTarget{{AnimSinTranslateVelocity, AxisZ}}, defaults: [4]float32{1, 1, 0, 0}},

	// periodic translation, quarter cycle ahead
	"costranslatex":         {targets: []animTarget{{AnimSinTranslate, AxisX}}, defaults: [4]float32{1, 1, 0, 0}, cos: true},
	"costranslatey":         {targets: []animTarget{{AnimSinTranslate, AxisY}}, defaults: [4]float32{1, 1, 0, 0}, cos: true},
	"costranslatez":         {targets: []animTarget{{AnimSinTranslate, AxisZ}}, defaults: [4]float32{1, 1, 0, 0}, cos: true},
	"costranslatexvelocity": {targets: []animTarget{{AnimSinTranslateVelocity, AxisX}}, defaults: [4]float32{1, 1, 0, 0}, cos: true},
	"costranslateyvelocity": {targets: []animTarget{{AnimSinTranslateVelocity, AxisY}}, defaults: [4]float32{1, 1, 0, 0}, cos: true},
	"costranslatezvelocity": {targets: []animTarget{{AnimSinTranslateVelocity, AxisZ}}, defaults: [4]float32{1, 1, 0, 0}, cos: true},

	// periodic size
	"sinsizex":         {targets: []animTarget{{AnimSinSize, AxisX}}, defaults: [4]float32{1, 1, 0, 1}},
	"sinsizey":         {targets: []animTarget{{AnimSinSize, AxisY}}, defaults: [4]float32{1, 1, 0, 1}},
	"sinsizez":         {targets: []animTarget{{AnimSinSize, AxisZ}}, defaults: [4]float32{1, 1, 0, 1}},
	"sinsizexvelocity": {targets: []animTarget{{AnimSinSizeVelocity, AxisX}}, defaults: [4]float32{1, 1, 0, 1}},
	"sinsizeyvelocity": {targets: []animTarget{{AnimSinSizeVelocity, AxisY}}, defaults: [4]float32{1, 1, 0, 1}},
	"sinsizezvelocity": {targets: []animTarget{{AnimSinSizeVelocity, AxisZ}}, defaults: [4]float32{1, 1, 0, 1}},

	// periodic size, quarter cycle ahead
	"cossizex":         {targets: []animTarget{{AnimSinSize, AxisX}}, defaults: [4]float32{1, 1, 0, 1}, cos: true},
	"cossizey":         {targets: []animTarget{{AnimSinSize, AxisY}}, defaults: [4]float32{1, 1, 0, 1}, cos: true},
	"cossizez":         {targets: []animTarget{{AnimSinSize, AxisZ}}, defaults: [4]float32{1, 1, 0, 1}, cos: true},
	"cossizexvelocity": {targets: []animTarget{{AnimSinSizeVelocity, AxisX}}, defaults: [4]float32{1, 1, 0, 1}, cos: true},
	"cossizeyvelocity": {targets: []animTarget{{AnimSinSizeVelocity, AxisY}}, defaults: [4]float32{1, 1, 0, 1}, cos: true},
	"cossizezvelocity": {targets: []animTarget{{AnimSinSizeVelocity, AxisZ}}, defaults: [4]float32{1, 1, 0, 1}, cos: true},

	// short-stroke translation
	"pistonx":         {targets: []animTarget{{AnimSinTranslate, AxisX}}, defaults: [4]float32{1, 0.125, 0, 0}},
	"pistony":         {targets: []animTarget{{AnimSinTranslate, AxisY}}, defaults: [4]float32{1, 0.125, 0, 0}},
	"pistonz":         {targets: []animTarget{{AnimSinTranslate, AxisZ}}, defaults: [4]float32{1, 0.125, 0, 0}},
	"pistonxvelocity": {targets: []animTarget{{AnimSinTranslateVelocity, AxisX}}, defaults: [4]float32{1, 0.125, 0, 0}},
	"pistonyvelocity": {targets: []animTarget{{AnimSinTranslateVelocity, AxisY}}, defaults: [4]float32{1, 0.125, 0, 0}},
	"pistonzvelocity": {targets: []animTarget{{AnimSinTranslateVelocity, AxisZ}}, defaults: [4]float32{1, 0.125, 0, 0}},

	// gentle size breathing around full size
	"pulsatex":         {targets: []animTarget{{AnimSinSize, AxisX}}, defaults: [4]float32{1, 0.1, 0, 1}},
	"pulsatey":         {targets: []animTarget{{AnimSinSize, AxisY}}, defaults: [4]float32{1, 0.1, 0, 1}},
	"pulsatez":         {targets: []animTarget{{AnimSinSize, AxisZ}}, defaults: [4]float32{1, 0.1, 0, 1}},
	"pulsatexvelocity": {targets: []animTarget{{AnimSinSizeVelocity, AxisX}}, defaults: [4]float32{1, 0.1, 0, 1}},
	"pulsateyvelocity": {targets: []animTarget{{AnimSinSizeVelocity, AxisY}}, defaults: [4]float32{1, 0.1, 0, 1}},
	"pulsatezvelocity": {targets: []animTarget{{AnimSinSizeVelocity, AxisZ}}, defaults: [4]float32{1, 0.1, 0, 1}},

	// flip rotation
	"flipx":         {targets: []animTarget{{AnimFlipRotate, AxisX}}, defaults: [4]float32{1, 1, 0, 1}},
	"flipy":         {targets: []animTarget{{AnimFlipRotate, AxisY}}, defaults: [4]float32{1, 1, 0, 1}},
	"flipz":         {targets: []animTarget{{AnimFlipRotate, AxisZ}}, defaults: [4]float32{1, 1, 0, 1}},
	"flipxvelocity": {targets: []animTarget{{AnimFlipRotateVelocity, AxisX}}, defaults: [4]float32{1, 1, 0, 1}},
	"flipyvelocity": {targets: []animTarget{{AnimFlipRotateVelocity, AxisY}}, defaults: [4]float32{1, 1, 0, 1}},
	"flipzvelocity": {targets: []animTarget{{AnimFlipRotateVelocity, AxisZ}}, defaults: [4]float32{1, 1, 0, 1}},

	// flip translation
	"fliptranslatex":         {targets: []animTarget{{AnimFlipTranslate, AxisX}}, defaults: [4]float32{1, 1, 0, 1}},
	"fliptranslatey":         {targets: []animTarget{{AnimFlipTranslate, AxisY}}, defaults: [4]float32{1, 1, 0, 1}},
	"fliptranslatez":         {targets: []animTarget{{AnimFlipTranslate, AxisZ}}, defaults: [4]float32{1, 1, 0, 1}},
	"fliptranslatexvelocity": {targets: []animTarget{{AnimFlipTranslateVelocity, AxisX}}, defaults: [4]float32{1, 1, 0, 1}},
	"fliptranslateyvelocity": {targets: []animTarget{{AnimFlipTranslateVelocity, AxisY}}, defaults: [4]float32{1, 1, 0, 1}},
	"fliptranslatezvelocity": {targets: []animTarget{{AnimFlipTranslateVelocity, AxisZ}}, defaults: [4]float32{1, 1, 0, 1}},

	// flip size
	"flipsizex":         {targets: []animTarget{{AnimFlipSize, AxisX}}, defaults: [4]float32{1, 1, 0, 1}},
	"flipsizey":         {targets: []animTarget{{AnimFlipSize, AxisY}}, defaults: [4]float32{1, 1, 0, 1}},
	"flipsizez":         {targets: []animTarget{{AnimFlipSize, AxisZ}}, defaults: [4]float32{1, 1, 0, 1}},
	"flipsizexvelocity": {targets: []animTarget{{AnimFlipSizeVelocity, AxisX}}, defaults: [4]float32{1, 1, 0, 1}},
	"flipsizeyvelocity": {targets: []animTarget{{AnimFlipSizeVelocity, AxisY}}, defaults: [4]float32{1, 1, 0, 1}},
	"flipsizezvelocity": {targets: []animTarget{{AnimFlipSizeVelocity, AxisZ}}, defaults: [4]float32{1, 1, 0, 1}},
}

// Idle arm sway: X swings at 0.2133 Hz, Z at 0.2865 Hz, both 2.865 degrees,
// Z offset outward by the same amount.
var (
	leftIdle = []AnimDescriptor{
		{Type: AnimSinRotate, Axis: AxisX, A: 0.2133, B: 2.865, C: 0, D: 0},
		{Type: AnimSinRotate, Axis: AxisZ, A: 0.2865, B: 2.865, C: cosPhaseShift, D: 2.865},
	}
	rightIdle = []AnimDescriptor{
		{Type: AnimSinRotate, Axis: AxisX, A: 0.2133, B: -2.865, C: 0, D: 0},
		{Type: AnimSinRotate, Axis: AxisZ, A: 0.2865, B: -2.865, C: cosPhaseShift, D: -2.865},
	}
)

// AnimDefaults describes one table entry.
type AnimDefaults struct {
	Name     string
	Anims    []AnimDescriptor // with defaults applied
	Defaults [4]float32
	Cos      bool
}

// AnimTable returns every table entry with its defaults resolved.
func AnimTable() []AnimDefaults {
	out := make([]AnimDefaults, 0, len(animTable))
	for name, tmpl := range animTable {
		anims, _ := tmpl.build(name, tmpl.defaults)
		out = append(out, AnimDefaults{Name: name, Anims: anims, Defaults: tmpl.defaults, Cos: tmpl.cos})
	}
	return out
}

// ParseAnim decodes one attribute token of the form name[:a[|b[|c[|d]]]].
// Unknown names yield no descriptors and no error.
func ParseAnim(token string) ([]AnimDescriptor, error) {
	name, args, hasArgs := strings.Cut(token, ":")
	key := strings.ToLower(name)

	switch key {
	case "leftidle":
		return append([]AnimDescriptor(nil), leftIdle...), nil
	case "rightidle":
		return append([]AnimDescriptor(nil), rightIdle...), nil
	}

	tmpl, ok := animTable[key]
	if !ok {
		return nil, nil
	}

	params := tmpl.defaults
	if hasArgs {
		values := strings.Split(args, "|")
		if len(values) > len(params) {
			return nil, fmt.Errorf("%w: %q takes at most %d", ErrTooManyAnimArgs, token, len(params))
		}
		for i, raw := range values {
			if raw == "" {
				continue
			}
			v, err := parseAnimValue(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %q in %q", ErrInvalidAnimValue, raw, token)
			}
			params[i] = v
		}
	}

	return tmpl.build(key, params)
}

// parseAnimValue accepts finite decimal numbers only.
func parseAnimValue(raw string) (float32, error) {
	if strings.ContainsAny(raw, "xX_") {
		return 0, strconv.ErrSyntax
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return float32(v), nil
}

func (t animTemplate) build(name string, params [4]float32) ([]AnimDescriptor, error) {
	if t.cos {
		params[2] += cosPhaseShift
	}

	anims := make([]AnimDescriptor, 0, len(t.targets))
	for _, target := range t.targets {
		if target.typ.IsFlip() && params[3] == 0 {
			return nil, fmt.Errorf("%w: %s", ErrFlipMaxZero, name)
		}
		anims = append(anims, AnimDescriptor{
			Type: target.typ,
			Axis: target.axis,
			A:    params[0],
			B:    params[1],
			C:    params[2],
			D:    params[3],
		})
	}
	return anims, nil
}
