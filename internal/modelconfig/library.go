package modelconfig

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/ccmodels/internal/assets"
	"github.com/Faultbox/ccmodels/internal/logger"
	"github.com/Faultbox/ccmodels/internal/model"
	"github.com/Faultbox/ccmodels/pkg/formats"
)

// Library ties model configs to their scene documents and runs the compile
// pipeline.
type Library struct {
	Configs ConfigStore
	Assets  assets.AssetStore
	Limits  model.Limits
}

// Upload validates and compiles a scene document before storing it under
// name. Nothing is written unless compilation succeeds within the limits.
// A default config is created for new models.
func (l *Library) Upload(name string, data []byte) ([]formats.Warning, error) {
	n := ParseModelName(name)

	doc, err := formats.ParseSceneDocument(data)
	if err != nil {
		return nil, err
	}
	warnings := doc.Validate()

	parts, err := model.Compile(doc)
	if err != nil {
		return warnings, err
	}
	if err := model.CheckLimits(parts, l.Limits); err != nil {
		return warnings, err
	}

	if err := l.Assets.SaveSceneDocument(n.Base, data); err != nil {
		return warnings, err
	}
	if !l.Configs.Exists(n.Base) {
		if err := l.Configs.Save(New(n.Base)); err != nil {
			return warnings, err
		}
	}

	logger.Info("model uploaded",
		zap.String("model", n.Base),
		zap.Int("parts", len(parts)),
		zap.Int("warnings", len(warnings)))
	return warnings, nil
}

// Exists reports whether name refers to a stored custom model.
func (l *Library) Exists(name string) bool {
	return l.Configs.Exists(name)
}

// Load returns the stored config for name's base.
func (l *Library) Load(name string) (*StoredModelConfig, error) {
	return l.Configs.Load(name)
}

// Build runs the full pipeline for a fully-qualified name: load config and
// scene, compile, build the header, apply modifiers, scale, check limits.
func (l *Library) Build(name ModelName) (*model.CompiledModel, []model.Part, error) {
	cfg, err := l.Configs.Load(name.Base)
	if err != nil {
		return nil, nil, err
	}
	data, err := l.Assets.LoadSceneDocument(name.Base)
	if err != nil {
		return nil, nil, err
	}
	doc, err := formats.ParseSceneDocument(data)
	if err != nil {
		return nil, nil, fmt.Errorf("model %s: %w", name.Base, err)
	}
	parts, err := model.Compile(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("model %s: %w", name.Base, err)
	}

	m := cfg.Header(name.String(), doc, parts)
	parts = model.Apply(name.Modifiers, m, parts)
	model.ApplyScale(m, parts, cfg.Scale)

	if err := model.CheckLimits(parts, l.Limits); err != nil {
		return nil, nil, fmt.Errorf("model %s: %w", name, err)
	}
	return m, parts, nil
}

// Delete removes a model's config and scene document.
func (l *Library) Delete(name string) error {
	base := ParseModelName(name).Base
	if err := l.Configs.Delete(base); err != nil {
		return err
	}
	return l.Assets.DeleteSceneDocument(base)
}
