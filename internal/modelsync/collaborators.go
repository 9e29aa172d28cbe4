// Package modelsync keeps each connection's set of defined custom models in
// step with the entities it can see.
package modelsync

import (
	"github.com/Faultbox/ccmodels/internal/model"
	"github.com/Faultbox/ccmodels/internal/modelconfig"
	"github.com/Faultbox/ccmodels/internal/network"
	"github.com/Faultbox/ccmodels/internal/skin"
)

// ConnID identifies a client connection.
type ConnID = network.ConnID

// EntityRef is an entity whose model may be shown to connections.
type EntityRef interface {
	ID() uint32
	CurrentModelName() string
	SkinName() string
	Revision() uint64
}

// VisibilityProvider reports what a connection can see right now,
// including its own player.
type VisibilityProvider interface {
	EntitiesVisibleTo(conn ConnID) []EntityRef
}

// EntityDirectory enumerates tracked entities and their observers.
type EntityDirectory interface {
	Entities() []EntityRef
	ConnectionsSeeing(entityID uint32) []ConnID
}

// EntityRefresher tells observers to re-resolve an entity's displayed model.
type EntityRefresher interface {
	RefreshEntity(e EntityRef)
}

// PacketCodec encodes CustomModels packets.
type PacketCodec interface {
	EncodeDefineModel(id uint8, m *model.CompiledModel) []byte
	EncodeDefineModelPart(id uint8, p *model.Part, version int) []byte
	EncodeUndefineModel(id uint8) []byte
}

// Transport delivers encoded packets. Send does not report failures; a
// broken connection is torn down by the transport.
type Transport interface {
	Send(conn ConnID, data []byte)
}

// ModelSource looks up stored models and builds them.
type ModelSource interface {
	Exists(name string) bool
	Load(name string) (*modelconfig.StoredModelConfig, error)
	Build(name modelconfig.ModelName) (*model.CompiledModel, []model.Part, error)
}

// SkinProbe classifies skins with a cache.
type SkinProbe interface {
	skin.Prober
	GetCached(skin string) (skin.SkinType, bool)
	Invalidate(skin string)
}
