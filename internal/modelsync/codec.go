package modelsync

import (
	"github.com/Faultbox/ccmodels/internal/model"
	"github.com/Faultbox/ccmodels/internal/network/packets"
)

// WireCodec encodes with the packets package.
type WireCodec struct{}

// EncodeDefineModel implements PacketCodec.
func (WireCodec) EncodeDefineModel(id uint8, m *model.CompiledModel) []byte {
	return packets.NewDefineModel(id, m).Encode()
}

// EncodeDefineModelPart implements PacketCodec.
func (WireCodec) EncodeDefineModelPart(id uint8, p *model.Part, version int) []byte {
	pkt := &packets.DefineModelPart{ModelID: id, Version: version, Part: *p}
	return pkt.Encode()
}

// EncodeUndefineModel implements PacketCodec.
func (WireCodec) EncodeUndefineModel(id uint8) []byte {
	return (&packets.UndefineModel{ModelID: id}).Encode()
}
