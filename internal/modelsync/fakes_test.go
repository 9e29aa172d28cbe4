package modelsync

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Faultbox/ccmodels/internal/model"
	"github.com/Faultbox/ccmodels/internal/modelconfig"
)

type fakeEntity struct {
	id uint32

	mu    sync.Mutex
	model string
	skin  string
	rev   uint64
}

func newEntity(id uint32, modelName string) *fakeEntity {
	return &fakeEntity{id: id, model: modelName}
}

func (e *fakeEntity) ID() uint32 { return e.id }

func (e *fakeEntity) CurrentModelName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model
}

func (e *fakeEntity) SkinName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.skin
}

func (e *fakeEntity) Revision() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rev
}

func (e *fakeEntity) setModel(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model = name
	e.rev++
}

// fakeWorld shows each connection a fixed list of entities.
type fakeWorld struct {
	mu        sync.Mutex
	visible   map[ConnID][]EntityRef
	refreshed []uint32
}

func newWorld() *fakeWorld {
	return &fakeWorld{visible: make(map[ConnID][]EntityRef)}
}

func (w *fakeWorld) show(conn ConnID, ents ...EntityRef) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible[conn] = ents
}

func (w *fakeWorld) EntitiesVisibleTo(conn ConnID) []EntityRef {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]EntityRef(nil), w.visible[conn]...)
}

func (w *fakeWorld) Entities() []EntityRef {
	w.mu.Lock()
	defer w.mu.Unlock()
	seen := make(map[uint32]EntityRef)
	for _, ents := range w.visible {
		for _, e := range ents {
			seen[e.ID()] = e
		}
	}
	var all []EntityRef
	for _, e := range seen {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID() < all[j].ID() })
	return all
}

func (w *fakeWorld) ConnectionsSeeing(id uint32) []ConnID {
	w.mu.Lock()
	defer w.mu.Unlock()
	var conns []ConnID
	for conn, ents := range w.visible {
		for _, e := range ents {
			if e.ID() == id {
				conns = append(conns, conn)
				break
			}
		}
	}
	return conns
}

func (w *fakeWorld) RefreshEntity(e EntityRef) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.refreshed = append(w.refreshed, e.ID())
}

// fakeSource serves models with a fixed number of parts.
type fakeSource struct {
	mu      sync.Mutex
	configs map[string]*modelconfig.StoredModelConfig
	parts   map[string]int
	broken  map[string]bool
	builds  int
}

func newSource() *fakeSource {
	return &fakeSource{
		configs: make(map[string]*modelconfig.StoredModelConfig),
		parts:   make(map[string]int),
		broken:  make(map[string]bool),
	}
}

func (s *fakeSource) add(base string, parts int, humanSkin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := modelconfig.New(base)
	cfg.UsesHumanSkin = humanSkin
	s.configs[base] = cfg
	s.parts[base] = parts
}

func (s *fakeSource) Exists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.configs[modelconfig.ParseModelName(name).Base]
	return ok
}

func (s *fakeSource) Load(name string) (*modelconfig.StoredModelConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[modelconfig.ParseModelName(name).Base]
	if !ok {
		return nil, modelconfig.ErrConfigNotFound
	}
	return cfg, nil
}

func (s *fakeSource) Build(name modelconfig.ModelName) (*model.CompiledModel, []model.Part, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds++
	if s.broken[name.Base] {
		return nil, nil, errors.New("broken scene")
	}
	n, ok := s.parts[name.Base]
	if !ok {
		return nil, nil, modelconfig.ErrConfigNotFound
	}
	parts := make([]model.Part, n)
	return &model.CompiledModel{Name: name.String(), PartCount: n}, parts, nil
}

func (s *fakeSource) buildCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builds
}

// textCodec encodes packets as readable strings.
type textCodec struct{}

func (textCodec) EncodeDefineModel(id uint8, m *model.CompiledModel) []byte {
	return []byte(fmt.Sprintf("define %d %s", id, m.Name))
}

func (textCodec) EncodeDefineModelPart(id uint8, p *model.Part, version int) []byte {
	return []byte(fmt.Sprintf("part %d v%d", id, version))
}

func (textCodec) EncodeUndefineModel(id uint8) []byte {
	return []byte(fmt.Sprintf("undefine %d", id))
}

type recorder struct {
	mu   sync.Mutex
	sent map[ConnID][]string
}

func newRecorder() *recorder {
	return &recorder{sent: make(map[ConnID][]string)}
}

func (r *recorder) Send(conn ConnID, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[conn] = append(r.sent[conn], string(data))
}

// take returns and clears what was sent to conn, without part packets.
func (r *recorder) take(conn ConnID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, s := range r.sent[conn] {
		if !strings.HasPrefix(s, "part ") {
			out = append(out, s)
		}
	}
	delete(r.sent, conn)
	return out
}

func (r *recorder) raw(conn ConnID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent[conn]...)
}
