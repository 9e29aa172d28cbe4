package game

import (
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"testing"

	"github.com/Faultbox/ccmodels/internal/config"
	"github.com/Faultbox/ccmodels/internal/game/world"
	"github.com/Faultbox/ccmodels/internal/network"
)

const boxScene = `{
	"meta": {"model_format": "free"},
	"resolution": {"width": 16, "height": 16},
	"elements": [
		{"name": "box", "from": [-8, 0, -8], "to": [8, 16, 8], "uuid": "b"}
	],
	"outliner": ["b"]
}`

func newGame(t *testing.T) *Game {
	t.Helper()
	skins := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(skins.Close)

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Models.ConfigDir = filepath.Join(dir, "models")
	cfg.Models.AssetDir = filepath.Join(dir, "scenes")
	cfg.Skins.URLTemplate = skins.URL + "/%s.png"

	g, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create game: %v", err)
	}
	t.Cleanup(g.Close)
	return g
}

// connect accepts a pipe whose client side is drained in the background.
func connect(t *testing.T, g *Game) network.ConnID {
	t.Helper()
	server, client := net.Pipe()
	go io.Copy(io.Discard, client)
	t.Cleanup(func() { client.Close() })
	return g.Accept(server)
}

func TestNew_BadFallback(t *testing.T) {
	cfg := config.Default()
	cfg.Models.ConfigDir = t.TempDir()
	cfg.Models.AssetDir = t.TempDir()
	cfg.Skins.Fallback = "zombie"

	if _, err := New(cfg); err == nil {
		t.Error("expected error for unknown fallback skin type")
	}
}

func TestGame_Lifecycle(t *testing.T) {
	g := newGame(t)

	if _, err := g.Upload("box", []byte(boxScene)); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if err := g.ValidateAll(); err != nil {
		t.Fatalf("expected stored models to be valid, got %v", err)
	}

	alice := connect(t, g)
	bob := connect(t, g)
	if _, err := g.Join(alice, "alice", "main", 0); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if _, err := g.Join(bob, "bob", "main", 1); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	if err := g.SetModel(alice, "box"); err != nil {
		t.Fatalf("set model failed: %v", err)
	}
	for _, conn := range []network.ConnID{alice, bob} {
		if got := g.Engine().SentModels(conn); !slices.Equal(got, []string{"box"}) {
			t.Errorf("conn %d: expected [box], got %v", conn, got)
		}
	}

	if err := g.SetLevel(bob, "other"); err != nil {
		t.Fatalf("set level failed: %v", err)
	}
	if got := g.Engine().SentModels(bob); len(got) != 0 {
		t.Errorf("expected bob to drop box after moving, got %v", got)
	}

	if err := g.SetLevel(bob, "main"); err != nil {
		t.Fatalf("set level failed: %v", err)
	}
	if err := g.Leave(alice); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if got := g.Engine().SentModels(bob); len(got) != 0 {
		t.Errorf("expected box undefined once alice left, got %v", got)
	}
	if err := g.SetModel(alice, "box"); !errors.Is(err, world.ErrNotJoined) {
		t.Errorf("expected ErrNotJoined, got %v", err)
	}
}

func TestGame_ValidateAllReportsBrokenModels(t *testing.T) {
	g := newGame(t)
	if _, err := g.Upload("box", []byte(boxScene)); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if err := g.Library().Assets.DeleteSceneDocument("box"); err != nil {
		t.Fatalf("failed to delete scene: %v", err)
	}
	if err := g.ValidateAll(); err == nil {
		t.Error("expected error for model without a scene document")
	}
}

func TestGame_SpawnDespawn(t *testing.T) {
	g := newGame(t)
	if _, err := g.Upload("box", []byte(boxScene)); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	alice := connect(t, g)
	bob := connect(t, g)
	g.Join(alice, "alice", "main", 0)
	g.Join(bob, "bob", "other", 0)

	bot, err := g.SpawnBot("guard", "main", "box")
	if err != nil {
		t.Fatalf("spawn failed: %v", err)
	}
	if got := g.Engine().SentModels(alice); !slices.Equal(got, []string{"box"}) {
		t.Errorf("expected spawned bot's model defined, got %v", got)
	}
	if got := g.Engine().SentModels(bob); len(got) != 0 {
		t.Errorf("expected other level untouched, got %v", got)
	}

	if err := g.Despawn(bot.ID()); err != nil {
		t.Fatalf("despawn failed: %v", err)
	}
	if got := g.Engine().SentModels(alice); len(got) != 0 {
		t.Errorf("expected despawned bot's model undefined, got %v", got)
	}

	if err := g.Despawn(bot.ID()); !errors.Is(err, ErrUnknownBot) {
		t.Errorf("expected ErrUnknownBot, got %v", err)
	}
	if err := g.Despawn(g.World().Player(alice).ID()); !errors.Is(err, ErrUnknownBot) {
		t.Errorf("expected players not to be despawned, got %v", err)
	}
}
