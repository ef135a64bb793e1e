// Package behavior holds the built-in node behaviors and their numeric type
// ids. Prefab records refer to behaviors by id only; RegisterAll is the one
// place the ids and the Go types meet.
package behavior

import (
	"go.uber.org/zap"

	"github.com/basaltengine/basalt/internal/scene"
)

const (
	PlayerID uint32 = 1
	BulletID uint32 = 2
	MenuID   uint32 = 3
)

// Options tunes the built-ins without touching their code.
type Options struct {
	GameScene string // scene the menu switches to, default "GameScene"
	Log       *zap.Logger
}

// RegisterAll binds every built-in behavior to its id.
func RegisterAll(reg *scene.Registry, opts Options) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	game := opts.GameScene
	if game == "" {
		game = "GameScene"
	}
	reg.Register(PlayerID, "Player", func() scene.Script { return &Player{} })
	reg.Register(BulletID, "Bullet", func() scene.Script { return &Bullet{} })
	reg.Register(MenuID, "Menu", func() scene.Script { return &Menu{log: log, gameScene: game} })
}
