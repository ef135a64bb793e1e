package behavior

import (
	"go.uber.org/zap"

	"github.com/basaltengine/basalt/internal/scene"
)

// Menu idles on the title screen and swaps in the game scene when the
// player presses A or Start.
type Menu struct {
	log       *zap.Logger
	gameScene string
}

func (m *Menu) Start(*scene.Context) {
	m.log.Info("press start")
}

func (m *Menu) Update(ctx *scene.Context) {
	if ctx.Input.Pressed(scene.ButtonA) || ctx.Input.Pressed(scene.ButtonStart) {
		m.log.Info("starting game", zap.String("scene", m.gameScene))
		ctx.SetScene(m.gameScene)
	}
}
