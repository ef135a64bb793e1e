package behavior

import "github.com/basaltengine/basalt/internal/scene"

const (
	playerSpeed        uint32 = 2
	shootReload        uint32 = 10 // frames between shots
	bulletCenterOffset uint32 = 12
)

// Player moves by the held direction keys and fires a bullet with A, rate
// limited by a reload counter. Transforms clamp at zero instead of wrapping.
type Player struct {
	cooldown uint32
}

func (p *Player) Start(*scene.Context) {}

func (p *Player) Update(ctx *scene.Context) {
	n := ctx.Node
	if ctx.Input.Held(scene.ButtonUp) && n.Transform.Y >= playerSpeed {
		n.Transform.Y -= playerSpeed
	}
	if ctx.Input.Held(scene.ButtonDown) {
		n.Transform.Y += playerSpeed
	}
	if ctx.Input.Held(scene.ButtonLeft) && n.Transform.X >= playerSpeed {
		n.Transform.X -= playerSpeed
	}
	if ctx.Input.Held(scene.ButtonRight) {
		n.Transform.X += playerSpeed
	}

	if ctx.Input.Held(scene.ButtonA) && p.cooldown > shootReload {
		hd := ctx.Spawn("Bullet")
		b := ctx.H.Borrow(hd)
		b.Transform = n.Transform
		b.Transform.X += bulletCenterOffset
		p.cooldown = 0
	}
	p.cooldown++
}
