package behavior

import "github.com/basaltengine/basalt/internal/scene"

const (
	bulletSpeed  uint32 = 5
	bulletMaxAge uint32 = 120 // frames before self-destruct
)

// Bullet flies straight up and removes itself at the top edge, or after its
// lifetime runs out so strays never accumulate.
type Bullet struct {
	age uint32
}

func (b *Bullet) Start(*scene.Context) {}

func (b *Bullet) Update(ctx *scene.Context) {
	n := ctx.Node
	b.age++
	if b.age > bulletMaxAge || n.Transform.Y < bulletSpeed {
		ctx.DestroySelf()
		return
	}
	n.Transform.Y -= bulletSpeed
}
