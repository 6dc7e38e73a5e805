package main

// FenceDrag scales a tank's velocity on the tick it flattens a fence
const FenceDrag = 0.5

// FlattenFence removes a fence segment a tank drove onto
func (tc *TickContext) FlattenFence(tile Tile, t *Tank) {
	if !tc.World.Fences[tile] {
		return
	}
	delete(tc.World.Fences, tile)
	t.VX *= FenceDrag
	t.VY *= FenceDrag
	x, y := tile.Center()
	tc.Emit(Event{Kind: EventFence, X: x, Y: y, Actor: t.ID})
}
