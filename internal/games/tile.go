package games

import "math/rand"

// Tile is one scrambled letter of the tile-order game
type Tile struct {
	ID     int    `json:"id"`
	Letter string `json:"letter"`
	Used   bool   `json:"used"`
}

// TileSnapshot is the renderable state of a TileGame
type TileSnapshot struct {
	Snapshot
	Tiles []Tile `json:"tiles"`
}

// TileGame scrambles each word into a one-time set of tiles that the player
// places in order. A wrong tile ends the attempt: after the feedback phase the
// word is queued again.
type TileGame struct {
	session
	rng   *rand.Rand
	tiles []Tile
}

// NewTileGame creates a tile-order game over words
func NewTileGame(words []Word, rng *rand.Rand, onFinish FinishFunc) *TileGame {
	g := &TileGame{rng: rng}
	g.init(words, onFinish)
	g.onAttempt = g.scramble
	return g
}

func (g *TileGame) scramble() {
	letters := g.letters[g.current()]
	order := g.rng.Perm(len(letters))
	// a scramble that spells the word gives the answer away; retry a few times
	for try := 0; try < 5 && len(letters) > 1 && isIdentity(order, letters); try++ {
		order = g.rng.Perm(len(letters))
	}
	g.tiles = make([]Tile, len(letters))
	for i, j := range order {
		g.tiles[i] = Tile{ID: i, Letter: string(letters[j])}
	}
}

// PlaceTile puts tile id into the open slot
func (g *TileGame) PlaceTile(id int) Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.latch() {
		return Ignored
	}
	if id < 0 || id >= len(g.tiles) || g.tiles[id].Used {
		g.unlatch()
		return Ignored
	}

	if []rune(g.tiles[id].Letter)[0] != g.target() {
		g.reject()
		g.phase = PhaseFeedback
		return Rejected
	}

	g.tiles[id].Used = true
	g.accept()
	g.unlatch()
	return Accepted
}

// Snapshot returns the current state for rendering
func (g *TileGame) Snapshot() TileSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap := TileSnapshot{Snapshot: g.snapshotLocked(), Tiles: []Tile{}}
	if g.phase == PhaseActive || g.phase == PhaseFeedback {
		snap.Tiles = append(snap.Tiles, g.tiles...)
	}
	return snap
}

// isIdentity reports whether order keeps the letters spelling the word
func isIdentity(order []int, letters []rune) bool {
	for i, j := range order {
		if letters[i] != letters[j] {
			return false
		}
	}
	return true
}
