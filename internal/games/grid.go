package games

import "math/rand"

const (
	GridSize    = 10
	Distractors = 3
	// SwipeThreshold is the drag distance, in screen units, that counts as one move
	SwipeThreshold = 30.0
)

// Direction of one snake step
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

var opposite = map[Direction]Direction{Up: Down, Down: Up, Left: Right, Right: Left}

var arrowKeys = map[string]Direction{
	"ArrowUp": Up, "ArrowDown": Down, "ArrowLeft": Left, "ArrowRight": Right,
	"w": Up, "s": Down, "a": Left, "d": Right,
}

// Point is a cell position; the grid wraps at every edge
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) step(d Direction) Point {
	switch d {
	case Up:
		p.Y--
	case Down:
		p.Y++
	case Left:
		p.X--
	case Right:
		p.X++
	}
	p.X = (p.X + GridSize) % GridSize
	p.Y = (p.Y + GridSize) % GridSize
	return p
}

// Cell is a letter lying on the grid
type Cell struct {
	Point
	Letter  string `json:"letter"`
	Flagged bool   `json:"flagged"`
	correct bool
}

// GridSnapshot is the renderable state of a GridGame
type GridSnapshot struct {
	Snapshot
	Size    int       `json:"size"`
	Snake   []Point   `json:"snake"`
	Heading Direction `json:"heading"`
	Cells   []Cell    `json:"cells"`
}

// GridGame scatters the next letter and a few distractors over a toroidal grid.
// The player steers a growing trail onto the right letter. Hitting a wrong
// letter flags it and costs points but the attempt goes on; a word finished
// with any mistake is queued again.
type GridGame struct {
	session
	rng     *rand.Rand
	snake   []Point
	heading Direction
	cells   []Cell
}

// NewGridGame creates a grid-collection game over words
func NewGridGame(words []Word, rng *rand.Rand, onFinish FinishFunc) *GridGame {
	g := &GridGame{rng: rng}
	g.init(words, onFinish)
	g.onAttempt = g.reset
	return g
}

func (g *GridGame) reset() {
	g.snake = []Point{{X: GridSize / 2, Y: GridSize / 2}}
	g.heading = Right
	g.spawn()
}

// spawn places the open slot's letter and Distractors other letters on free cells
func (g *GridGame) spawn() {
	taken := make(map[Point]bool, len(g.snake))
	for _, p := range g.snake {
		taken[p] = true
	}
	free := make([]Point, 0, GridSize*GridSize)
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			if p := (Point{X: x, Y: y}); !taken[p] {
				free = append(free, p)
			}
		}
	}
	g.rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

	target := g.target()
	g.cells = []Cell{{Point: free[0], Letter: string(target), correct: true}}
	used := map[rune]bool{target: true}
	for i := 1; len(g.cells) <= Distractors && i < len(free); i++ {
		r := rune('A' + g.rng.Intn(26))
		for used[r] {
			r = rune('A' + g.rng.Intn(26))
		}
		used[r] = true
		g.cells = append(g.cells, Cell{Point: free[i], Letter: string(r)})
	}
}

// Move steps the head of the trail one cell
func (g *GridGame) Move(d Direction) Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := opposite[d]; !ok {
		return Ignored
	}
	if len(g.snake) > 1 && opposite[g.heading] == d {
		return Ignored
	}
	if !g.latch() {
		return Ignored
	}
	defer g.unlatch()

	head := g.snake[0].step(d)
	g.heading = d

	for i := range g.cells {
		c := &g.cells[i]
		if c.Point != head {
			continue
		}
		if c.correct {
			g.snake = append([]Point{head}, g.snake...)
			if g.accept() {
				g.cells = nil
			} else {
				g.spawn()
			}
			return Accepted
		}
		if !c.Flagged {
			c.Flagged = true
			g.reject()
			g.advance(head)
			return Rejected
		}
	}

	g.advance(head)
	return Moved
}

func (g *GridGame) advance(head Point) {
	g.snake = append([]Point{head}, g.snake[:len(g.snake)-1]...)
}

// Key translates a keyboard key into a move
func (g *GridGame) Key(key string) Outcome {
	d, ok := arrowKeys[key]
	if !ok {
		return Ignored
	}
	return g.Move(d)
}

// Drag translates a drag gesture into a move along its dominant axis.
// Screen coordinates grow downwards.
func (g *GridGame) Drag(dx, dy float64) Outcome {
	ax, ay := dx, dy
	if ax < 0 {
		ax = -ax
	}
	if ay < 0 {
		ay = -ay
	}
	if ax < SwipeThreshold && ay < SwipeThreshold {
		return Ignored
	}
	switch {
	case ax >= ay && dx > 0:
		return g.Move(Right)
	case ax >= ay:
		return g.Move(Left)
	case dy > 0:
		return g.Move(Down)
	default:
		return g.Move(Up)
	}
}

// Snapshot returns the current state for rendering
func (g *GridGame) Snapshot() GridSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap := GridSnapshot{
		Snapshot: g.snapshotLocked(),
		Size:     GridSize,
		Heading:  g.heading,
		Snake:    append([]Point{}, g.snake...),
		Cells:    []Cell{},
	}
	if g.phase == PhaseActive {
		snap.Cells = append(snap.Cells, g.cells...)
	}
	return snap
}
