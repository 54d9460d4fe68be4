package games

import "math/rand"

// OptionCount is the number of letters offered for the open slot
const OptionCount = 4

// OptionSnapshot is the renderable state of an OptionGame
type OptionSnapshot struct {
	Snapshot
	Options []string `json:"options"`
}

// OptionGame offers a small set of letters for the open slot only: the correct
// letter plus look-alike or sound-alike distractors. The set is rebuilt after
// every correct choice. A wrong choice restarts the word from its first slot
// within the same attempt.
type OptionGame struct {
	session
	rng     *rand.Rand
	options []string
}

// NewOptionGame creates an option-based game over words
func NewOptionGame(words []Word, rng *rand.Rand, onFinish FinishFunc) *OptionGame {
	g := &OptionGame{rng: rng}
	g.init(words, onFinish)
	g.onAttempt = g.deal
	return g
}

func (g *OptionGame) deal() {
	g.options = letterOptions(g.target(), OptionCount, g.rng)
}

// Choose submits a letter for the open slot
func (g *OptionGame) Choose(letter string) Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := upperLetter(letter)
	if !ok || !g.offered(string(r)) {
		return Ignored
	}
	if !g.latch() {
		return Ignored
	}
	defer g.unlatch()

	if r != g.target() {
		g.reject()
		g.slot = 0
		g.deal()
		return Rejected
	}

	if !g.accept() {
		g.deal()
	}
	return Accepted
}

func (g *OptionGame) offered(letter string) bool {
	for _, o := range g.options {
		if o == letter {
			return true
		}
	}
	return false
}

// Snapshot returns the current state for rendering
func (g *OptionGame) Snapshot() OptionSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap := OptionSnapshot{Snapshot: g.snapshotLocked(), Options: []string{}}
	if g.phase == PhaseActive {
		snap.Options = append(snap.Options, g.options...)
	}
	return snap
}

// letterOptions returns n distinct letters including correct, in random order.
// Distractors come from the confusion table first, then uniformly from A-Z.
func letterOptions(correct rune, n int, rng *rand.Rand) []string {
	picked := map[rune]bool{correct: true}
	out := []rune{correct}

	confusable := append([]rune(nil), confusedWith[correct]...)
	rng.Shuffle(len(confusable), func(i, j int) { confusable[i], confusable[j] = confusable[j], confusable[i] })
	for _, r := range confusable {
		if len(out) == n {
			break
		}
		if !picked[r] {
			picked[r] = true
			out = append(out, r)
		}
	}
	for len(out) < n {
		r := rune('A' + rng.Intn(26))
		if !picked[r] {
			picked[r] = true
			out = append(out, r)
		}
	}

	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	letters := make([]string, len(out))
	for i, r := range out {
		letters[i] = string(r)
	}
	return letters
}
