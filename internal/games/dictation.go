package games

import "strings"

// Prompts shown when audio input or output failed
const (
	PromptReplay = "The word did not play. Tap to hear it again."
	PromptRepeat = "Sorry, I didn't catch that. Say the letter again."
)

// Speaker reads a word aloud
type Speaker interface {
	Speak(text string) error
}

// DictationSnapshot is the renderable state of a DictationGame
type DictationSnapshot struct {
	Snapshot
	Heard  string `json:"heard,omitempty"`
	Prompt string `json:"prompt,omitempty"`
}

// DictationGame is the spelling bee: the word is read aloud and the player says
// or types it letter by letter. A wrong letter ends the attempt; after the
// feedback phase the word is queued again. Audio failures never surface as
// errors, they only ask the player to try again.
type DictationGame struct {
	session
	speaker Speaker
	heard   string
	prompt  string
}

// NewDictationGame creates a dictation game over words; speaker may be nil
func NewDictationGame(words []Word, speaker Speaker, onFinish FinishFunc) *DictationGame {
	g := &DictationGame{speaker: speaker}
	g.init(words, onFinish)
	g.onAttempt = func() {
		g.heard = ""
		g.prompt = ""
	}
	return g
}

// Listen reads the current word aloud
func (g *DictationGame) Listen() bool {
	g.mu.Lock()
	if g.speaker == nil || len(g.queue) == 0 || (g.phase != PhasePreview && g.phase != PhaseActive) {
		g.mu.Unlock()
		return false
	}
	text := g.words[g.current()].Text
	g.mu.Unlock()

	err := g.speaker.Speak(text)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.prompt = PromptReplay
		return false
	}
	if g.prompt == PromptReplay {
		g.prompt = ""
	}
	return true
}

// SpeakLetter judges a recognised utterance
func (g *DictationGame) SpeakLetter(heard string) Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseActive {
		return Ignored
	}
	r, ok := LetterFromSpeech(heard)
	if !ok {
		g.prompt = PromptRepeat
		return NoSignal
	}
	g.heard = strings.TrimSpace(heard)
	return g.judge(r)
}

// TypeLetter judges a single keystroke
func (g *DictationGame) TypeLetter(key string) Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := upperLetter(key)
	if !ok {
		return Ignored
	}
	g.heard = ""
	return g.judge(r)
}

// RecognitionFailed records that the recogniser gave up or errored
func (g *DictationGame) RecognitionFailed() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == PhaseActive {
		g.prompt = PromptRepeat
	}
}

func (g *DictationGame) judge(r rune) Outcome {
	if !g.latch() {
		return Ignored
	}
	g.prompt = ""
	if r != g.target() {
		g.reject()
		g.phase = PhaseFeedback
		return Rejected
	}
	g.accept()
	g.unlatch()
	return Accepted
}

// Snapshot returns the current state for rendering
func (g *DictationGame) Snapshot() DictationSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap := DictationSnapshot{Snapshot: g.snapshotLocked(), Heard: g.heard, Prompt: g.prompt}
	// the word is heard, not read, until it has been spelled
	if snap.Phase == PhasePreview {
		snap.Word, snap.Letters = "", ""
	}
	return snap
}
