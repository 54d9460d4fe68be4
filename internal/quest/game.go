package quest

import (
	"math/rand"
	"sync"

	"github.com/example/wordquest/internal/games"
	"github.com/example/wordquest/pkg/models"
)

// GameKind selects a mini-game
type GameKind string

const (
	GameTiles     GameKind = "tiles"
	GameOptions   GameKind = "options"
	GameGrid      GameKind = "grid"
	GameDictation GameKind = "dictation"
)

// Activity is the ledger activity a game is recorded under
func (k GameKind) Activity() (models.Activity, bool) {
	switch k {
	case GameTiles, GameOptions:
		return models.ActivityLetterOrder, true
	case GameGrid:
		return models.ActivityGridCollection, true
	case GameDictation:
		return models.ActivityVoiceDictation, true
	}
	return "", false
}

// playable is what every mini-game offers regardless of its input style
type playable interface {
	Begin() bool
	Continue() bool
	Close()
	Finished() bool
	Score() int
}

// GameInput is one input event. Which field is read depends on the game:
// Tile for tiles, Letter for options and typed dictation, Key, Direction or
// DX/DY for the grid, Heard or NoSpeech for spoken dictation.
type GameInput struct {
	Tile      *int    `json:"tile,omitempty"`
	Letter    string  `json:"letter,omitempty"`
	Key       string  `json:"key,omitempty"`
	Direction string  `json:"direction,omitempty"`
	DX        float64 `json:"dx,omitempty"`
	DY        float64 `json:"dy,omitempty"`
	Heard     string  `json:"heard,omitempty"`
	NoSpeech  bool    `json:"no_speech,omitempty"`
}

// GameSession is a live mini-game owned by one student
type GameSession struct {
	ID        string
	StudentID string
	Kind      GameKind
	Date      string

	game playable

	mu      sync.Mutex
	summary *SessionSummary
	err     error
}

// GameView is the renderable state of a GameSession
type GameView struct {
	ID        string          `json:"id"`
	Kind      GameKind        `json:"kind"`
	StudentID string          `json:"student_id"`
	State     interface{}     `json:"state"`
	Outcome   games.Outcome   `json:"outcome,omitempty"`
	Summary   *SessionSummary `json:"summary,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func newGame(kind GameKind, words []games.Word, rng *rand.Rand, onFinish games.FinishFunc) playable {
	switch kind {
	case GameOptions:
		return games.NewOptionGame(words, rng, onFinish)
	case GameGrid:
		return games.NewGridGame(words, rng, onFinish)
	case GameDictation:
		// audio is played and recognised by the browser
		return games.NewDictationGame(words, nil, onFinish)
	default:
		return games.NewTileGame(words, rng, onFinish)
	}
}

// Begin starts the current word
func (s *GameSession) Begin() bool { return s.game.Begin() }

// Continue moves past a completed word or a mistake
func (s *GameSession) Continue() bool { return s.game.Continue() }

// Close ends the session early, flushing results gathered so far
func (s *GameSession) Close() { s.game.Close() }

// Finished reports whether the session has ended
func (s *GameSession) Finished() bool { return s.game.Finished() }

// Input dispatches one input event to the game
func (s *GameSession) Input(in GameInput) games.Outcome {
	switch g := s.game.(type) {
	case *games.TileGame:
		if in.Tile == nil {
			return games.Ignored
		}
		return g.PlaceTile(*in.Tile)
	case *games.OptionGame:
		return g.Choose(in.Letter)
	case *games.GridGame:
		switch {
		case in.Key != "":
			return g.Key(in.Key)
		case in.Direction != "":
			return g.Move(games.Direction(in.Direction))
		default:
			return g.Drag(in.DX, in.DY)
		}
	case *games.DictationGame:
		switch {
		case in.NoSpeech:
			g.RecognitionFailed()
			return games.NoSignal
		case in.Heard != "":
			return g.SpeakLetter(in.Heard)
		default:
			return g.TypeLetter(in.Letter)
		}
	}
	return games.Ignored
}

// View returns the current state for rendering
func (s *GameSession) View() GameView {
	view := GameView{ID: s.ID, Kind: s.Kind, StudentID: s.StudentID}
	switch g := s.game.(type) {
	case *games.TileGame:
		view.State = g.Snapshot()
	case *games.OptionGame:
		view.State = g.Snapshot()
	case *games.GridGame:
		view.State = g.Snapshot()
	case *games.DictationGame:
		view.State = g.Snapshot()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	view.Summary = s.summary
	if s.err != nil {
		view.Error = s.err.Error()
	}
	return view
}

func (s *GameSession) recorded(summary *SessionSummary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = summary
	s.err = err
}

func toGameWords(words []models.QuestWord) []games.Word {
	out := make([]games.Word, len(words))
	for i, w := range words {
		out[i] = games.Word{ID: w.ID, Text: w.Word.Word}
	}
	return out
}
