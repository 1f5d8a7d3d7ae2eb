package game

// GameState is the session state machine.
//
//	menu ──Start──▶ playing ──Pause──▶ paused ──Resume──▶ playing
//	playing/paused ──Stop──▶ menu
//	playing/paused ──GameOver──▶ game_over ──Start──▶ playing
type GameState uint8

const (
	StateMenu GameState = iota
	StatePlaying
	StatePaused
	StateGameOver
	StateLoading
)

// String returns the wire name of the state.
func (s GameState) String() string {
	switch s {
	case StateMenu:
		return "menu"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateGameOver:
		return "game_over"
	case StateLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s GameState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
