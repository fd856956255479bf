package game

// Player is one seated participant: a name unique within the game, a hand,
// and a running count of completed pairs.
type Player struct {
	Name       string
	Hand       *Hand
	MatchCount int
}

// NewPlayer creates a player with an empty hand
func NewPlayer(name string) *Player {
	return &Player{Name: name, Hand: NewHand()}
}

// IsOutOfPlay is the per-player win condition: true once the player's
// unmatched hand is empty or the pair target has been reached.
func (p *Player) IsOutOfPlay(matchesToWin int) bool {
	return p.Hand.CountUnmatched() == 0 || p.MatchCount >= matchesToWin
}
