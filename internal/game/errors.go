package game

import (
	"errors"
	"fmt"
)

// Structural rejections. None of these mutate game state.
var (
	ErrDuplicatePlayers = errors.New("players must have different names")
	ErrInvalidPlayer    = errors.New("two valid players are needed")
	ErrPlayerNotInGame  = errors.New("player is not in this game")
	ErrGameOver         = errors.New("game is already over")
	ErrCardNotFound     = errors.New("card not in hand")
)

// NotPlayersTurnError rejects a guess made out of turn. The message names the
// player whose turn it actually is.
type NotPlayersTurnError struct {
	Turn string
}

func (e *NotPlayersTurnError) Error() string {
	return fmt.Sprintf("not your turn, it is %s's turn", e.Turn)
}
