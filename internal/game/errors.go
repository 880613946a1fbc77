package game

import "errors"

var (
	ErrPlayerNotFound   = errors.New("player not found")
	ErrMissingArgument  = errors.New("missing required argument")
	ErrCardNotFound     = errors.New("card not found")
	ErrNoSnapshot       = errors.New("no space entry snapshot")
	ErrEmptyCardPool    = errors.New("no cards of that type in the catalog")
	ErrNotCurrentPlayer = errors.New("not the current player")
	ErrActionsPending   = errors.New("required actions are not complete")
	ErrInvalidGameSetup = errors.New("invalid game setup")
	ErrGameNotStarted   = errors.New("game has not started")
	ErrActionNotPending = errors.New("action is not pending this turn")
)
