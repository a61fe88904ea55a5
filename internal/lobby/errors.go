// internal/lobby/errors.go
package lobby

import "errors"

// Rejection reasons returned by the state machine and the store. Handlers map
// these onto HTTP statuses in one place; nothing here crosses the API boundary
// as a panic.
var (
	// ErrInvalidArgument covers malformed or missing request fields.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound means the lobby does not exist.
	ErrNotFound = errors.New("lobby not found")

	// ErrPlayerNotFound means the target player is not in the lobby roster.
	ErrPlayerNotFound = errors.New("player not found in lobby")

	// ErrAlreadyMember rejects a join for a user already in the roster.
	ErrAlreadyMember = errors.New("user already in lobby")

	// ErrFull rejects a join when the roster is at max_players.
	ErrFull = errors.New("lobby is full")

	// ErrNotOpen rejects a join when the lobby status is not open.
	ErrNotOpen = errors.New("lobby is not open for joining")

	// ErrNotMember rejects a leave for a user who is not in the roster.
	ErrNotMember = errors.New("user not in lobby")

	// ErrAlreadyExists means a lobby with the same ID is already stored.
	ErrAlreadyExists = errors.New("lobby already exists")

	// ErrRevisionConflict means the stored revision moved between read and
	// write; the caller should retry against the fresh snapshot.
	ErrRevisionConflict = errors.New("lobby revision conflict")

	// ErrContention means the compare-and-swap retry budget ran out.
	ErrContention = errors.New("lobby update contention")
)
