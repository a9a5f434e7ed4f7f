package challenges

import "github.com/rinkrivals/game-sync-service/internal/domain/games"

// MinMembersToActivate is the membership count at which a PENDING challenge
// becomes ACTIVE while its game is still scheduled.
const MinMembersToActivate = 2

// NextStatus computes the status a challenge should move to given the latest game phase.
// It never moves backwards along PENDING < ACTIVE < LIVE < FINISHED and leaves terminal
// challenges untouched. A nil game means the phase is unknown, which is never treated as finished.
func NextStatus(current Status, game *games.Status, memberCount int) Status {
	if current.IsTerminal() || game == nil {
		return current
	}
	switch {
	case game.IsFinished:
		return StatusFinished
	case game.IsLive:
		return StatusLive
	case game.IsScheduled:
		if current == StatusPending && memberCount >= MinMembersToActivate {
			return StatusActive
		}
		return current
	default:
		return current
	}
}
