package challenges

import "errors"

// ErrDomain marks rule violations, as opposed to transport or storage failures.
var ErrDomain = errors.New("challenge rule violation")

var (
	ErrChallengeNotFound = domainError("challenge not found")
	ErrChallengeStarted  = domainError("challenge no longer accepts membership changes")
	ErrChallengeClosed   = domainError("challenge is finished or cancelled")
	ErrChallengeFull     = domainError("challenge is full")
	ErrAlreadyMember     = domainError("user already joined this challenge")
	ErrNotMember         = domainError("user is not a member of this challenge")
	ErrNotInvited        = domainError("user has no pending invitation")
	ErrOwnerCannotLeave  = domainError("owner cannot leave their own challenge")
	ErrTicketCount       = domainError("exactly one ticket is required to join")
	ErrInvalidTicket     = domainError("ticket does not belong to the user or the challenge game")
	ErrTicketNotFound    = domainError("ticket not found")
	ErrConflict          = domainError("challenge was modified concurrently")
)

type ruleError struct {
	msg string
}

func domainError(msg string) error {
	return &ruleError{msg: msg}
}

func (e *ruleError) Error() string { return e.msg }

func (e *ruleError) Unwrap() error { return ErrDomain }

// IsDomainError reports whether err is a rule violation.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrDomain)
}
