package challenges

import "context"

// Store is the persistence contract the sync engine and membership operations rely on.
// Every write is conditional so the scheduler and request handlers never need a shared lock.
type Store interface {
	// ListTrackedGameIDs returns the distinct game ids referenced by non-terminal challenges.
	ListTrackedGameIDs(ctx context.Context) ([]string, error)
	// ListChallengesForGame returns the non-terminal challenges for one game.
	ListChallengesForGame(ctx context.Context, gameID string) ([]Challenge, error)
	// GetChallenge returns ErrChallengeNotFound when the id is unknown.
	GetChallenge(ctx context.Context, id string) (Challenge, error)
	// ConditionalSetStatus writes next only if the stored status still equals expected.
	ConditionalSetStatus(ctx context.Context, id string, expected, next Status) (bool, error)
	// ApplyMembershipChange replaces members, invitations, tickets and status only if the stored
	// version still equals expectedVersion. It returns nil on a version mismatch.
	ApplyMembershipChange(ctx context.Context, id string, expectedVersion int64, updated Challenge) (*Challenge, error)
}

// TicketLookup resolves tickets owned by the ticket CRUD layer.
type TicketLookup interface {
	GetTicket(ctx context.Context, id string) (Ticket, error)
}
