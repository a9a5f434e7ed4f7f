// Package postgres persists challenges and tickets with pgx.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rinkrivals/game-sync-service/internal/domain/challenges"
)

//go:embed schema.sql
var schema string

const challengeColumns = `id, owner_id, game_id, status, member_ids, invited_user_ids, ticket_ids, max_members, version, created_at, updated_at`

// Store implements challenges.Store and challenges.TicketLookup on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres: empty DATABASE_URL")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// CreateChallenge inserts c with the owner as a member and version 1.
func (s *Store) CreateChallenge(ctx context.Context, c challenges.Challenge) (challenges.Challenge, error) {
	if c.Status == "" {
		c.Status = challenges.StatusPending
	}
	members := slices.Clone(c.MemberIDs)
	if c.OwnerID != "" && !slices.Contains(members, c.OwnerID) {
		members = append([]string{c.OwnerID}, members...)
	}
	invited := slices.DeleteFunc(slices.Clone(c.InvitedUserIDs), func(id string) bool {
		return slices.Contains(members, id)
	})
	tickets := c.TicketIDs
	if tickets == nil {
		tickets = map[string]string{}
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO challenges (id, owner_id, game_id, status, member_ids, invited_user_ids, ticket_ids, max_members)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+challengeColumns,
		c.ID, c.OwnerID, c.GameID, string(c.Status), nonNil(members), nonNil(invited), tickets, c.MaxMembers,
	)
	return scanChallenge(row)
}

// DeleteChallenge removes a challenge.
func (s *Store) DeleteChallenge(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM challenges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete challenge %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return challenges.ErrChallengeNotFound
	}
	return nil
}

// PutTicket upserts a ticket.
func (s *Store) PutTicket(ctx context.Context, t challenges.Ticket) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tickets (id, user_id, game_id) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id, game_id = EXCLUDED.game_id`,
		t.ID, t.UserID, t.GameID,
	)
	if err != nil {
		return fmt.Errorf("postgres: put ticket %s: %w", t.ID, err)
	}
	return nil
}

// GetTicket implements challenges.TicketLookup.
func (s *Store) GetTicket(ctx context.Context, id string) (challenges.Ticket, error) {
	var t challenges.Ticket
	err := s.pool.QueryRow(ctx, `SELECT id, user_id, game_id FROM tickets WHERE id = $1`, id).
		Scan(&t.ID, &t.UserID, &t.GameID)
	if errors.Is(err, pgx.ErrNoRows) {
		return challenges.Ticket{}, challenges.ErrTicketNotFound
	}
	if err != nil {
		return challenges.Ticket{}, fmt.Errorf("postgres: get ticket %s: %w", id, err)
	}
	return t, nil
}

// ListTrackedGameIDs returns the distinct game ids of non-terminal challenges.
func (s *Store) ListTrackedGameIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT game_id FROM challenges
		WHERE status NOT IN ('FINISHED', 'CANCELLED')
		ORDER BY game_id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tracked games: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: list tracked games: %w", err)
	}
	return ids, nil
}

// ListChallengesForGame returns the non-terminal challenges of one game, oldest first.
func (s *Store) ListChallengesForGame(ctx context.Context, gameID string) ([]challenges.Challenge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+challengeColumns+` FROM challenges
		WHERE game_id = $1 AND status NOT IN ('FINISHED', 'CANCELLED')
		ORDER BY created_at, id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list challenges for %s: %w", gameID, err)
	}
	defer rows.Close()

	result := make([]challenges.Challenge, 0)
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list challenges for %s: %w", gameID, err)
	}
	return result, nil
}

// GetChallenge loads one challenge.
func (s *Store) GetChallenge(ctx context.Context, id string) (challenges.Challenge, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id)
	c, err := scanChallenge(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return challenges.Challenge{}, challenges.ErrChallengeNotFound
	}
	return c, err
}

// ConditionalSetStatus is a compare-and-swap on the status column.
func (s *Store) ConditionalSetStatus(ctx context.Context, id string, expected, next challenges.Status) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE challenges
		SET status = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND status = $2`,
		id, string(expected), string(next),
	)
	if err != nil {
		return false, fmt.Errorf("postgres: set status %s: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	return false, s.ensureExists(ctx, id)
}

// ApplyMembershipChange is a compare-and-swap on the version column.
func (s *Store) ApplyMembershipChange(ctx context.Context, id string, expectedVersion int64, updated challenges.Challenge) (*challenges.Challenge, error) {
	tickets := updated.TicketIDs
	if tickets == nil {
		tickets = map[string]string{}
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE challenges
		SET member_ids = $3, invited_user_ids = $4, ticket_ids = $5, status = $6,
		    version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING `+challengeColumns,
		id, expectedVersion, nonNil(updated.MemberIDs), nonNil(updated.InvitedUserIDs), tickets, string(updated.Status),
	)
	c, err := scanChallenge(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.ensureExists(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ensureExists(ctx context.Context, id string) error {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM challenges WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("postgres: check challenge %s: %w", id, err)
	}
	if !exists {
		return challenges.ErrChallengeNotFound
	}
	return nil
}

func scanChallenge(row pgx.Row) (challenges.Challenge, error) {
	var (
		c         challenges.Challenge
		status    string
		tickets   map[string]string
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.GameID, &status, &c.MemberIDs, &c.InvitedUserIDs,
		&tickets, &c.MaxMembers, &c.Version, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return challenges.Challenge{}, err
		}
		return challenges.Challenge{}, fmt.Errorf("postgres: scan challenge: %w", err)
	}
	c.Status = challenges.Status(status)
	c.TicketIDs = tickets
	if c.TicketIDs == nil {
		c.TicketIDs = map[string]string{}
	}
	c.CreatedAt = createdAt.UTC()
	c.UpdatedAt = updatedAt.UTC()
	return c, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

var (
	_ challenges.Store        = (*Store)(nil)
	_ challenges.TicketLookup = (*Store)(nil)
)
