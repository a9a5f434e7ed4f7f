package challenges

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Status is the persisted lifecycle state of a challenge.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusLive      Status = "LIVE"
	StatusFinished  Status = "FINISHED"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusLive, StatusFinished, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the sync engine must leave the challenge alone.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// Rank orders the forward sequence PENDING < ACTIVE < LIVE < FINISHED.
// CANCELLED sits outside the sequence and ranks -1.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusActive:
		return 1
	case StatusLive:
		return 2
	case StatusFinished:
		return 3
	}
	return -1
}

// ParseStatus accepts a status name in any case.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown challenge status %q", raw)
	}
	return s, nil
}

// Challenge is a group competition tied to one external game.
type Challenge struct {
	ID             string            `json:"id"`
	OwnerID        string            `json:"ownerId"`
	GameID         string            `json:"gameId"`
	Status         Status            `json:"status"`
	MemberIDs      []string          `json:"memberIds"`
	InvitedUserIDs []string          `json:"invitedUserIds"`
	TicketIDs      map[string]string `json:"ticketIds"`
	MaxMembers     int               `json:"maxMembers"`
	Version        int64             `json:"version"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// MemberCount returns the number of members, owner included.
func (c Challenge) MemberCount() int {
	return len(c.MemberIDs)
}

// IsMember reports whether userID has joined.
func (c Challenge) IsMember(userID string) bool {
	return slices.Contains(c.MemberIDs, userID)
}

// IsInvited reports whether userID holds a pending invitation.
func (c Challenge) IsInvited(userID string) bool {
	return slices.Contains(c.InvitedUserIDs, userID)
}

// Clone returns a deep copy so callers can mutate without aliasing stored slices and maps.
func (c Challenge) Clone() Challenge {
	out := c
	out.MemberIDs = slices.Clone(c.MemberIDs)
	out.InvitedUserIDs = slices.Clone(c.InvitedUserIDs)
	if c.TicketIDs != nil {
		out.TicketIDs = make(map[string]string, len(c.TicketIDs))
		for k, v := range c.TicketIDs {
			out.TicketIDs[k] = v
		}
	}
	return out
}

// Ticket is the slice of a bingo ticket that join validation needs.
type Ticket struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	GameID string `json:"gameId"`
}
