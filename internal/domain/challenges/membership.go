package challenges

import "slices"

// Join validates and applies a join to a copy of c. The ticket must already be resolved by the caller.
// A PENDING challenge is promoted to ACTIVE once its member count reaches MinMembersToActivate.
// Game phase is not consulted here; the sync cycle owns LIVE and FINISHED.
func Join(c Challenge, userID string, ticket Ticket) (Challenge, error) {
	if c.Status != StatusPending && c.Status != StatusActive {
		return c, ErrChallengeStarted
	}
	if c.IsMember(userID) {
		return c, ErrAlreadyMember
	}
	if c.MaxMembers > 0 && c.MemberCount() >= c.MaxMembers {
		return c, ErrChallengeFull
	}
	if ticket.UserID != userID || ticket.GameID != c.GameID || ticket.ID == "" {
		return c, ErrInvalidTicket
	}

	out := c.Clone()
	out.InvitedUserIDs = remove(out.InvitedUserIDs, userID)
	out.MemberIDs = append(out.MemberIDs, userID)
	if out.TicketIDs == nil {
		out.TicketIDs = make(map[string]string)
	}
	out.TicketIDs[userID] = ticket.ID
	if out.Status == StatusPending && out.MemberCount() >= MinMembersToActivate {
		out.Status = StatusActive
	}
	return out, nil
}

// Leave removes a non-owner member and their ticket while the game has not started.
func Leave(c Challenge, userID string) (Challenge, error) {
	if c.Status != StatusPending && c.Status != StatusActive {
		return c, ErrChallengeStarted
	}
	if userID == c.OwnerID {
		return c, ErrOwnerCannotLeave
	}
	if !c.IsMember(userID) {
		return c, ErrNotMember
	}

	out := c.Clone()
	out.MemberIDs = remove(out.MemberIDs, userID)
	delete(out.TicketIDs, userID)
	return out, nil
}

// Decline drops a pending invitation without joining.
func Decline(c Challenge, userID string) (Challenge, error) {
	if c.Status.IsTerminal() {
		return c, ErrChallengeClosed
	}
	if !c.IsInvited(userID) {
		return c, ErrNotInvited
	}

	out := c.Clone()
	out.InvitedUserIDs = remove(out.InvitedUserIDs, userID)
	return out, nil
}

func remove(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(v string) bool { return v == id })
}
