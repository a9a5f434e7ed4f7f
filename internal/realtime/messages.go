package realtime

import "fmt"

// StatusChanged announces a lifecycle transition.
func StatusChanged(challengeID, from, to string) Event {
	return Event{Type: EventStatusChanged, ChallengeID: challengeID, Message: fmt.Sprintf("%s -> %s", from, to)}
}

// Joined announces a new member.
func Joined(challengeID, userID string) Event {
	return Event{Type: EventJoined, ChallengeID: challengeID, Message: userID}
}

// Left announces a member leaving.
func Left(challengeID, userID string) Event {
	return Event{Type: EventLeft, ChallengeID: challengeID, Message: userID}
}

// Declined announces a dropped invitation.
func Declined(challengeID, userID string) Event {
	return Event{Type: EventDeclined, ChallengeID: challengeID, Message: userID}
}

// Created announces a new challenge to sessions already watching its id.
func Created(challengeID, ownerID string) Event {
	return Event{Type: EventCreated, ChallengeID: challengeID, Message: ownerID}
}

// Deleted announces a removed challenge.
func Deleted(challengeID string) Event {
	return Event{Type: EventDeleted, ChallengeID: challengeID}
}
