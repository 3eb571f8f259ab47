package status

import (
	"slices"

	"github.com/matheus3301/lnf/internal/conversation"
)

// EventKind is a user or counterparty action on a conversation.
type EventKind string

const (
	RequestVerification EventKind = "request_verification"
	SubmitVerification  EventKind = "submit_verification"
	ApproveVerification EventKind = "approve_verification"
	RejectVerification  EventKind = "reject_verification"
	ProposeMeetup       EventKind = "propose_meetup"
	MarkReturned        EventKind = "mark_returned"
	GiveKarma           EventKind = "give_karma"
)

// validTransitions maps each status to the events it accepts and the resulting status.
// Anything missing from the table is ignored.
var validTransitions = map[conversation.Status]map[EventKind]conversation.Status{
	conversation.StatusNone: {
		RequestVerification: conversation.StatusVerificationRequested,
	},
	conversation.StatusVerificationRequested: {
		RequestVerification: conversation.StatusVerificationRequested,
		SubmitVerification:  conversation.StatusVerificationInProgress,
	},
	conversation.StatusAwaitingVerification: {
		SubmitVerification: conversation.StatusVerificationInProgress,
	},
	conversation.StatusVerificationInProgress: {
		ApproveVerification: conversation.StatusVerificationApproved,
		RejectVerification:  conversation.StatusAwaitingVerification,
	},
	conversation.StatusVerificationApproved: {
		ProposeMeetup: conversation.StatusMeetupArranged,
	},
	conversation.StatusMeetupArranged: {
		MarkReturned: conversation.StatusItemReturned,
	},
	conversation.StatusItemReturned: {
		GiveKarma: conversation.StatusItemReturned,
	},
}

// Next returns the status reached by applying ev in from, and false when ev is inert there.
func Next(from conversation.Status, ev EventKind) (conversation.Status, bool) {
	to, ok := validTransitions[from][ev]
	return to, ok
}

// Allowed lists the events accepted in s, in lifecycle order.
func Allowed(s conversation.Status) []EventKind {
	order := []EventKind{
		RequestVerification, SubmitVerification, ApproveVerification,
		RejectVerification, ProposeMeetup, MarkReturned, GiveKarma,
	}
	var out []EventKind
	for _, ev := range order {
		if _, ok := validTransitions[s][ev]; ok {
			out = append(out, ev)
		}
	}
	return out
}

// Accepts reports whether ev is valid in s.
func Accepts(s conversation.Status, ev EventKind) bool {
	return slices.Contains(Allowed(s), ev)
}
