package status

import (
	"fmt"
	"time"

	"github.com/matheus3301/lnf/internal/conversation"
)

// Reply names a simulated counterparty response to schedule after a transition.
type Reply string

const (
	ReplyAcknowledge    Reply = "acknowledge"
	ReplyMeetupFollowUp Reply = "meetup_follow_up"
	ReplyChat           Reply = "chat"
)

const (
	requestText  = "To verify you're the rightful owner, can you please share a photo of the item from before you lost it or provide some unique details about it that only the owner would know?"
	approvedText = "✅ Ownership verification approved. You can now arrange to return the item."
	rejectedText = "❌ Ownership verification rejected. Please provide more convincing evidence."
	karmaText    = "Glad you got your %s back! If I helped, you can send me some karma."
)

// Event is an action applied to a conversation.
type Event struct {
	Kind  EventKind
	Actor conversation.Sender
	// Message carries the composed submission or meetup proposal.
	Message *conversation.Message
}

// Effect is the outcome of a valid event.
type Effect struct {
	Transition conversation.Transition
	Replies    []Reply
}

// Changed reports whether the effect moves the conversation to another status.
func (e Effect) Changed() bool {
	return e.Transition.From != e.Transition.To
}

// Machine computes transitions. It keeps no state beyond what the conversation holds.
type Machine struct {
	now func() time.Time
}

// NewMachine creates a machine stamping system messages with now.
func NewMachine(now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{now: now}
}

// Apply computes the effect of ev on c. It returns false when ev is inert in the current
// status; in that case nothing about c may change.
func (m *Machine) Apply(c *conversation.Conversation, ev Event) (Effect, bool) {
	from := c.Status()
	to, ok := Next(from, ev.Kind)
	if !ok {
		return Effect{}, false
	}
	eff := Effect{Transition: conversation.Transition{From: from, To: to}}
	now := m.now()

	switch ev.Kind {
	case RequestVerification:
		eff.Transition.Messages = []conversation.Message{{
			Sender:    conversation.SenderFinder,
			Text:      requestText,
			Timestamp: now,
			Verification: &conversation.Verification{
				Kind:   conversation.VerificationRequest,
				Status: conversation.VerificationPending,
			},
		}}

	case SubmitVerification:
		if ev.Message == nil || ev.Message.Verification == nil || ev.Message.Verification.Kind != conversation.VerificationResponse {
			return Effect{}, false
		}
		msg := *ev.Message
		v := *msg.Verification
		v.Status = conversation.VerificationSubmitted
		v.Reviewed = false
		msg.Verification = &v
		msg.Sender = conversation.SenderOwner
		eff.Transition.Messages = []conversation.Message{msg}
		eff.Replies = []Reply{ReplyAcknowledge}

	case ApproveVerification, RejectVerification:
		sub, ok := c.LatestSubmission()
		if !ok {
			return Effect{}, false
		}
		text, st := approvedText, conversation.VerificationApproved
		if ev.Kind == RejectVerification {
			text, st = rejectedText, conversation.VerificationRejected
		}
		eff.Transition.Messages = []conversation.Message{{
			Sender:    conversation.SenderSystem,
			Text:      text,
			Timestamp: now,
			Verification: &conversation.Verification{
				Kind:     conversation.VerificationDecision,
				Method:   sub.Verification.Method,
				Status:   st,
				Reviewed: true,
				Ref:      sub.Seq,
			},
		}}
		if ev.Kind == ApproveVerification {
			eff.Replies = []Reply{ReplyMeetupFollowUp}
		}

	case ProposeMeetup:
		if ev.Message == nil {
			return Effect{}, false
		}
		eff.Transition.Messages = []conversation.Message{*ev.Message}
		meetup := conversation.ExtractMeetup(append(c.Messages(), *ev.Message))
		if !meetup.Empty() {
			eff.Transition.Meetup = &meetup
		}

	case MarkReturned:
		eff.Transition.Messages = []conversation.Message{{
			Sender:    conversation.SenderFinder,
			Text:      fmt.Sprintf(karmaText, c.Item.Name),
			Timestamp: now,
			Karma:     &conversation.KarmaMarker{Type: conversation.KarmaRequest},
		}}

	case GiveKarma:
		if c.KarmaGiven() {
			return Effect{}, false
		}
		eff.Transition.KarmaGiven = true
	}

	return eff, true
}
