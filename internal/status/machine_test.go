package status

import (
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/lnf/internal/conversation"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newMachine() *Machine {
	return NewMachine(func() time.Time { return t0 })
}

func newConversation() *conversation.Conversation {
	return conversation.New("c1",
		conversation.Participant{UserID: "user-9", Name: "Adrian"},
		conversation.Participant{UserID: "user-3", Name: "Andrew"},
		conversation.Item{Name: "Water Bottle", Location: "Davis, CA"},
		t0)
}

func submission(details string) *conversation.Message {
	return &conversation.Message{
		Sender:    conversation.SenderOwner,
		Text:      details,
		Timestamp: t0,
		Verification: &conversation.Verification{
			Kind:    conversation.VerificationResponse,
			Method:  conversation.MethodDetails,
			Details: details,
			Status:  conversation.VerificationPending,
		},
	}
}

// apply runs ev through the machine and writes the transition, failing on inert events.
func apply(t *testing.T, m *Machine, c *conversation.Conversation, ev Event) Effect {
	t.Helper()
	eff, ok := m.Apply(c, ev)
	if !ok {
		t.Fatalf("%s inert in %s", ev.Kind, c.Status())
	}
	if _, err := c.Apply(eff.Transition); err != nil {
		t.Fatal(err)
	}
	return eff
}

func TestRequestEmitsPendingRequest(t *testing.T) {
	m := newMachine()
	c := newConversation()

	eff := apply(t, m, c, Event{Kind: RequestVerification, Actor: conversation.SenderFinder})
	if !eff.Changed() {
		t.Error("request from none should change status")
	}
	msgs := c.Messages()
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	v := msgs[0].Verification
	if msgs[0].Sender != conversation.SenderFinder || v == nil || v.Kind != conversation.VerificationRequest || v.Status != conversation.VerificationPending {
		t.Errorf("request message = %+v", msgs[0])
	}
}

func TestSubmitNormalizesPayload(t *testing.T) {
	m := newMachine()
	c := newConversation()
	apply(t, m, c, Event{Kind: RequestVerification})

	msg := submission("Navy Hydroflask with UCD sticker")
	msg.Verification.Reviewed = true
	eff := apply(t, m, c, Event{Kind: SubmitVerification, Actor: conversation.SenderOwner, Message: msg})

	if len(eff.Replies) != 1 || eff.Replies[0] != ReplyAcknowledge {
		t.Errorf("replies = %v, want [acknowledge]", eff.Replies)
	}
	last, _ := c.Last()
	if last.Verification.Status != conversation.VerificationSubmitted || last.Verification.Reviewed {
		t.Errorf("submission verification = %+v", last.Verification)
	}
	if msg.Verification.Status != conversation.VerificationPending {
		t.Error("machine mutated the caller's message")
	}
}

func TestSubmitWithoutPayloadIsInert(t *testing.T) {
	m := newMachine()
	c := newConversation()
	apply(t, m, c, Event{Kind: RequestVerification})

	if _, ok := m.Apply(c, Event{Kind: SubmitVerification, Message: &conversation.Message{Text: "hi"}}); ok {
		t.Error("submission without verification payload accepted")
	}
}

func TestDecisionsReferenceLatestSubmission(t *testing.T) {
	m := newMachine()
	c := newConversation()
	apply(t, m, c, Event{Kind: RequestVerification})
	apply(t, m, c, Event{Kind: SubmitVerification, Message: submission("blue")})
	apply(t, m, c, Event{Kind: RejectVerification})

	if c.Status() != conversation.StatusAwaitingVerification {
		t.Fatalf("status = %s", c.Status())
	}
	apply(t, m, c, Event{Kind: SubmitVerification, Message: submission("navy with sticker")})
	sub, _ := c.LatestSubmission()
	eff := apply(t, m, c, Event{Kind: ApproveVerification})

	if len(eff.Replies) != 1 || eff.Replies[0] != ReplyMeetupFollowUp {
		t.Errorf("replies = %v", eff.Replies)
	}
	last, _ := c.Last()
	if last.Sender != conversation.SenderSystem || !strings.Contains(last.Text, "approved") {
		t.Errorf("decision message = %+v", last)
	}
	if last.Verification.Ref != sub.Seq || last.Verification.Status != conversation.VerificationApproved || !last.Verification.Reviewed {
		t.Errorf("decision payload = %+v, want ref %d", last.Verification, sub.Seq)
	}
}

func TestProposeMeetupExtractsDetails(t *testing.T) {
	m := newMachine()
	c := newConversation()
	apply(t, m, c, Event{Kind: RequestVerification})
	apply(t, m, c, Event{Kind: SubmitVerification, Message: submission("navy")})
	apply(t, m, c, Event{Kind: ApproveVerification})

	eff := apply(t, m, c, Event{Kind: ProposeMeetup, Message: &conversation.Message{
		Sender: conversation.SenderOwner,
		Text:   "Let's meet at the library at 3:30 PM tomorrow",
	}})
	if len(eff.Transition.Messages) != 1 {
		t.Errorf("emitted %d messages, want only the proposal", len(eff.Transition.Messages))
	}
	got := c.Meetup()
	if got == nil || got.Location != "library" || got.Time != "3:30 PM" || got.Date != "tomorrow" {
		t.Errorf("meetup = %+v", got)
	}
}

func TestProposeMeetupKeepsEarlierMatches(t *testing.T) {
	m := newMachine()
	c := newConversation()
	apply(t, m, c, Event{Kind: RequestVerification})
	apply(t, m, c, Event{Kind: SubmitVerification, Message: submission("navy, I'm wearing a blue shirt in the photo")})
	apply(t, m, c, Event{Kind: ApproveVerification})

	// The whole log is scanned, so the location comes from the submission.
	apply(t, m, c, Event{Kind: ProposeMeetup, Message: &conversation.Message{
		Sender: conversation.SenderOwner,
		Text:   "See you at 4pm",
	}})
	got := c.Meetup()
	if got == nil || got.Location != "photo" || got.Time != "4 PM" {
		t.Fatalf("meetup = %+v", got)
	}

	c = newConversation()
	apply(t, m, c, Event{Kind: RequestVerification})
	apply(t, m, c, Event{Kind: SubmitVerification, Message: submission("navy, I'm wearing a blue shirt in the photo")})
	apply(t, m, c, Event{Kind: ApproveVerification})
	apply(t, m, c, Event{Kind: ProposeMeetup, Message: &conversation.Message{
		Sender: conversation.SenderOwner,
		Text:   "See you near the bookstore at 4pm",
	}})
	if got := c.Meetup(); got == nil || got.Location != "bookstore" {
		t.Errorf("later location should win, meetup = %+v", got)
	}
}

func TestReturnOffersKarmaOnce(t *testing.T) {
	m := newMachine()
	c := newConversation()
	apply(t, m, c, Event{Kind: RequestVerification})
	apply(t, m, c, Event{Kind: SubmitVerification, Message: submission("navy")})
	apply(t, m, c, Event{Kind: ApproveVerification})
	apply(t, m, c, Event{Kind: ProposeMeetup, Message: &conversation.Message{Text: "ok"}})
	apply(t, m, c, Event{Kind: MarkReturned})

	last, _ := c.Last()
	if last.Karma == nil || last.Karma.Type != conversation.KarmaRequest {
		t.Errorf("karma marker missing: %+v", last)
	}
	if !strings.Contains(last.Text, "Water Bottle") {
		t.Errorf("karma text = %q", last.Text)
	}

	eff := apply(t, m, c, Event{Kind: GiveKarma})
	if eff.Changed() || !c.KarmaGiven() {
		t.Errorf("give karma: changed=%v given=%v", eff.Changed(), c.KarmaGiven())
	}
	n := c.Len()
	if _, ok := m.Apply(c, Event{Kind: GiveKarma}); ok {
		t.Error("second give karma accepted")
	}
	if c.Len() != n {
		t.Error("second give karma appended messages")
	}
}

func TestInertEventLeavesConversationUntouched(t *testing.T) {
	m := newMachine()
	c := newConversation()
	before := c.Snapshot()

	for _, kind := range []EventKind{ApproveVerification, RejectVerification, ProposeMeetup, MarkReturned, GiveKarma} {
		if _, ok := m.Apply(c, Event{Kind: kind, Message: &conversation.Message{Text: "x"}}); ok {
			t.Errorf("%s accepted in none", kind)
		}
	}
	after := c.Snapshot()
	if after.Status != before.Status || len(after.Messages) != len(before.Messages) {
		t.Errorf("conversation changed: %+v", after)
	}
}
