package conversation

import (
	"context"
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestConversation() *Conversation {
	return New("c1",
		Participant{UserID: "user-9", Name: "Adrian"},
		Participant{UserID: "user-3", Name: "Andrew"},
		Item{Name: "Water Bottle", Location: "Davis, CA"},
		t0)
}

func TestNewStartsAtNone(t *testing.T) {
	c := newTestConversation()
	if c.Status() != StatusNone {
		t.Errorf("status = %s, want none", c.Status())
	}
	if c.Owner.Role != RoleOwner || c.Finder.Role != RoleFinder {
		t.Errorf("roles = %s/%s, want owner/finder", c.Owner.Role, c.Finder.Role)
	}
	if c.Len() != 0 {
		t.Errorf("len = %d, want 0", c.Len())
	}
}

func TestAppendAssignsIncreasingSeq(t *testing.T) {
	c := newTestConversation()
	for i := range 5 {
		m := c.Append(Message{Sender: SenderOwner, Text: "hi", Timestamp: t0.Add(time.Duration(i) * time.Minute)})
		if m.Seq != int64(i+1) {
			t.Fatalf("append %d: seq = %d, want %d", i, m.Seq, i+1)
		}
	}

	msgs := c.Messages()
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Seq <= msgs[i-1].Seq {
			t.Errorf("seq %d not after %d", msgs[i].Seq, msgs[i-1].Seq)
		}
	}
	if !c.UpdatedAt().Equal(t0.Add(4 * time.Minute)) {
		t.Errorf("updatedAt = %v", c.UpdatedAt())
	}
}

func TestMessagesIsSnapshot(t *testing.T) {
	c := newTestConversation()
	c.Append(Message{Sender: SenderOwner, Text: "one"})

	msgs := c.Messages()
	msgs[0].Text = "mutated"
	c.Append(Message{Sender: SenderOwner, Text: "two"})

	again := c.Messages()
	if again[0].Text != "one" {
		t.Errorf("stored message changed through snapshot: %q", again[0].Text)
	}
	if len(msgs) != 1 || len(again) != 2 {
		t.Errorf("lens = %d/%d, want 1/2", len(msgs), len(again))
	}
}

func TestApplyWritesStatusAndMessagesTogether(t *testing.T) {
	c := newTestConversation()
	appended, err := c.Apply(Transition{
		From: StatusNone,
		To:   StatusVerificationRequested,
		Messages: []Message{{
			Sender:       SenderFinder,
			Text:         "please verify",
			Verification: &Verification{Kind: VerificationRequest, Status: VerificationPending},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.Status() != StatusVerificationRequested {
		t.Errorf("status = %s", c.Status())
	}
	if len(appended) != 1 || appended[0].Seq != 1 {
		t.Errorf("appended = %+v", appended)
	}
}

func TestApplyRejectsStaleTransition(t *testing.T) {
	c := newTestConversation()
	_, err := c.Apply(Transition{From: StatusVerificationApproved, To: StatusMeetupArranged, Messages: []Message{{Text: "x"}}})
	if !errors.Is(err, ErrStaleTransition) {
		t.Fatalf("err = %v, want ErrStaleTransition", err)
	}
	if c.Status() != StatusNone || c.Len() != 0 {
		t.Errorf("stale transition mutated conversation: status=%s len=%d", c.Status(), c.Len())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c := newTestConversation()
	c.Append(Message{Text: "a"})

	cp := c.Clone()
	cp.Append(Message{Text: "b"})
	if _, err := cp.Apply(Transition{From: StatusNone, To: StatusVerificationRequested}); err != nil {
		t.Fatal(err)
	}

	if c.Len() != 1 || c.Status() != StatusNone {
		t.Errorf("original changed: len=%d status=%s", c.Len(), c.Status())
	}
	if next := c.Append(Message{Text: "c"}); next.Seq != 2 {
		t.Errorf("original seq = %d, want 2", next.Seq)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	c := newTestConversation()
	c.Append(Message{Text: "a", Timestamp: t0})
	if _, err := c.Apply(Transition{
		From:   StatusNone,
		To:     StatusVerificationRequested,
		Meetup: &Meetup{Location: "library"},
	}); err != nil {
		t.Fatal(err)
	}

	r, err := Restore(c.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if r.Status() != StatusVerificationRequested || r.Len() != 1 {
		t.Errorf("restored status=%s len=%d", r.Status(), r.Len())
	}
	if r.Meetup() == nil || r.Meetup().Location != "library" {
		t.Errorf("meetup = %+v", r.Meetup())
	}
	if next := r.Append(Message{Text: "b"}); next.Seq != 2 {
		t.Errorf("seq after restore = %d, want 2", next.Seq)
	}
}

func TestRestoreRejectsBadSnapshots(t *testing.T) {
	if _, err := Restore(Snapshot{ID: "x", Status: "bogus"}); err == nil {
		t.Error("expected error for unknown status")
	}
	if _, err := Restore(Snapshot{ID: "x", Status: StatusNone, Messages: []Message{{Seq: 2}, {Seq: 2}}}); err == nil {
		t.Error("expected error for duplicate seq")
	}
}

func TestDisplayStatusProjection(t *testing.T) {
	c := newTestConversation()
	req, _ := c.Apply(Transition{From: StatusNone, To: StatusVerificationRequested, Messages: []Message{{
		Sender: SenderFinder, Verification: &Verification{Kind: VerificationRequest, Status: VerificationPending},
	}}})
	sub, _ := c.Apply(Transition{From: StatusVerificationRequested, To: StatusVerificationInProgress, Messages: []Message{{
		Sender: SenderOwner, Verification: &Verification{Kind: VerificationResponse, Method: MethodDetails, Details: "navy", Status: VerificationSubmitted},
	}}})

	snap := c.Snapshot()
	if st, _ := snap.DisplayStatus(req[0].Seq); st != VerificationSubmitted {
		t.Errorf("request badge = %s, want submitted", st)
	}
	if st, _ := snap.DisplayStatus(sub[0].Seq); st != VerificationSubmitted {
		t.Errorf("submission badge = %s, want submitted", st)
	}

	c.Append(Message{Sender: SenderFinder, Text: "checking"})
	if st, _ := c.Snapshot().DisplayStatus(sub[0].Seq); st != VerificationReviewing {
		t.Errorf("submission badge after ack = %s, want reviewing", st)
	}

	if _, err := c.Apply(Transition{From: StatusVerificationInProgress, To: StatusAwaitingVerification, Messages: []Message{{
		Sender: SenderSystem, Verification: &Verification{Kind: VerificationDecision, Status: VerificationRejected, Reviewed: true, Ref: sub[0].Seq},
	}}}); err != nil {
		t.Fatal(err)
	}
	snap = c.Snapshot()
	if st, _ := snap.DisplayStatus(sub[0].Seq); st != VerificationRejected {
		t.Errorf("submission badge after reject = %s, want rejected", st)
	}
	if !snap.Reviewed(sub[0].Seq) {
		t.Error("submission should be reviewed")
	}
	if _, ok := snap.DisplayStatus(999); ok {
		t.Error("unknown seq should have no badge")
	}
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	a := newTestConversation()
	a.Append(Message{Text: "older", Timestamp: t0.Add(time.Minute)})
	b := New("c2", Participant{Name: "O"}, Participant{Name: "F"}, Item{Name: "Pencil"}, t0)
	b.Append(Message{Text: "newer", Timestamp: t0.Add(time.Hour)})
	for _, c := range []*Conversation{a, b} {
		if err := repo.Save(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	// Mutating after save must not leak into the repository.
	a.Append(Message{Text: "unsaved"})
	got, err := repo.Get(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 1 {
		t.Errorf("len = %d, want 1", got.Len())
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "c2" || list[0].LastMessage != "newer" {
		t.Errorf("list = %+v", list)
	}
}
