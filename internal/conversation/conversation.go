package conversation

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	// ErrNotFound is returned by repositories for unknown conversation ids.
	ErrNotFound = errors.New("conversation not found")
	// ErrStaleTransition is returned when a transition was computed against an older status.
	ErrStaleTransition = errors.New("stale transition")
)

// Transition is the atomic unit of change computed by the verification machine.
// Status, appended messages, meetup and karma flag are written together or not at all.
type Transition struct {
	From       Status
	To         Status
	Messages   []Message
	Meetup     *Meetup
	KarmaGiven bool
}

// Conversation holds the ordered message log and verification status of one item-claim thread.
type Conversation struct {
	ID        string
	Owner     Participant
	Finder    Participant
	Item      Item
	CreatedAt time.Time

	status     Status
	messages   []Message
	nextSeq    int64
	meetup     *Meetup
	karmaGiven bool
	updatedAt  time.Time
}

// New creates an empty conversation in StatusNone.
func New(id string, owner, finder Participant, item Item, now time.Time) *Conversation {
	owner.Role = RoleOwner
	finder.Role = RoleFinder
	return &Conversation{
		ID:        id,
		Owner:     owner,
		Finder:    finder,
		Item:      item,
		CreatedAt: now,
		status:    StatusNone,
		nextSeq:   1,
		updatedAt: now,
	}
}

// Restore rebuilds a conversation from a persisted snapshot.
func Restore(s Snapshot) (*Conversation, error) {
	if !s.Status.Valid() {
		return nil, fmt.Errorf("restore %s: unknown status %q", s.ID, s.Status)
	}
	var last int64
	for _, m := range s.Messages {
		if m.Seq <= last {
			return nil, fmt.Errorf("restore %s: message seq %d not increasing", s.ID, m.Seq)
		}
		last = m.Seq
	}
	c := &Conversation{
		ID:         s.ID,
		Owner:      s.Owner,
		Finder:     s.Finder,
		Item:       s.Item,
		CreatedAt:  s.CreatedAt,
		status:     s.Status,
		messages:   slices.Clone(s.Messages),
		nextSeq:    last + 1,
		karmaGiven: s.KarmaGiven,
		updatedAt:  s.UpdatedAt,
	}
	if s.Meetup != nil {
		m := *s.Meetup
		c.meetup = &m
	}
	return c, nil
}

// Status returns the current verification status.
func (c *Conversation) Status() Status { return c.status }

// KarmaGiven reports whether karma was already given.
func (c *Conversation) KarmaGiven() bool { return c.karmaGiven }

// Meetup returns the extracted meetup, or nil before one was arranged.
func (c *Conversation) Meetup() *Meetup {
	if c.meetup == nil {
		return nil
	}
	m := *c.meetup
	return &m
}

// UpdatedAt returns the time of the last mutation.
func (c *Conversation) UpdatedAt() time.Time { return c.updatedAt }

// Len returns the number of messages.
func (c *Conversation) Len() int { return len(c.messages) }

// Messages returns a copy of the log in insertion order.
func (c *Conversation) Messages() []Message {
	return slices.Clone(c.messages)
}

// Last returns the most recent message.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Append assigns the next sequence id to msg and adds it to the end of the log.
func (c *Conversation) Append(msg Message) Message {
	msg.Seq = c.nextSeq
	c.nextSeq++
	c.messages = append(c.messages, msg)
	if msg.Timestamp.After(c.updatedAt) {
		c.updatedAt = msg.Timestamp
	}
	return msg
}

// Apply writes a transition atomically. It is the only way status changes.
func (c *Conversation) Apply(t Transition) ([]Message, error) {
	if t.From != c.status {
		return nil, fmt.Errorf("%w: computed from %s, conversation is %s", ErrStaleTransition, t.From, c.status)
	}
	if !t.To.Valid() {
		return nil, fmt.Errorf("apply: unknown status %q", t.To)
	}
	appended := make([]Message, 0, len(t.Messages))
	for _, m := range t.Messages {
		appended = append(appended, c.Append(m))
	}
	c.status = t.To
	if t.Meetup != nil {
		m := *t.Meetup
		c.meetup = &m
	}
	if t.KarmaGiven {
		c.karmaGiven = true
	}
	return appended, nil
}

// ExtractMeetupDetails scans the whole log for meetup hints.
func (c *Conversation) ExtractMeetupDetails() (Meetup, bool) {
	m := ExtractMeetup(c.messages)
	return m, !m.Empty()
}

// Clone returns an independent copy.
func (c *Conversation) Clone() *Conversation {
	cp := *c
	cp.messages = slices.Clip(slices.Clone(c.messages))
	if c.meetup != nil {
		m := *c.meetup
		cp.meetup = &m
	}
	return &cp
}

// Snapshot returns a read-only copy of the conversation.
func (c *Conversation) Snapshot() Snapshot {
	return Snapshot{
		ID:         c.ID,
		Owner:      c.Owner,
		Finder:     c.Finder,
		Item:       c.Item,
		Status:     c.status,
		Messages:   c.Messages(),
		Meetup:     c.Meetup(),
		KarmaGiven: c.karmaGiven,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.updatedAt,
	}
}

// Summary returns the list row for the conversation.
func (c *Conversation) Summary() Summary {
	s := Summary{
		ID:        c.ID,
		Item:      c.Item,
		Owner:     c.Owner.Name,
		Finder:    c.Finder.Name,
		Status:    c.status,
		UpdatedAt: c.updatedAt,
	}
	if last, ok := c.Last(); ok {
		s.LastMessage = last.Text
	}
	return s
}

// LatestSubmission returns the most recent owner verification response.
func (c *Conversation) LatestSubmission() (Message, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		m := c.messages[i]
		if m.Verification != nil && m.Verification.Kind == VerificationResponse {
			return m, true
		}
	}
	return Message{}, false
}
