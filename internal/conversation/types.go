package conversation

import "time"

// Status is the verification lifecycle stage of a conversation.
type Status string

const (
	StatusNone                   Status = "none"
	StatusVerificationRequested  Status = "verification_requested"
	StatusAwaitingVerification   Status = "awaiting_verification"
	StatusVerificationInProgress Status = "verification_in_progress"
	StatusVerificationApproved   Status = "verification_approved"
	StatusMeetupArranged         Status = "meetup_arranged"
	StatusItemReturned           Status = "item_returned"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusNone,
	StatusVerificationRequested,
	StatusAwaitingVerification,
	StatusVerificationInProgress,
	StatusVerificationApproved,
	StatusMeetupArranged,
	StatusItemReturned,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	return s == StatusItemReturned
}

// Role is a participant's side of an item claim.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleFinder Role = "finder"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderOwner  Sender = "owner"
	SenderFinder Sender = "finder"
	SenderSystem Sender = "system"
)

// Valid reports whether s is a known sender.
func (s Sender) Valid() bool {
	return s == SenderOwner || s == SenderFinder || s == SenderSystem
}

// Counterparty returns the other human side, or "" for system.
func (s Sender) Counterparty() Sender {
	switch s {
	case SenderOwner:
		return SenderFinder
	case SenderFinder:
		return SenderOwner
	default:
		return ""
	}
}

// Participant is one side of the conversation.
type Participant struct {
	Role   Role   `json:"role"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Item describes the disputed object. Immutable once the conversation exists.
type Item struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Category string `json:"category,omitempty"`
}

// AttachmentKind is the type of a plain attachment.
type AttachmentKind string

const AttachmentImage AttachmentKind = "image"

// Attachment is a plain image with no verification semantics.
type Attachment struct {
	Kind AttachmentKind `json:"kind"`
	URI  string         `json:"uri"`
}

// VerificationKind distinguishes requests, owner responses and finder decisions.
type VerificationKind string

const (
	VerificationRequest  VerificationKind = "request"
	VerificationResponse VerificationKind = "response"
	VerificationDecision VerificationKind = "decision"
)

// Method is the evidence type of a submission.
type Method string

const (
	MethodPhoto   Method = "photo"
	MethodDetails Method = "details"
)

// VerificationStatus annotates a verification message for display.
type VerificationStatus string

const (
	VerificationPending   VerificationStatus = "pending"
	VerificationSubmitted VerificationStatus = "submitted"
	VerificationReviewing VerificationStatus = "reviewing"
	VerificationApproved  VerificationStatus = "approved"
	VerificationRejected  VerificationStatus = "rejected"
)

// Verification is the structured payload of request, submission and decision messages.
type Verification struct {
	Kind     VerificationKind   `json:"type"`
	Method   Method             `json:"method,omitempty"`
	Details  string             `json:"details,omitempty"`
	Image    string             `json:"image,omitempty"`
	Status   VerificationStatus `json:"status"`
	Reviewed bool               `json:"reviewed"`
	// Ref is the sequence id of the submission a decision refers to.
	Ref int64 `json:"ref,omitempty"`
}

// KarmaMarker flags the message offering to request karma after a return.
type KarmaMarker struct {
	Type string `json:"type"`
}

// KarmaRequest is the only KarmaMarker type.
const KarmaRequest = "request"

// Message is one immutable entry of the conversation log.
type Message struct {
	Seq          int64         `json:"id"`
	Sender       Sender        `json:"sender"`
	Text         string        `json:"text"`
	Timestamp    time.Time     `json:"timestamp"`
	Attachment   *Attachment   `json:"attachment,omitempty"`
	Verification *Verification `json:"verification,omitempty"`
	Karma        *KarmaMarker  `json:"karma,omitempty"`
}

// Meetup is the best-effort handoff plan extracted from chat text.
type Meetup struct {
	Time     string `json:"time,omitempty"`
	Location string `json:"location,omitempty"`
	Date     string `json:"date,omitempty"`
}

// Empty reports whether nothing was extracted.
func (m Meetup) Empty() bool {
	return m.Time == "" && m.Location == "" && m.Date == ""
}

// Snapshot is a read-only copy of a conversation, suitable for rendering and persistence.
type Snapshot struct {
	ID         string      `json:"id"`
	Owner      Participant `json:"owner"`
	Finder     Participant `json:"finder"`
	Item       Item        `json:"item"`
	Status     Status      `json:"status"`
	Messages   []Message   `json:"messages"`
	Meetup     *Meetup     `json:"meetup,omitempty"`
	KarmaGiven bool        `json:"karma_given"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Summary is a conversation list row.
type Summary struct {
	ID          string    `json:"id"`
	Item        Item      `json:"item"`
	Owner       string    `json:"owner"`
	Finder      string    `json:"finder"`
	Status      Status    `json:"status"`
	LastMessage string    `json:"last_message"`
	UpdatedAt   time.Time `json:"updated_at"`
}
