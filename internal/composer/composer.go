// Package composer turns user intent into messages and verification events.
package composer

import (
	"errors"
	"strings"
	"time"

	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/status"
)

// ErrValidation is matched by every validation failure.
var ErrValidation = errors.New("validation failed")

// ValidationError is a local rejection of user input. Prompt is meant for inline display.
type ValidationError struct {
	Field  string
	Prompt string
}

func (e *ValidationError) Error() string { return e.Prompt }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Submission is the owner's ownership evidence.
type Submission struct {
	Method  conversation.Method
	Details string
	Image   string
}

// Validate checks the field required by the method.
func (s Submission) Validate() error {
	switch s.Method {
	case conversation.MethodPhoto:
		if strings.TrimSpace(s.Image) == "" {
			return &ValidationError{Field: "image", Prompt: "Please upload a photo of your item"}
		}
	case conversation.MethodDetails:
		if strings.TrimSpace(s.Details) == "" {
			return &ValidationError{Field: "details", Prompt: "Please provide unique details about your item"}
		}
	default:
		return &ValidationError{Field: "method", Prompt: "Please choose photo or details"}
	}
	return nil
}

// Target selects how an attachment is routed.
type Target string

const (
	TargetMessage      Target = "message"
	TargetVerification Target = "verification"
)

// Composer builds outbound messages. Sequence ids are assigned later by the conversation.
type Composer struct {
	now func() time.Time
}

// New creates a composer stamping messages with now.
func New(now func() time.Time) *Composer {
	if now == nil {
		now = time.Now
	}
	return &Composer{now: now}
}

// ComposePlainMessage builds a chat message. Text may be empty only with an attachment.
func (c *Composer) ComposePlainMessage(sender conversation.Sender, text string, att *conversation.Attachment) (conversation.Message, error) {
	if sender != conversation.SenderOwner && sender != conversation.SenderFinder {
		return conversation.Message{}, &ValidationError{Field: "sender", Prompt: "Unknown sender"}
	}
	if att != nil && strings.TrimSpace(att.URI) == "" {
		return conversation.Message{}, &ValidationError{Field: "attachment", Prompt: "Attachment is missing an image"}
	}
	text = strings.TrimSpace(text)
	if text == "" && att == nil {
		return conversation.Message{}, &ValidationError{Field: "text", Prompt: "Message cannot be empty"}
	}
	msg := conversation.Message{
		Sender:    sender,
		Text:      text,
		Timestamp: c.now(),
	}
	if att != nil {
		a := *att
		if a.Kind == "" {
			a.Kind = conversation.AttachmentImage
		}
		msg.Attachment = &a
		if msg.Text == "" {
			msg.Text = "📷 Photo"
		}
	}
	return msg, nil
}

// ComposeVerificationSubmission validates s and returns the owner's submission with the
// event that carries it into the machine.
func (c *Composer) ComposeVerificationSubmission(s Submission) (conversation.Message, status.Event, error) {
	if err := s.Validate(); err != nil {
		return conversation.Message{}, status.Event{}, err
	}
	v := &conversation.Verification{
		Kind:   conversation.VerificationResponse,
		Method: s.Method,
		Status: conversation.VerificationPending,
	}
	text := "📷 Photo verification submitted"
	switch s.Method {
	case conversation.MethodDetails:
		v.Details = strings.TrimSpace(s.Details)
		text = "Here's the verification: " + v.Details
	case conversation.MethodPhoto:
		v.Image = strings.TrimSpace(s.Image)
		if d := strings.TrimSpace(s.Details); d != "" {
			v.Details = d
			text = "📷 Here's a photo of it: " + d
		}
	}
	msg := conversation.Message{
		Sender:       conversation.SenderOwner,
		Text:         text,
		Timestamp:    c.now(),
		Verification: v,
	}
	ev := status.Event{Kind: status.SubmitVerification, Actor: conversation.SenderOwner, Message: &msg}
	return msg, ev, nil
}

// ComposeAttachment builds a message around an image. For TargetVerification it returns a
// photo submission and its event instead of a plain message.
func (c *Composer) ComposeAttachment(sender conversation.Sender, uri string, target Target) (conversation.Message, *status.Event, error) {
	switch target {
	case TargetVerification:
		if sender != conversation.SenderOwner {
			return conversation.Message{}, nil, &ValidationError{Field: "sender", Prompt: "Only the owner can submit verification"}
		}
		msg, ev, err := c.ComposeVerificationSubmission(Submission{Method: conversation.MethodPhoto, Image: uri})
		if err != nil {
			return conversation.Message{}, nil, err
		}
		return msg, &ev, nil
	case TargetMessage, "":
		msg, err := c.ComposePlainMessage(sender, "", &conversation.Attachment{Kind: conversation.AttachmentImage, URI: uri})
		return msg, nil, err
	default:
		return conversation.Message{}, nil, &ValidationError{Field: "kind", Prompt: "Unknown attachment kind " + string(target)}
	}
}

// ComposeMeetupProposal builds a free-text proposal and the event that arranges the meetup.
func (c *Composer) ComposeMeetupProposal(sender conversation.Sender, text string) (conversation.Message, status.Event, error) {
	msg, err := c.ComposePlainMessage(sender, text, nil)
	if err != nil {
		return conversation.Message{}, status.Event{}, err
	}
	return msg, status.Event{Kind: status.ProposeMeetup, Actor: sender, Message: &msg}, nil
}
