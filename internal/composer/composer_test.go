package composer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/status"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newComposer() *Composer {
	return New(func() time.Time { return t0 })
}

func TestComposePlainMessage(t *testing.T) {
	c := newComposer()

	msg, err := c.ComposePlainMessage(conversation.SenderOwner, "  hello  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, conversation.SenderOwner, msg.Sender)
	assert.Equal(t, t0, msg.Timestamp)
	assert.Zero(t, msg.Seq)

	_, err = c.ComposePlainMessage(conversation.SenderOwner, "   ", nil)
	require.ErrorIs(t, err, ErrValidation)

	msg, err = c.ComposePlainMessage(conversation.SenderFinder, "", &conversation.Attachment{URI: "file:///a.jpg"})
	require.NoError(t, err)
	require.NotNil(t, msg.Attachment)
	assert.Equal(t, conversation.AttachmentImage, msg.Attachment.Kind)
	assert.NotEmpty(t, msg.Text)

	_, err = c.ComposePlainMessage(conversation.SenderSystem, "hi", nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestComposeVerificationSubmissionValidation(t *testing.T) {
	tests := []struct {
		name   string
		sub    Submission
		prompt string
	}{
		{"empty details", Submission{Method: conversation.MethodDetails, Details: ""}, "Please provide unique details about your item"},
		{"blank details", Submission{Method: conversation.MethodDetails, Details: " \n"}, "Please provide unique details about your item"},
		{"photo without image", Submission{Method: conversation.MethodPhoto, Details: "navy"}, "Please upload a photo of your item"},
		{"no method", Submission{Details: "navy"}, "Please choose photo or details"},
	}
	c := newComposer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := c.ComposeVerificationSubmission(tt.sub)
			require.ErrorIs(t, err, ErrValidation)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.prompt, ve.Prompt)
		})
	}
}

func TestComposeVerificationSubmission(t *testing.T) {
	c := newComposer()

	msg, ev, err := c.ComposeVerificationSubmission(Submission{Method: conversation.MethodDetails, Details: "Navy Hydroflask with UCD sticker"})
	require.NoError(t, err)
	assert.Equal(t, status.SubmitVerification, ev.Kind)
	require.NotNil(t, ev.Message)
	assert.Equal(t, msg.Text, ev.Message.Text)
	require.NotNil(t, msg.Verification)
	assert.Equal(t, conversation.VerificationResponse, msg.Verification.Kind)
	assert.Equal(t, conversation.VerificationPending, msg.Verification.Status)
	assert.Equal(t, "Navy Hydroflask with UCD sticker", msg.Verification.Details)
	assert.Contains(t, msg.Text, "Navy Hydroflask")

	msg, _, err = c.ComposeVerificationSubmission(Submission{Method: conversation.MethodPhoto, Image: "file:///bottle.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "file:///bottle.jpg", msg.Verification.Image)
	assert.Empty(t, msg.Verification.Details)
}

func TestComposeAttachment(t *testing.T) {
	c := newComposer()

	msg, ev, err := c.ComposeAttachment(conversation.SenderOwner, "file:///a.jpg", TargetMessage)
	require.NoError(t, err)
	assert.Nil(t, ev)
	assert.Nil(t, msg.Verification)
	require.NotNil(t, msg.Attachment)

	msg, ev, err = c.ComposeAttachment(conversation.SenderOwner, "file:///a.jpg", TargetVerification)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, status.SubmitVerification, ev.Kind)
	assert.Equal(t, conversation.MethodPhoto, msg.Verification.Method)

	_, _, err = c.ComposeAttachment(conversation.SenderOwner, "", TargetVerification)
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = c.ComposeAttachment(conversation.SenderFinder, "file:///a.jpg", TargetVerification)
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = c.ComposeAttachment(conversation.SenderOwner, "file:///a.jpg", "video")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestComposeMeetupProposal(t *testing.T) {
	c := newComposer()
	msg, ev, err := c.ComposeMeetupProposal(conversation.SenderOwner, "Let's meet at the library at 3:30 PM tomorrow")
	require.NoError(t, err)
	assert.Equal(t, status.ProposeMeetup, ev.Kind)
	assert.Equal(t, msg.Text, ev.Message.Text)

	_, _, err = c.ComposeMeetupProposal(conversation.SenderOwner, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRepliesDelaysScale(t *testing.T) {
	r := NewReplies(time.Second, nil)
	assert.Equal(t, 1500*time.Millisecond, r.Delay(status.ReplyAcknowledge))
	assert.Equal(t, time.Second, r.Delay(status.ReplyMeetupFollowUp))

	fast := NewReplies(10*time.Millisecond, nil)
	assert.Equal(t, 15*time.Millisecond, fast.Delay(status.ReplyAcknowledge))

	assert.Zero(t, NewReplies(0, nil).Delay(status.ReplyChat))
}

func TestSimulateCounterpartyReply(t *testing.T) {
	r := NewReplies(time.Second, func() time.Time { return t0 })
	bottle := conversation.Item{Name: "Water Bottle"}

	ack := r.SimulateCounterpartyReply(status.ReplyAcknowledge, bottle)
	assert.Equal(t, conversation.SenderFinder, ack.Message.Sender)
	assert.Contains(t, ack.Message.Text, "water bottle")
	assert.True(t, ack.Message.Timestamp.IsZero())
	assert.Equal(t, t0, r.Stamp(ack.Message).Timestamp)

	chat := r.SimulateCounterpartyReply(status.ReplyChat, bottle)
	assert.Contains(t, chat.Message.Text, "3:30")

	other := r.SimulateCounterpartyReply(status.ReplyChat, conversation.Item{Name: "Umbrella"})
	assert.Equal(t, defaultReply, other.Message.Text)
}

func TestSuggestedDetails(t *testing.T) {
	assert.Contains(t, SuggestedDetails(conversation.Item{Name: "iPhone"}), "golden retriever")
	assert.Equal(t, defaultDetails, SuggestedDetails(conversation.Item{Name: "Umbrella"}))
}
