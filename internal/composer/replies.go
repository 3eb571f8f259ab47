package composer

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/status"
)

const (
	acknowledgeText = "Thank you for the verification! Let me compare it with the %s I found."
	followUpText    = "I appreciate your detailed verification. This definitely matches what I found. When would you like to meet to pick it up?"
	defaultReply    = "I'll take good care of your item until we can meet up."
	defaultDetails  = "The item has unique identifying characteristics that only the owner would know."
)

// Base delays before scaling.
var baseDelays = map[status.Reply]time.Duration{
	status.ReplyAcknowledge:    1500 * time.Millisecond,
	status.ReplyMeetupFollowUp: 1000 * time.Millisecond,
	status.ReplyChat:           1000 * time.Millisecond,
}

// Keys are lowercased item names.
var chatReplies = map[string]string{
	"water bottle": "That sounds perfect! I'll be there at 3:30 with your water bottle. I'll be looking for you!",
	"uc davis id":  "1 PM at the MU works great. I'll bring your ID. I'll be near the information desk.",
	"backpack":     "Would you like to meet at the library around 3 PM today to get your backpack?",
	"pencil":       "Yes, I can definitely drop it off at the Chemistry department office tomorrow. It should be at the lost and found there after 10 AM.",
	"airpods":      "You're welcome! Our office is open from 8 AM to 5 PM Monday through Friday. Let us know if you have any questions.",
	"iphone":       "That matches what I can see! I'd be happy to return your phone. Would you like to meet somewhere on campus tomorrow?",
}

var suggestedDetails = map[string]string{
	"water bottle": "It's a Hydroflask brand, navy blue with a white UC Davis sticker on the side. It also has my initials 'AL' written in black marker on the bottom.",
	"uc davis id":  "The name is Adrian Lam, student ID #934782, and I'm wearing a blue shirt in the photo. There's also a bike permit sticker on the back.",
	"backpack":     "Inside there's a math textbook (Calculus III), two blue notebooks, and a gray metal water bottle. There's also a keychain with a small bear on the zipper.",
	"pencil":       "It's a Pentel brand with a blue grip. It has 0.5mm lead and my initials (AL) are etched near the clip.",
	"airpods":      "The case has a holographic space sticker on the front. The left AirPod has a small scratch near the stem, and they're paired to my phone under the name 'Adrian's AirPods'.",
	"iphone":       "The phone has my dog Max (a golden retriever) on the lock screen and my initials 'AL' are engraved on the back near the camera.",
}

// ScheduledReply is a counterparty message to append after Delay.
type ScheduledReply struct {
	Trigger status.Reply
	Message conversation.Message
	Delay   time.Duration
}

// Replies produces the canned finder responses used to simulate a counterparty.
type Replies struct {
	scale time.Duration
	now   func() time.Time
}

// NewReplies creates a reply catalog. scale stretches the base delays; one second keeps
// them as is and zero fires replies immediately.
func NewReplies(scale time.Duration, now func() time.Time) *Replies {
	if now == nil {
		now = time.Now
	}
	if scale < 0 {
		scale = 0
	}
	return &Replies{scale: scale, now: now}
}

// Delay returns the scaled delay for a trigger.
func (r *Replies) Delay(trigger status.Reply) time.Duration {
	base, ok := baseDelays[trigger]
	if !ok {
		base = time.Second
	}
	return time.Duration(int64(base) * int64(r.scale) / int64(time.Second))
}

// SimulateCounterpartyReply looks up the canned finder reply for trigger and item.
// The message timestamp is left zero; it is stamped when the reply fires.
func (r *Replies) SimulateCounterpartyReply(trigger status.Reply, item conversation.Item) ScheduledReply {
	var text string
	switch trigger {
	case status.ReplyAcknowledge:
		text = fmt.Sprintf(acknowledgeText, strings.ToLower(item.Name))
	case status.ReplyMeetupFollowUp:
		text = followUpText
	default:
		text = ChatReply(item)
	}
	return ScheduledReply{
		Trigger: trigger,
		Message: conversation.Message{Sender: conversation.SenderFinder, Text: text},
		Delay:   r.Delay(trigger),
	}
}

// Stamp sets the timestamp of a fired reply.
func (r *Replies) Stamp(m conversation.Message) conversation.Message {
	m.Timestamp = r.now()
	return m
}

// ChatReply returns the item's canned reply to a plain message.
func ChatReply(item conversation.Item) string {
	if text, ok := chatReplies[strings.ToLower(item.Name)]; ok {
		return text
	}
	return defaultReply
}

// SuggestedDetails returns demo verification details for an item.
func SuggestedDetails(item conversation.Item) string {
	if d, ok := suggestedDetails[strings.ToLower(item.Name)]; ok {
		return d
	}
	return defaultDetails
}
