package status

import (
	"strings"

	"github.com/matheus3301/lnf/internal/conversation"
)

// Tone is the visual emphasis of a banner.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneWarning Tone = "warning"
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
)

// Banner is what the UI shows above the transcript for a status.
type Banner struct {
	Title       string
	Description string
	Tone        Tone
	Progress    int
}

var banners = map[conversation.Status]Banner{
	conversation.StatusNone: {
		Title:       "Ownership Not Verified",
		Description: "Ask the claimant to verify ownership before returning the item.",
		Tone:        ToneNeutral,
	},
	conversation.StatusVerificationRequested: {
		Title:       "Verification Needed",
		Description: "Share a photo of the item from before it was lost, or details only the owner would know.",
		Tone:        ToneWarning,
		Progress:    20,
	},
	conversation.StatusAwaitingVerification: {
		Title:       "Awaiting Verification",
		Description: "The last verification was rejected. Submit more convincing evidence.",
		Tone:        ToneWarning,
		Progress:    30,
	},
	conversation.StatusVerificationInProgress: {
		Title:       "Verifying...",
		Description: "Verification was submitted for this item and is waiting for review.",
		Tone:        ToneInfo,
		Progress:    50,
	},
	conversation.StatusVerificationApproved: {
		Title:       "Verified!",
		Description: "Ownership verified. Arrange a time and place to return the item.",
		Tone:        ToneSuccess,
		Progress:    75,
	},
	conversation.StatusMeetupArranged: {
		Title:       "Meetup Arranged",
		Description: "Meet to hand the item back.",
		Tone:        ToneSuccess,
		Progress:    90,
	},
	conversation.StatusItemReturned: {
		Title:       "Item Returned",
		Description: "Thank the finder by giving karma.",
		Tone:        ToneSuccess,
		Progress:    100,
	},
}

// BannerFor returns the banner for a conversation snapshot.
func BannerFor(s conversation.Snapshot) Banner {
	b, ok := banners[s.Status]
	if !ok {
		return Banner{Title: string(s.Status), Tone: ToneNeutral}
	}
	switch {
	case s.Status == conversation.StatusMeetupArranged && s.Meetup != nil:
		b.Description = describeMeetup(*s.Meetup)
	case s.Status == conversation.StatusItemReturned && s.KarmaGiven:
		b.Description = "Karma given. Thanks for closing the loop!"
	}
	return b
}

func describeMeetup(m conversation.Meetup) string {
	var parts []string
	if m.Location != "" {
		parts = append(parts, "at the "+m.Location)
	}
	if m.Time != "" {
		parts = append(parts, "at "+m.Time)
	}
	if m.Date != "" {
		parts = append(parts, m.Date)
	}
	if len(parts) == 0 {
		return "Meet to hand the item back."
	}
	return "Meet " + strings.Join(parts, " ") + " to hand the item back."
}
