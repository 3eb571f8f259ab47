package claim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/profile"
)

// DemoOwner is the local user who lost every demo item.
var DemoOwner = conversation.Participant{UserID: "user-0", Name: "Adrian Lam"}

// DemoUsers are the finders of the demo conversations.
var DemoUsers = []profile.User{
	{ID: "user-0", Email: "adrian.lam@example.com", FirstName: "Adrian", LastName: "Lam", Pronouns: "he/him"},
	{ID: "user-1", Email: "john.doe@example.com", FirstName: "John", LastName: "Doe", Pronouns: "he/him", Phone: "(555) 123-4567", Karma: 7},
	{ID: "user-2", Email: "jane.doe@example.com", FirstName: "Jane", LastName: "Doe", Pronouns: "she/her", Phone: "(555) 987-6543", Karma: 12},
	{ID: "user-3", Email: "andrew.lam@example.com", FirstName: "Andrew", LastName: "Lam", Pronouns: "he/him", Phone: "(555) 222-3333", Karma: 5},
	{ID: "user-4", Email: "justin.so@example.com", FirstName: "Justin", LastName: "So", Pronouns: "he/him", Phone: "(555) 444-5555", Karma: 3},
	{ID: "user-5", Email: "police@example.com", FirstName: "Davis", LastName: "Police Department", Pronouns: "they/them", Karma: 25},
	{ID: "user-6", Email: "emily.johnson@example.com", FirstName: "Emily", LastName: "Johnson", Pronouns: "she/her"},
}

type seedMessage struct {
	sender conversation.Sender
	text   string
	kind   conversation.VerificationKind
	status conversation.VerificationStatus
}

type seedConversation struct {
	id       string
	finderID string
	item     conversation.Item
	status   conversation.Status
	messages []seedMessage
}

const (
	owner  = conversation.SenderOwner
	finder = conversation.SenderFinder
	system = conversation.SenderSystem
)

var demoConversations = []seedConversation{
	{
		id:       "iphone",
		finderID: "user-6",
		item:     conversation.Item{Name: "iPhone", Location: "Davis, CA", Category: "electronics"},
		status:   conversation.StatusVerificationRequested,
		messages: []seedMessage{
			{sender: finder, text: "Hi! I think I found your purple iPhone near the student center yesterday."},
			{sender: finder, text: "It has a cracked screen protector but the phone seems to be in good condition."},
			{sender: owner, text: "Oh thank goodness! Yes, I lost my purple iPhone yesterday at the student center. I've been looking everywhere for it!"},
			{sender: finder, text: "Great! Before I return it, I need to verify you're the rightful owner. Can you please send me a photo of the phone from before you lost it or provide some unique details about it that only the owner would know?",
				kind: conversation.VerificationRequest, status: conversation.VerificationPending},
		},
	},
	{
		id:       "airpods",
		finderID: "user-5",
		item:     conversation.Item{Name: "AirPods", Location: "TLC", Category: "electronics"},
		status:   conversation.StatusVerificationApproved,
		messages: []seedMessage{
			{sender: owner, text: "Hello, I saw your notice about AirPods found at the TLC. I lost mine there yesterday during a study session."},
			{sender: finder, text: "Hello, we have received AirPods that were found at the TLC. They have a distinctive sticker on the case. To verify ownership, could you describe the sticker and any other identifying features?",
				kind: conversation.VerificationRequest, status: conversation.VerificationPending},
			{sender: owner, text: "The case has a holographic space sticker on the front. The left AirPod has a small scratch near the stem, and they're paired to my phone under the name 'Adrian's AirPods'.",
				kind: conversation.VerificationResponse, status: conversation.VerificationSubmitted},
			{sender: system, text: "✅ Ownership verification approved. You can now arrange to return the item.",
				kind: conversation.VerificationDecision, status: conversation.VerificationApproved},
			{sender: finder, text: "Thank you for the details. That matches what we have. You can come to the Davis Police Department at 2600 5th Street to claim them. Please bring your ID."},
		},
	},
	{
		id:       "water-bottle",
		finderID: "user-1",
		item:     conversation.Item{Name: "Water Bottle", Location: "Shields Library", Category: "bottle"},
		status:   conversation.StatusMeetupArranged,
		messages: []seedMessage{
			{sender: owner, text: "Hi John, I saw your post about a found blue water bottle. I believe it's mine - I lost one near the library yesterday."},
			{sender: finder, text: "Hi there! Yes, I found a blue metal water bottle near the library. Could you describe any unique features so I can verify it's yours?",
				kind: conversation.VerificationRequest, status: conversation.VerificationPending},
			{sender: owner, text: "Of course! It's a Hydroflask brand, navy blue with a white UC Davis sticker on the side. It also has my initials 'AL' written in black marker on the bottom.",
				kind: conversation.VerificationResponse, status: conversation.VerificationSubmitted},
			{sender: system, text: "✅ Ownership verification approved. You can now arrange to return the item.",
				kind: conversation.VerificationDecision, status: conversation.VerificationApproved},
			{sender: finder, text: "That's exactly what I found! When would be a good time to meet up so I can return it to you?"},
			{sender: owner, text: "Perfect! I'm available today after 3 PM at the library entrance if that works for you."},
			{sender: finder, text: "I'll be there at 3:30 PM. I'll be wearing a red jacket and I'll have your water bottle with me."},
		},
	},
	{
		id:       "uc-davis-id",
		finderID: "user-2",
		item:     conversation.Item{Name: "UC Davis ID", Location: "Memorial Union", Category: "id"},
		status:   conversation.StatusMeetupArranged,
		messages: []seedMessage{
			{sender: owner, text: "Hi Jane, I saw you found a UC Davis ID near the Memorial Union. I think it might be mine - I lost mine yesterday."},
			{sender: finder, text: "Hello! Yes, I found a UC Davis ID yesterday. To verify it's yours, could you tell me the name and student ID number on the card?",
				kind: conversation.VerificationRequest, status: conversation.VerificationPending},
			{sender: owner, text: "Sure! The name is Adrian Lam, student ID #934782, and I'm wearing a blue shirt in the photo. There's also a bike permit sticker on the back.",
				kind: conversation.VerificationResponse, status: conversation.VerificationSubmitted},
			{sender: system, text: "✅ Ownership verification approved. You can now arrange to return the item.",
				kind: conversation.VerificationDecision, status: conversation.VerificationApproved},
			{sender: finder, text: "Great! That matches exactly. When would be a good time to meet so I can return it?"},
			{sender: owner, text: "I'm free tomorrow around 1 PM at the Memorial Union. Would that work for you?"},
		},
	},
	{
		id:       "backpack",
		finderID: "user-3",
		item:     conversation.Item{Name: "Backpack", Location: "Shields Library", Category: "bag"},
		status:   conversation.StatusVerificationInProgress,
		messages: []seedMessage{
			{sender: owner, text: "Hi Andrew, I saw your post about a found black backpack with red trim. I lost mine at the library yesterday. Could this be mine?"},
			{sender: finder, text: "Hi there! I did find a black backpack with red trim at the library. Could you tell me what's inside or any unique features to verify it's yours?",
				kind: conversation.VerificationRequest, status: conversation.VerificationPending},
			{sender: owner, text: "Inside there's a math textbook (Calculus III), two blue notebooks, and a gray metal water bottle. There's also a keychain with a small bear on the zipper.",
				kind: conversation.VerificationResponse, status: conversation.VerificationSubmitted},
		},
	},
	{
		id:       "pencil",
		finderID: "user-4",
		item:     conversation.Item{Name: "Pencil", Location: "Wellman Hall", Category: "stationery"},
		status:   conversation.StatusNone,
		messages: []seedMessage{
			{sender: owner, text: "Hello Justin, I believe you found my mechanical pencil in Wellman Hall. I lost it during the chemistry lecture yesterday."},
			{sender: finder, text: "Hi! Yes, I did find a mechanical pencil after the chemistry lecture. Could you describe it so I can verify it's yours?"},
		},
	},
}

// Seed creates the demo users and, when no conversation exists yet, the demo
// conversations. It returns the number of conversations created.
func (m *Manager) Seed(ctx context.Context) (int, error) {
	if m.users != nil {
		for _, u := range DemoUsers {
			if err := m.users.EnsureUser(ctx, u); err != nil {
				return 0, fmt.Errorf("seed user %s: %w", u.ID, err)
			}
		}
	}

	existing, err := m.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	base := m.now().Add(-3 * time.Hour).Truncate(time.Minute)
	for i, sc := range demoConversations {
		c, err := sc.build(base.Add(time.Duration(i) * 10 * time.Minute))
		if err != nil {
			return i, err
		}
		if err := m.repo.Save(ctx, c); err != nil {
			return i, fmt.Errorf("seed conversation %s: %w", sc.id, err)
		}
	}
	m.logger.Info("demo data seeded", zap.Int("conversations", len(demoConversations)))
	return len(demoConversations), nil
}

func (sc seedConversation) build(start time.Time) (*conversation.Conversation, error) {
	finderP := conversation.Participant{Role: conversation.RoleFinder, UserID: sc.finderID}
	for _, u := range DemoUsers {
		if u.ID == sc.finderID {
			finderP.Name = u.DisplayName()
		}
	}
	ownerP := DemoOwner
	ownerP.Role = conversation.RoleOwner

	snap := conversation.Snapshot{
		ID:        sc.id,
		Owner:     ownerP,
		Finder:    finderP,
		Item:      sc.item,
		Status:    sc.status,
		CreatedAt: start,
		UpdatedAt: start,
	}
	var lastSubmission int64
	for i, sm := range sc.messages {
		seq := int64(i + 1)
		msg := conversation.Message{
			Seq:       seq,
			Sender:    sm.sender,
			Text:      sm.text,
			Timestamp: start.Add(time.Duration(i) * 2 * time.Minute),
		}
		if sm.kind != "" {
			v := &conversation.Verification{Kind: sm.kind, Status: sm.status}
			switch sm.kind {
			case conversation.VerificationResponse:
				v.Method = conversation.MethodDetails
				v.Details = sm.text
				lastSubmission = seq
			case conversation.VerificationDecision:
				v.Method = conversation.MethodDetails
				v.Reviewed = true
				v.Ref = lastSubmission
			}
			msg.Verification = v
		}
		snap.Messages = append(snap.Messages, msg)
		snap.UpdatedAt = msg.Timestamp
	}
	if sc.status == conversation.StatusMeetupArranged {
		if mt := conversation.ExtractMeetup(snap.Messages); !mt.Empty() {
			snap.Meetup = &mt
		}
	}
	return conversation.Restore(snap)
}
