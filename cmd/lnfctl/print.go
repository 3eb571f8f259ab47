package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matheus3301/lnf/internal/api"
	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/profile"
)

func printSummaries(w io.Writer, list []conversation.Summary) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No conversations.")
		return
	}
	for _, s := range list {
		fmt.Fprintf(w, "%-14s %-24s %-26s %s\n", s.ID, s.Item.Name, s.Status, truncate(s.LastMessage, 40))
	}
}

func printConversation(w io.Writer, c *api.Conversation) {
	snap := c.Snapshot
	fmt.Fprintf(w, "%s (%s) with %s\n", snap.Item.Name, snap.ID, snap.Finder.Name)
	fmt.Fprintf(w, "== %s ==\n", c.Banner.Title)
	if c.Banner.Description != "" {
		fmt.Fprintf(w, "   %s\n", c.Banner.Description)
	}
	if snap.Meetup != nil {
		fmt.Fprintf(w, "   meetup: %s\n", meetupLine(*snap.Meetup))
	}
	fmt.Fprintln(w)
	for _, m := range snap.Messages {
		printMessage(w, snap, m)
	}
	if len(c.Affordances) > 0 {
		names := make([]string, len(c.Affordances))
		for i, a := range c.Affordances {
			names[i] = string(a)
		}
		fmt.Fprintf(w, "\nactions: %s\n", strings.Join(names, ", "))
	}
	if c.Pending > 0 {
		fmt.Fprintf(w, "%d reply pending\n", c.Pending)
	}
}

func printMessage(w io.Writer, snap conversation.Snapshot, m conversation.Message) {
	who := string(m.Sender)
	switch m.Sender {
	case conversation.SenderOwner:
		who = snap.Owner.Name
	case conversation.SenderFinder:
		who = snap.Finder.Name
	}
	text := m.Text
	if v := m.Verification; v != nil {
		text = fmt.Sprintf("[%s %s] %s", v.Kind, v.Status, text)
	}
	if a := m.Attachment; a != nil {
		text = strings.TrimSpace(text + " [" + string(a.Kind) + " " + a.URI + "]")
	}
	fmt.Fprintf(w, "%3d %s  %-16s %s\n", m.Seq, m.Timestamp.Local().Format("15:04"), truncate(who, 16), text)
}

func printIntent(e *env, resp *api.IntentResponse) error {
	if e.json {
		outputJSON(resp)
		return nil
	}
	if !resp.Applied {
		fmt.Fprintf(os.Stderr, "not applied: status is %s\n", resp.Conversation.Snapshot.Status)
	}
	printConversation(os.Stdout, &resp.Conversation)
	return nil
}

func printSession(e *env, resp *api.SessionResponse) error {
	if e.json {
		outputJSON(resp)
		return nil
	}
	printUser(os.Stdout, resp.User)
	fmt.Printf("Token:   %s\n", resp.Token)
	fmt.Printf("Expires: %s\n", resp.ExpiresAt.Local().Format("Jan 2 15:04"))
	return nil
}

func printUser(w io.Writer, u profile.User) {
	fmt.Fprintf(w, "User:    %s (%s)\n", u.DisplayName(), u.ID)
	if u.Email != "" {
		fmt.Fprintf(w, "Email:   %s\n", u.Email)
	}
	if u.Pronouns != "" {
		fmt.Fprintf(w, "Pronouns: %s\n", u.Pronouns)
	}
	fmt.Fprintf(w, "Karma:   %d\n", u.Karma)
}

func meetupLine(m conversation.Meetup) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{m.Time, m.Location, m.Date} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
