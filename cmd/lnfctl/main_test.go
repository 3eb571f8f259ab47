package main

import (
	"bytes"
	"flag"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/lnf/internal/conversation"
)

func TestCommandTableMatchesOrder(t *testing.T) {
	assert.Len(t, commands, len(commandOrder))
	for _, name := range commandOrder {
		cmd, ok := commands[name]
		require.True(t, ok, name)
		assert.NotNil(t, cmd.run, name)
		assert.True(t, strings.HasPrefix(cmd.usage, name), name)
	}
	assert.True(t, commands["watch"].streaming)
	assert.False(t, commands["list"].streaming)
}

func TestParseAcceptsIDBeforeOrAfterFlags(t *testing.T) {
	for _, args := range [][]string{
		{"c1", "--details", "blue strap"},
		{"--details", "blue strap", "c1"},
	} {
		fs := flag.NewFlagSet("submit", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		details := fs.String("details", "", "")

		rest, err := parse(fs, args)
		require.NoError(t, err)
		assert.Equal(t, []string{"c1"}, rest)
		assert.Equal(t, "blue strap", *details)
	}
}

func TestRequireID(t *testing.T) {
	_, err := requireID("show <id>", nil)
	assert.EqualError(t, err, "usage: lnfctl show <id>")

	id, err := requireID("show <id>", []string{"c1", "extra"})
	require.NoError(t, err)
	assert.Equal(t, "c1", id)
}

func TestPrintSummaries(t *testing.T) {
	var buf bytes.Buffer
	printSummaries(&buf, nil)
	assert.Equal(t, "No conversations.\n", buf.String())

	buf.Reset()
	printSummaries(&buf, []conversation.Summary{{
		ID:          "c1",
		Item:        conversation.Item{Name: "Black wallet"},
		Status:      conversation.StatusAwaitingVerification,
		LastMessage: strings.Repeat("x", 60),
	}})
	out := buf.String()
	assert.Contains(t, out, "Black wallet")
	assert.Contains(t, out, string(conversation.StatusAwaitingVerification))
	assert.Contains(t, out, strings.Repeat("x", 39)+"…")
}

func TestMeetupLineAndTruncate(t *testing.T) {
	assert.Equal(t, "3:00 PM, the library", meetupLine(conversation.Meetup{Time: "3:00 PM", Location: "the library"}))
	assert.Equal(t, "", meetupLine(conversation.Meetup{}))

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "héll…", truncate("héllo world", 5))
}
