package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	DisableStyling()
	os.Exit(m.Run())
}

func TestPrompt(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("  Warmup  \nFRIGIDSEC-DPC{x}"), &out)

	name, err := c.Prompt("Name: ")
	require.NoError(t, err)
	assert.Equal(t, "Warmup", name)

	// Last line without a trailing newline is still returned.
	flag, err := c.Prompt("Flag: ")
	require.NoError(t, err)
	assert.Equal(t, "FRIGIDSEC-DPC{x}", flag)

	_, err = c.Prompt("More: ")
	assert.ErrorIs(t, err, ErrNoInput)

	assert.True(t, strings.HasPrefix(out.String(), "Name: Flag: More: "))
}

func TestPrompt_EmptyLine(t *testing.T) {
	c := NewConsole(strings.NewReader("\n"), &bytes.Buffer{})

	answer, err := c.Prompt("? ")
	require.NoError(t, err)
	assert.Equal(t, "", answer)
}

func TestMessages(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader(""), &out)

	c.Success("Challenge Warmup successfully added.")
	c.Error("No challenge named Ghost found.")
	c.Info("No challenges found.")
	c.KeyValue("Flag Hash", "aa11")

	s := out.String()
	assert.Contains(t, s, "Challenge Warmup successfully added.")
	assert.Contains(t, s, "No challenge named Ghost found.")
	assert.Contains(t, s, "No challenges found.")
	assert.Contains(t, s, "Flag Hash: aa11")
}

func TestTable(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader(""), &out)

	err := c.Table([]string{"ID", "Challenge Name"}, [][]string{{"1", "Warmup"}, {"2", "Finale"}})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Warmup")
	assert.Contains(t, out.String(), "Finale")
	assert.Contains(t, out.String(), "Challenge Name")
}

func TestRenderCard(t *testing.T) {
	card := RenderCard("New challenge", []Field{
		{Key: "Challenge Name", Value: "Warmup"},
		{Key: "Flag Hash", Value: "aa11"},
	})

	assert.Contains(t, card, "New challenge")
	assert.Contains(t, card, "Challenge Name: Warmup")
	assert.Contains(t, card, "Flag Hash: aa11")
}
