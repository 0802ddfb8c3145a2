package moderation

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestModerator(t *testing.T, words ...string) *Moderator {
	t.Helper()
	m, err := NewModerator(slog.Default(), words, '*')
	require.NoError(t, err)
	return m
}

func TestModerator_Censor_Masks_Blocked_Spans(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t, "idiot", "dumb")

	// When a payload contains blocked words
	out := m.Censor("you idiot, that was dumb")

	// Then every span is masked and length is preserved
	req.Equal("you *****, that was ****", out)
	req.Len(out, len("you idiot, that was dumb"))
}

func TestModerator_Censor_Is_Case_Insensitive(t *testing.T) {
	m := newTestModerator(t, "idiot")

	require.Equal(t, "*****", m.Censor("IdIoT"))
}

func TestModerator_Censor_Leaves_Clean_Text_Alone(t *testing.T) {
	m := newTestModerator(t, "idiot")

	require.Equal(t, "hello there", m.Censor("hello there"))
}

func TestModerator_Censor_Handles_NonAscii_Payloads(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t, "bête")

	out := m.Censor("quelle bête idée")
	req.Equal("quelle **** idée", out)
}

func TestDefaultModerator_Loads_Embedded_Blocklist(t *testing.T) {
	req := require.New(t)

	m, err := NewDefaultModerator(slog.Default(), '*')
	req.NoError(err)
	req.NotNil(m)
}
