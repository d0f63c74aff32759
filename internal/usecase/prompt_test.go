package usecase

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"parker-electrical/internal/directory"
	"parker-electrical/internal/domain"
)

func TestDefaultSystemPrompt_IncludesBusinessContext(t *testing.T) {
	prompt := DefaultSystemPrompt(directory.Default())

	require.Contains(t, prompt, "Sparky")
	require.Contains(t, prompt, "Parker Electrical Solutions")
	require.Contains(t, prompt, "Chelmsford")
	require.Contains(t, prompt, "EICR Certificates & Testing")
	require.Contains(t, prompt, "+447737447302")
	require.Contains(t, prompt, "Joe will call them back")
	require.Contains(t, prompt, "UK English")
}

func TestDefaultSystemPrompt_EmptyLead(t *testing.T) {
	dir := directory.New(directory.Profile{Name: "Acme", Assistant: "Bot", Phone: "123"}, nil)
	require.Contains(t, DefaultSystemPrompt(dir), "the team will call them back")
}

func TestTruncateHistory(t *testing.T) {
	h := history(8)
	got := TruncateHistory(h, 6)
	require.Equal(t, h[2:], got)

	got[0].Text = "mutated"
	require.Equal(t, "turn 2", h[2].Text)

	require.Nil(t, TruncateHistory(h, 0))
	require.Equal(t, []domain.ChatMessage{h[7]}, TruncateHistory(h, 1))
}

func TestCapReply(t *testing.T) {
	require.Equal(t, "abc", CapReply("abc", 3))
	require.Equal(t, "ab", CapReply("abc", 2))
	require.Equal(t, "abc", CapReply("abc", 0))

	s := strings.Repeat("£", 10)
	got := CapReply(s, 4)
	require.Equal(t, 4, utf8.RuneCountInString(got))
	require.True(t, utf8.ValidString(got))
	require.True(t, strings.HasPrefix(s, got))
}
