package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChatMessage_UnmarshalShapes(t *testing.T) {
	var msgs []ChatMessage
	err := json.Unmarshal([]byte(`[
		{"role":"user","text":"hello"},
		{"role":"model","parts":[{"text":"hi "},{"text":"there"}]},
		{"role":"Assistant","text":"ok"}
	]`), &msgs)
	require.NoError(t, err)
	require.Equal(t, []ChatMessage{
		{Role: RoleUser, Text: "hello"},
		{Role: RoleAssistant, Text: "hi there"},
		{Role: RoleAssistant, Text: "ok"},
	}, msgs)
}

func TestChatMessage_TextWinsOverParts(t *testing.T) {
	var m ChatMessage
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","text":"a","parts":[{"text":"b"}]}`), &m))
	require.Equal(t, "a", m.Text)
}

func TestValidRole(t *testing.T) {
	require.True(t, ValidRole(NormalizeRole("model")))
	require.True(t, ValidRole(NormalizeRole(" USER ")))
	require.False(t, ValidRole(NormalizeRole("system")))
}
