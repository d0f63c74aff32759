package domain

import (
	"encoding/json"
	"strings"
)

// Conversation roles understood by the relay. The front end historically
// sends "model" for assistant turns, which is accepted as an alias.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	roleModel     = "model"
)

// ChatMessage is the provider-agnostic chat message shape used by the handler
// and LLM integrations.
type ChatMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type messagePart struct {
	Text string `json:"text"`
}

// UnmarshalJSON accepts both {role,text} and the provider-native
// {role,parts:[{text}]} shapes.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role  string        `json:"role"`
		Text  string        `json:"text"`
		Parts []messagePart `json:"parts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	text := raw.Text
	if text == "" && len(raw.Parts) > 0 {
		texts := make([]string, 0, len(raw.Parts))
		for _, p := range raw.Parts {
			texts = append(texts, p.Text)
		}
		text = strings.Join(texts, "")
	}
	*m = ChatMessage{Role: NormalizeRole(raw.Role), Text: text}
	return nil
}

// NormalizeRole maps known role aliases onto RoleUser / RoleAssistant and
// returns anything else lower-cased and untouched.
func NormalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == roleModel {
		return RoleAssistant
	}
	return r
}

// ValidRole reports whether role is one of the two turn roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
