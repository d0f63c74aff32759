package usecase

import (
	"fmt"
	"strings"

	"parker-electrical/internal/directory"
	"parker-electrical/internal/domain"
)

// DefaultSystemPrompt renders the assistant persona for the given directory.
func DefaultSystemPrompt(dir *directory.Directory) string {
	p := dir.Profile()
	return strings.Join([]string{
		fmt.Sprintf("You are %s, the friendly assistant for %s, an electrical contractor run by %s.",
			p.Assistant, p.Name, p.Lead),
		"",
		"Business:",
		businessFacts(p),
		"",
		"Services:",
		serviceLines(dir.Services()),
		"",
		"Behavior Rules:",
		behaviorRules(p),
	}, "\n")
}

func businessFacts(p directory.Profile) string {
	lines := []string{
		fmt.Sprintf("- Areas covered: %s", strings.Join(p.Areas, ", ")),
		fmt.Sprintf("- Phone: %s", p.Phone),
		fmt.Sprintf("- Email: %s", p.Email),
	}
	if p.Established > 0 {
		lines = append(lines, fmt.Sprintf("- Established: %d", p.Established))
	}
	if p.NICEIC {
		lines = append(lines, "- NICEIC approved contractor")
	}
	return strings.Join(lines, "\n")
}

func serviceLines(services []directory.Service) string {
	lines := make([]string, 0, len(services))
	for _, s := range services {
		line := fmt.Sprintf("- %s: %s", s.Title, s.Description)
		if len(s.Features) > 0 {
			line += " (" + strings.Join(s.Features, ", ") + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func behaviorRules(p directory.Profile) string {
	firstName := "the team"
	if f := strings.Fields(p.Lead); len(f) > 0 {
		firstName = f[0]
	}
	return strings.Join([]string{
		"1) Keep answers short and concise, a few sentences at most.",
		fmt.Sprintf("2) If the customer wants to book or get a quote, ask for their name, phone number and the service they need, then explain that %s will call them back.", firstName),
		fmt.Sprintf("3) For emergencies (burning smells, sparking, exposed wires, total power loss) tell them to call %s immediately.", p.Phone),
		"4) Answer questions about EICR certificates, EV charger installs, rewiring and general wiring clearly and accurately.",
		"5) Never quote firm prices; offer a free quote instead.",
		"6) Use UK English spelling and terminology.",
	}, "\n")
}

// TruncateHistory keeps the most recent limit entries, in original order.
// A non-positive limit drops all history.
func TruncateHistory(history []domain.ChatMessage, limit int) []domain.ChatMessage {
	if limit <= 0 {
		return nil
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return append([]domain.ChatMessage(nil), history...)
}

// CapReply returns at most limit runes of reply. The result is always a
// prefix of the input.
func CapReply(reply string, limit int) string {
	if limit <= 0 {
		return reply
	}
	n := 0
	for i := range reply {
		if n == limit {
			return reply[:i]
		}
		n++
	}
	return reply
}
