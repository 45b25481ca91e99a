package synthesis

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/johnquangdev/complexchaos/internal/domain/entities"
)

// SystemPrompt frames the model as a neutral mediator
const SystemPrompt = `You are an AI mediator helping diverse stakeholders reach consensus on complex issues.

Your role is to:
1. Identify shared values and common ground across different perspectives
2. Highlight areas of agreement, even when they are subtle
3. Acknowledge and respect areas of disagreement without dismissing them
4. Preserve minority viewpoints rather than averaging them away
5. Propose bridging language and compromise positions that more than one group can accept

Guidelines:
- Use neutral, non-judgmental language
- Attribute positions to stakeholder roles, never to individuals
- Be specific about trade-offs, timelines and responsibilities
- Keep the document structured and readable

Structure your synthesis with these sections:
## Common Ground
## Areas of Alignment
## Points of Tension
## Minority Views
## Proposed Path Forward

You are translating between worldviews so that people who disagree can still cooperate.`

// RefinementInstruction is appended to the user prompt when refining
const RefinementInstruction = "\n\nIMPORTANT: Address all critiques explicitly in your refined synthesis."

// Perspective is one submission reduced to what the prompt needs
type Perspective struct {
	Role    entities.StakeholderRole
	Content string
}

// PromptContext is everything BuildPrompt renders
type PromptContext struct {
	Title             string
	Type              entities.SessionType
	Perspectives      []Perspective
	PreviousSynthesis string
	Critiques         []string
}

// BuildPrompt renders the user prompt. Perspectives are grouped by role in
// the order each role first appears and numbered from 1 within their group.
func BuildPrompt(p PromptContext) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Session: %s\nType: %s\n\n", p.Title, p.Type)
	sb.WriteString("## Stakeholder Perspectives:\n\n")

	for _, group := range groupByRole(p.Perspectives) {
		fmt.Fprintf(&sb, "### %s:\n", FormatRole(string(group.role)))
		for i, content := range group.contents {
			fmt.Fprintf(&sb, "%d. %s\n\n", i+1, content)
		}
	}

	if p.PreviousSynthesis != "" {
		fmt.Fprintf(&sb, "\n## Previous Synthesis (to be refined):\n%s\n\n", p.PreviousSynthesis)
	}

	if len(p.Critiques) > 0 {
		sb.WriteString("\n## Critiques to Address:\n")
		for i, critique := range p.Critiques {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, critique)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nGenerate a consensus synthesis that addresses all perspectives and ")
	if len(p.Critiques) > 0 {
		sb.WriteString("responds to the critiques above.")
	} else {
		sb.WriteString("finds common ground.")
	}

	return sb.String()
}

type roleGroup struct {
	role     entities.StakeholderRole
	contents []string
}

func groupByRole(perspectives []Perspective) []*roleGroup {
	var groups []*roleGroup
	index := make(map[entities.StakeholderRole]*roleGroup)
	for _, p := range perspectives {
		g, ok := index[p.Role]
		if !ok {
			g = &roleGroup{role: p.Role}
			index[p.Role] = g
			groups = append(groups, g)
		}
		g.contents = append(g.contents, p.Content)
	}
	return groups
}

// FormatRole turns a snake_case tag into title case words.
// No acronym handling: "ai_adoption" becomes "Ai Adoption".
func FormatRole(tag string) string {
	words := strings.Split(tag, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// perspectivesOf flattens submissions in stored order
func perspectivesOf(submissions []entities.Submission) []Perspective {
	out := make([]Perspective, 0, len(submissions))
	for i := range submissions {
		out = append(out, Perspective{
			Role:    submissions[i].Role(),
			Content: submissions[i].Content,
		})
	}
	return out
}

// distinctRoles returns each author role once, in first-appearance order
func distinctRoles(submissions []entities.Submission) []entities.StakeholderRole {
	seen := make(map[entities.StakeholderRole]bool)
	roles := []entities.StakeholderRole{}
	for i := range submissions {
		role := submissions[i].Role()
		if seen[role] {
			continue
		}
		seen[role] = true
		roles = append(roles, role)
	}
	return roles
}
