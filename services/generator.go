package services

import (
	"context"
	"fmt"
	"strings"

	"onboarding-copilot/models"
)

// GenerationBackend produces an answer from a fully-built prompt.
type GenerationBackend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// departmentInstructions steer the answer's tone and scope per
// department. The General instruction doubles as the fallback.
var departmentInstructions = map[string]string{
	models.DepartmentHR: `You are an HR onboarding assistant. Answer questions about benefits,
leave, enrollment and workplace policies. Cite concrete numbers (days,
deadlines, coverage amounts) from the policy excerpts when present.
For personal or sensitive situations, advise contacting the HR team
directly.`,
	models.DepartmentIT: `You are an IT support assistant for new employees. Give concrete
step-by-step instructions for equipment, accounts and network access.
When a step needs elevated permissions, tell the employee to open a
helpdesk ticket.`,
	models.DepartmentSecurity: `You are a security onboarding assistant. Answer questions about
security training, data handling, physical access and compliance.
Never weaken a control in your answer; when a request conflicts with
policy, say so and name the policy.`,
	models.DepartmentFinance: `You are a finance onboarding assistant. Answer questions about
payroll, expenses, reimbursements and tax forms. Quote exact limits
and deadlines from the policy excerpts when present.`,
	models.DepartmentGeneral: `You are a general onboarding assistant for new employees. Answer
helpfully from the provided policy excerpts. If the question belongs
to a specialist team, say which team to contact.`,
}

// departmentFollowups are suggested next questions appended to
// responses, keyed by department.
var departmentFollowups = map[string][]string{
	models.DepartmentHR: {
		"What benefits am I eligible for?",
		"How do I request time off?",
		"When does open enrollment start?",
	},
	models.DepartmentIT: {
		"How do I set up my laptop?",
		"How do I connect to the VPN?",
		"How do I reset my password?",
	},
	models.DepartmentSecurity: {
		"When is my security training due?",
		"How do I report a phishing email?",
		"How do I get my access badge?",
	},
	models.DepartmentFinance: {
		"When is payday?",
		"How do I submit an expense report?",
		"How do I set up direct deposit?",
	},
	models.DepartmentGeneral: {
		"What should I do on my first day?",
		"Who do I contact with questions?",
	},
}

// Generator builds grounded prompts from retrieval results and calls
// the generation backend.
type Generator struct {
	backend       GenerationBackend
	contextBudget int
}

func NewGenerator(backend GenerationBackend, contextBudget int) *Generator {
	return &Generator{backend: backend, contextBudget: contextBudget}
}

// GeneratedAnswer is the output of one generation call, with the
// chunks actually included in the prompt.
type GeneratedAnswer struct {
	Text       string
	UsedChunks []*models.DocumentChunk
}

// Generate produces a grounded answer for one department branch.
// Context is filled from the top-ranked result down until the
// character budget runs out; only included chunks count as sources.
func (g *Generator) Generate(ctx context.Context, query, department, language string, results []models.RetrievalResult) (*GeneratedAnswer, error) {
	contextText, used := g.buildContext(results)

	instructions, ok := departmentInstructions[department]
	if !ok {
		instructions = departmentInstructions[models.DepartmentGeneral]
	}

	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n")
	if contextText == "" {
		b.WriteString("No policy excerpts matched this question. Say that you could not find this in the onboarding documentation and suggest who to contact.\n\n")
	} else {
		b.WriteString("Policy excerpts:\n")
		b.WriteString(contextText)
		b.WriteString("\n")
	}
	b.WriteString("Answer only from the excerpts above. If they do not contain the answer, say so instead of guessing.\n")
	if language == "ar" {
		b.WriteString("Respond in Arabic.\n")
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(query)

	text, err := g.backend.Generate(ctx, b.String())
	if err != nil {
		return nil, err
	}

	return &GeneratedAnswer{Text: strings.TrimSpace(text), UsedChunks: used}, nil
}

// buildContext concatenates chunk texts in rank order within the
// character budget. A chunk that would overflow the budget is skipped
// along with everything after it, so context order always mirrors
// rank order.
func (g *Generator) buildContext(results []models.RetrievalResult) (string, []*models.DocumentChunk) {
	var b strings.Builder
	var used []*models.DocumentChunk

	for _, res := range results {
		block := fmt.Sprintf("[%s / %s]\n%s\n\n", res.Chunk.Source, res.Chunk.Section, res.Chunk.Text)
		if b.Len()+len(block) > g.contextBudget {
			break
		}
		b.WriteString(block)
		used = append(used, res.Chunk)
	}

	return strings.TrimSpace(b.String()), used
}

// Followups returns suggested next questions for the department.
func Followups(department string) []string {
	if f, ok := departmentFollowups[department]; ok {
		return f
	}
	return departmentFollowups[models.DepartmentGeneral]
}
