package agent

import "strings"

// FallbackAnswer is the exact reply the model is told to give when the
// retrieved context does not support an answer.
const FallbackAnswer = "I don't have enough information in the provided context."

var groundingRules = []string{
	"1. If the answer is not 100% supported by the context, reply exactly: " + FallbackAnswer,
	"2. Do NOT use external knowledge.",
	"3. Do NOT make assumptions.",
	"4. Do NOT speculate or invent details.",
	"5. Stick strictly to what is present in the context.",
}

// GroundingPrompt builds the system instruction that confines the model to
// contextText.
func GroundingPrompt(contextText string) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant that must answer ONLY using the provided context.\n\n")
	b.WriteString("Rules:\n")
	for _, rule := range groundingRules {
		b.WriteString(rule)
		b.WriteByte('\n')
	}
	b.WriteString("\nContext:\n")
	b.WriteString(contextText)
	return b.String()
}

func joinSections(sections ...string) string {
	var nonEmpty []string
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(s))
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}
