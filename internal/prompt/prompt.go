package prompt

import (
	"strings"

	"github.com/fcmolina/docqa/internal/session"
)

// SerializeHistory renders the history as a transcript, one
// "Pergunta:"/"Resposta:" pair per entry, oldest first.
func SerializeHistory(entries []session.Entry) string {
	blocks := make([]string, len(entries))
	for i, e := range entries {
		blocks[i] = "Pergunta: " + e.Question + "\nResposta: " + e.Answer
	}
	return strings.Join(blocks, "\n")
}

// Assemble builds the prompt sent to the completion service. Inputs are inserted
// verbatim; nothing is escaped.
func Assemble(documentText, history, question string) string {
	var sb strings.Builder
	sb.Grow(len(documentText) + len(history) + len(question) + 96)
	sb.WriteString("Baseado no seguinte documento:\n\n")
	sb.WriteString(documentText)
	sb.WriteString("\n\nHistórico da conversa:\n")
	sb.WriteString(history)
	sb.WriteString("\n\nPergunta: ")
	sb.WriteString(question)
	sb.WriteString("\nResposta:")
	return sb.String()
}
