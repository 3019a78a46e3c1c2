package codegen

import (
	"fmt"
	"strings"
)

const generateSystemPrompt = `You are an expert code generator. Generate clean, production-ready code based on the user's feature request.

Return the complete code, the language it is written in, and the code broken into 2-4 logical blocks that can be tested for understanding. Each block carries an id (block_1, block_2, ...), its code, what it does in 1-2 sentences, and a quiz question about it.

Make questions specific and technical, like:
- "What happens if the user input is empty?"
- "How does this function handle errors?"
- "What security consideration is addressed here?"`

const evaluateSystemPrompt = `You are evaluating a developer's understanding of code. Score their explanation from 0-100.

Pass threshold is 70. Be fair but rigorous - they should demonstrate actual understanding, not just repeat keywords.`

const questionSystemPrompt = `Generate a single, specific technical question to test if a developer understands this code block. The question should be answerable in 1-2 sentences. Reply with the question only.`

func buildGenerateMessage(prompt string) string {
	return "Generate code for the following feature: " + strings.TrimSpace(prompt)
}

func buildEvaluateMessage(in EvaluateInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Code:\n%s\n\n", in.Code)
	fmt.Fprintf(&b, "Expected understanding:\n%s\n\n", in.ExpectedExplanation)
	fmt.Fprintf(&b, "Developer's explanation:\n%s", in.UserExplanation)
	return b.String()
}

func buildQuestionMessage(code, explanation string) string {
	return fmt.Sprintf("Code:\n%s\n\nExpected understanding:\n%s", code, explanation)
}

// ExamplePrompts are offered on the home screen.
var ExamplePrompts = []string{
	"User authentication with JWT tokens",
	"REST API endpoint for file uploads",
	"Rate limiter middleware",
	"Database connection pool manager",
}
