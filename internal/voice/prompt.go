package voice

import (
	"fmt"
	"strings"

	"github.com/faitholopade/codegate/internal/codegen"
)

// Opening lines and local notes shown in the transcript.
const (
	QuizFirstMessage  = "Hello! I'm the Code Gatekeeper. Before this code can ship, I need to verify you understand what it does. Let's go through a few questions. Are you ready?"
	TutorGreeting     = "Hello! I'm your programming tutor. What would you like to learn about today?"
	ConnectedNote     = "Connected! The agent should start speaking..."
	TutorFarewell     = "Session ended. Happy coding!"
	startFailedPrefix = "Failed to start: "
)

const quizPreamble = `You are the Code Gatekeeper, a strict but fair code reviewer who tests developers' understanding before allowing code to ship.

CRITICAL: You must actually ASSESS the user's answers against the expected understanding provided below.

Your role:
1. Ask ONE question at a time about the code
2. Listen carefully to their answer
3. Evaluate if they demonstrated understanding based on the expected answer
4. Give specific feedback: "Correct!" or "Not quite - let me explain..."
5. Track their score mentally (correct answers vs total)
6. Be encouraging but maintain high standards`

const quizRules = `ASSESSMENT RULES:
- If they explain the concept correctly (even with different words), say "Correct!" or "Good job!"
- If they're partially right, acknowledge what they got right and clarify what's missing
- If they're wrong, say "Not quite" and briefly explain the correct answer
- After 3-5 questions, give a final verdict

Start by saying: "I'm the Code Gatekeeper. Before this code ships, I need to verify you understand it. Let me ask you a few questions. Here's the first one..."

At the end, summarize:
- How many they got right
- Say "PASS - you clearly understand this code!" if they got most right
- Say "FAIL - let's review some concepts" if they struggled`

const tutorPreamble = `You are a friendly and knowledgeable programming tutor. Your role is to:

1. Help users learn programming concepts in an engaging, conversational way
2. Explain complex topics simply using analogies and examples
3. Answer questions about any programming language, framework, or concept
4. Provide code examples when helpful (describe them verbally)
5. Encourage curiosity and experimentation
6. Be patient and supportive, especially with beginners

Start by asking what programming topic they'd like to learn about today. Be conversational and friendly!`

// QuizPrompt builds the agent instructions for a quiz on a. The output
// depends only on a.
func QuizPrompt(a *codegen.Artifact) string {
	var b strings.Builder
	b.WriteString(quizPreamble)
	b.WriteString("\n\nThe code being reviewed:\n```\n")
	b.WriteString(strings.TrimRight(a.Source, "\n"))
	b.WriteString("\n```\n\nQuestions to ask with expected answers:\n")
	for i, seg := range a.Segments {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Question %d: %s\nExpected understanding: %s\n", i+1, seg.Question, seg.Explanation)
	}
	b.WriteString("\n")
	b.WriteString(quizRules)
	return b.String()
}

// TutorPrompt builds the agent instructions for a lecture on topic. With
// no code it falls back to the open-ended tutor.
func TutorPrompt(a *codegen.Artifact, topic string) string {
	if a == nil || strings.TrimSpace(a.Source) == "" {
		if topic == "" {
			return tutorPreamble
		}
		return fmt.Sprintf("%s\n\nThe user wants to learn about: %s. Start by introducing yourself and then dive into this topic.", tutorPreamble, topic)
	}

	return fmt.Sprintf(`You are a friendly programming tutor giving a short lecture about "%[1]s".

CONTEXT: The student is learning from this code example:
`+"```\n%[2]s\n```"+`

YOUR TASK:
1. Give a 2-3 minute verbal lecture about "%[1]s"
2. Reference specific parts of the code above as examples
3. Explain WHY things work the way they do
4. Use simple analogies when helpful
5. After explaining, ask if they have any questions

START by saying: "Let me teach you about %[1]s. Looking at this code..."

Be conversational, engaging, and educational. Pause occasionally to check understanding.`, topic, strings.TrimRight(a.Source, "\n"))
}

// TutorFirstMessage is the opening line for a topic lecture, or "" to
// keep the agent's own greeting.
func TutorFirstMessage(topic string) string {
	if topic == "" {
		return ""
	}
	return fmt.Sprintf("Let me teach you about %s. Looking at this code...", topic)
}
