package rag

import "fmt"

// NoContentAnswer is returned instead of calling the answer model when retrieval finds nothing.
const NoContentAnswer = "No relevant content was found in the available policy clauses for this question."

const expansionTemplate = `You are an analyst who knows travel insurance policy wording in depth. The user's question may be colloquial or vague.
Write %d search queries with clearly different meanings so that retrieval covers every clause that could apply.

Rules:
1. Use standard policy terminology instead of colloquial wording (for example "plane was late" becomes "flight delay" and "trip delay"; 「飛機遲到」 becomes 「班機延誤」 and 「旅程延誤」).
2. If the question is about a delay or a loss, write separate queries for the trip or flight and for baggage so the two are not confused.
3. Spread the queries over the insured event, the benefit standard, the claim documents and the exclusions.
4. If the user does not mention baggage, focus on the trip and the means of transport.
5. Write the queries in the language of the question.

User question: %s

List exactly %d queries, one per line, with no numbering and no other text:`

const answerTemplate = `You are a senior insurance claims consultant. Answer the customer's claim question from the policy clauses below.

[Policy clauses]
%s

Customer question: %s

Rules:
1. Answer the question directly. Never refer to "the provided context", "the reference material", "the retrieved content" or similar wording.
2. Speak as in a face-to-face consultation and cite clause names and numbers (for example "Under Article XX ...") whenever they are available.
3. Combine every relevant clause and do not leave out special non-covered items or exclusions.
4. If the clauses really do not mention the topic, say politely that the current policy clauses do not cover it. Do not make up an answer.
5. Answer in the language of the question.

Answer:`

func expansionPrompt(question string, count int) string {
	return fmt.Sprintf(expansionTemplate, count, question, count)
}

func answerPrompt(context, question string) string {
	return fmt.Sprintf(answerTemplate, context, question)
}
