package debate

import (
	"fmt"
	"strings"
)

const analysisSystemPrompt = `You are Agent A, the analysis lead in a public-relations risk debate.
Your job is to build the strongest evidence-grounded assessment of the topic.
Answer the challenger's open questions first, then give your updated assessment
of what happened, how it is spreading, and which response options remain open.
Cite the numbered reference evidence as [n] wherever a claim rests on it, and be
concrete about dates, platforms, and named actors. If you reach machine-readable
conclusions, append them as a JSON object on the final line.`

const challengeSystemPrompt = `You are Agent B, the challenger in a public-relations risk debate.
Attack the analysis, not the topic. Raise at least two specific criticisms of the
counterpart's latest message (unsupported claims, missing stakeholders,
contradicting evidence) and ask at least one question the analysis must answer
next round. Cite the numbered reference evidence as [n] where it backs a
criticism. Only when the analysis has fully converged and further rounds would
add nothing, reply instead with a single JSON object:
{"stop": true, "reason": "<why the debate is settled>"}`

const observerSystemPrompt = `You are Agent C, the neutral observer of a public-relations risk debate.
Synthesize the full exchange into a final brief: the established facts, the
points still contested, the concrete risks to the stated goal, and the
recommended next actions. Cite the numbered reference evidence as [n]. Do not
introduce new claims that neither debater raised.`

const plannerSystemPrompt = `You plan web searches for one debate agent's next turn.
Respond with ONLY a JSON array of directive objects, for example:
[{"intent": "verify timeline", "query": "acme recall 2026 august statement", "domains": ["reuters.com"]}]
Rules: at most %d directives; every query must name concrete entities, dates,
platforms, or documents; never emit a query made only of generic theme words;
domains are optional and restrict the search to those sites.`

// citationDigestChars bounds how much of each evidence item the model sees.
const citationDigestChars = 200

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// renderCitations formats selected evidence as a numbered catalog with a
// short content digest per entry. The [n] numbers are what agents cite.
func renderCitations(items []EvidenceItem) string {
	if len(items) == 0 {
		return "(no evidence selected)"
	}
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "[%d] %s (%s)\n    %s\n", i+1, item.Title, item.URL,
			truncate(strings.TrimSpace(item.Content), citationDigestChars))
	}
	return b.String()
}

// renderTranscript flattens the conversation for the observer prompt.
func renderTranscript(messages []TurnMessage, perMessageChars int) string {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "[%s] %s\n", m.Role, truncate(strings.TrimSpace(m.Content), perMessageChars))
	}
	return b.String()
}

func sessionHeader(st *State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", st.Topic)
	if st.TimeContext != "" {
		fmt.Fprintf(&b, "Time context: %s\n", st.TimeContext)
	}
	if st.PRGoal != "" {
		fmt.Fprintf(&b, "PR goal: %s\n", st.PRGoal)
	}
	return b.String()
}

// buildDebaterMessages assembles the generation prompt for an A or B turn.
func buildDebaterMessages(system, capability string, st *State, counterpart string,
	directives []SearchDirective, newRetrievals int, citations []EvidenceItem) []map[string]string {

	if capability != "" {
		system = system + "\n" + capability
	}

	var b strings.Builder
	b.WriteString(sessionHeader(st))
	fmt.Fprintf(&b, "Round %d of %d.\n\n", st.TurnIndex+1, st.MaxRounds)
	if counterpart != "" {
		fmt.Fprintf(&b, "Counterpart's latest message:\n%s\n\n", truncate(counterpart, 1500))
	} else {
		b.WriteString("The counterpart has not spoken yet; open the debate.\n\n")
	}
	if len(directives) > 0 {
		queries := make([]string, 0, len(directives))
		for _, d := range directives {
			queries = append(queries, d.Query)
		}
		fmt.Fprintf(&b, "Searches executed this turn: %s\n", strings.Join(queries, " | "))
	}
	fmt.Fprintf(&b, "New evidence admitted this turn: %d item(s).\n\n", newRetrievals)
	fmt.Fprintf(&b, "Reference evidence:\n%s\n", renderCitations(citations))
	b.WriteString("Write your turn now.")

	return []map[string]string{
		{"role": "system", "content": system},
		{"role": "user", "content": b.String()},
	}
}

// buildObserverMessages assembles the synthesis prompt over the full record.
func buildObserverMessages(system, capability string, st *State, citations []EvidenceItem) []map[string]string {
	if capability != "" {
		system = system + "\n" + capability
	}
	var b strings.Builder
	b.WriteString(sessionHeader(st))
	fmt.Fprintf(&b, "Rounds completed: %d of %d.\n", st.CompletedRounds(), st.MaxRounds)
	if st.StopReason != "" {
		fmt.Fprintf(&b, "The debate stopped early: %s\n", st.StopReason)
	}
	fmt.Fprintf(&b, "\nFull debate transcript:\n%s\n", renderTranscript(st.Messages, 600))
	fmt.Fprintf(&b, "Evidence pool: %d item(s) collected.\n\n", len(st.IntelPool))
	fmt.Fprintf(&b, "Reference evidence:\n%s\n", renderCitations(citations))
	b.WriteString("Write the final synthesis now.")

	return []map[string]string{
		{"role": "system", "content": system},
		{"role": "user", "content": b.String()},
	}
}

// buildPlannerMessages assembles the query-planning prompt. Recent searched
// queries are included so the model avoids repeats before the state-level
// dedup even runs.
func buildPlannerMessages(st *State, role, counterpart, own string, maxQueries int) []map[string]string {
	var b strings.Builder
	b.WriteString(sessionHeader(st))
	fmt.Fprintf(&b, "Planning for agent %s, round %d of %d.\n\n", role, st.TurnIndex+1, st.MaxRounds)
	if counterpart != "" {
		fmt.Fprintf(&b, "Counterpart's latest message:\n%s\n\n", truncate(counterpart, 800))
	}
	if own != "" {
		fmt.Fprintf(&b, "Your previous message:\n%s\n\n", truncate(own, 800))
	}
	if len(st.SearchedQueries) > 0 {
		recent := st.SearchedQueries
		if len(recent) > 12 {
			recent = recent[len(recent)-12:]
		}
		fmt.Fprintf(&b, "Already searched this session (do not repeat): %s\n", strings.Join(recent, " | "))
	}
	fmt.Fprintf(&b, "Evidence pool already holds %d item(s).\n", len(st.IntelPool))

	return []map[string]string{
		{"role": "system", "content": fmt.Sprintf(plannerSystemPrompt, maxQueries)},
		{"role": "user", "content": b.String()},
	}
}
