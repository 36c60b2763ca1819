package contextmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/Reynold-degenracy/EverMemoryArchive/internal/retry"
	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// summarizerSystemPrompt seeds the round-summary sub-call. Fixed and
// hand-crafted, per spec: focused on tasks and tool calls, never on the
// user's own words.
const summarizerSystemPrompt = "summarize this agent execution process, focus on tasks and tool calls, keep it concise, at most 1000 words, exclude user content"

// summarizeIfNeeded implements the six-step protocol: skip-flag check,
// threshold check, locate user-message boundaries, rebuild the message
// list collapsing each round to at most one synthesized summary, and set
// the skip flag so the synthesized summary doesn't immediately retrigger
// itself before the provider reports fresh totals.
func (m *Manager) summarizeIfNeeded(ctx context.Context) error {
	m.mu.Lock()
	if m.skipNextTokenCheck {
		m.skipNextTokenCheck = false
		m.mu.Unlock()
		return nil
	}

	local := m.estimator.EstimateMessages(m.messages)
	apiTokens := m.apiTotalTokens
	limit := m.tokenLimit
	if !(local > limit || apiTokens > limit) {
		m.mu.Unlock()
		return nil
	}

	messages := make([]models.Message, len(m.messages))
	copy(messages, m.messages)
	m.mu.Unlock()

	m.emitSummarizeStarted(local, apiTokens, limit)

	userIndices := make([]int, 0)
	for i, msg := range messages {
		if msg.Kind() == models.MessageUser {
			userIndices = append(userIndices, i)
		}
	}
	if len(userIndices) == 0 {
		m.emitSummarizeFinished(false, local, local, 0, 0)
		return nil
	}

	rebuilt := make([]models.Message, 0, len(messages))
	if messages[0].Kind() != models.MessageUser {
		rebuilt = append(rebuilt, messages[:userIndices[0]]...)
	}

	summaryCount := 0
	for round, userIdx := range userIndices {
		rebuilt = append(rebuilt, messages[userIdx])

		end := len(messages)
		if round+1 < len(userIndices) {
			end = userIndices[round+1]
		}
		between := messages[userIdx+1 : end]
		if len(between) == 0 {
			continue
		}

		text := m.roundSummary(ctx, round+1, between)
		rebuilt = append(rebuilt, models.UserMessage{
			Contents: []models.Content{models.TextContent("[Model Execution Summary]\n\n" + text)},
		})
		summaryCount++
	}

	m.mu.Lock()
	m.messages = rebuilt
	m.skipNextTokenCheck = true
	m.mu.Unlock()

	newTokens := m.estimator.EstimateMessages(rebuilt)
	m.emitSummarizeFinished(true, local, newTokens, len(userIndices), summaryCount)
	return nil
}

// roundSummary produces the text for one collapsed round: an LLM call
// seeded with summarizerSystemPrompt, retried per retry.SummarizerPolicy,
// falling back to a deterministic rendering on failure. It never returns
// an error — summarization must always make progress.
func (m *Manager) roundSummary(ctx context.Context, roundNum int, round []models.Message) string {
	if m.llmClient == nil {
		text := renderRoundFallback(roundNum, round)
		m.emitCreateSummaryFinished(true, roundNum, text, "")
		m.recordSummarization(false)
		return text
	}

	seed := []models.Message{models.UserMessage{Contents: []models.Content{
		models.TextContent(renderRoundFallback(roundNum, round)),
	}}}

	text, result := retry.DoWithValue(ctx, retry.SummarizerPolicy(), func() (string, error) {
		resp, err := m.llmClient.Generate(ctx, seed, nil, summarizerSystemPrompt)
		if err != nil {
			return "", err
		}
		joined := models.JoinedText(resp.Message.Contents)
		if strings.TrimSpace(joined) == "" {
			return "", fmt.Errorf("summarizer returned empty content")
		}
		return joined, nil
	})

	if result.Err != nil {
		fallback := renderRoundFallback(roundNum, round)
		m.emitCreateSummaryFinished(false, roundNum, "", result.Err.Error())
		m.recordSummarization(false)
		return fallback
	}

	m.emitCreateSummaryFinished(true, roundNum, text, "")
	m.recordSummarization(true)
	return text
}

func (m *Manager) recordSummarization(usedLLM bool) {
	if m.metrics != nil {
		m.metrics.RecordSummarization(usedLLM)
	}
}

// renderRoundFallback is the deterministic textual rendering used both as
// the LLM failure fallback and as the seed text handed to the summarizer
// itself (the summarizer condenses this rendering rather than raw
// messages, keeping the two paths consistent).
func renderRoundFallback(roundNum int, round []models.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d execution process:\n\n", roundNum)
	for _, msg := range round {
		switch v := msg.(type) {
		case models.ModelMessage:
			fmt.Fprintf(&b, "Assistant: %s\n", models.JoinedText(v.Contents))
			if len(v.ToolCalls) > 0 {
				names := make([]string, len(v.ToolCalls))
				for i, tc := range v.ToolCalls {
					names[i] = tc.Name
				}
				fmt.Fprintf(&b, "  -> Called tools: %s\n", strings.Join(names, ", "))
			}
		case models.ToolMessage:
			preview := v.Result.Content
			if !v.Result.Success {
				preview = v.Result.Error
			}
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			fmt.Fprintf(&b, "  <- Tool returned: %s\n", preview)
		}
	}
	return b.String()
}
