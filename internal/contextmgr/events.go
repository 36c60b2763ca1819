package contextmgr

import "github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"

func (m *Manager) emitSummarizeStarted(local, api, limit int) {
	if m.events == nil {
		return
	}
	m.events.Publish(models.Event{
		Kind: models.EventSummarizeMessagesStarted,
		SummarizeMessagesStarted: &models.SummarizeMessagesStartedPayload{
			LocalEstimatedTokens: local,
			APIReportedTokens:    api,
			TokenLimit:           limit,
		},
	})
}

func (m *Manager) emitSummarizeFinished(ok bool, oldTokens, newTokens, userCount, summaryCount int) {
	if m.events == nil {
		return
	}
	m.events.Publish(models.Event{
		Kind: models.EventSummarizeMessagesFinished,
		SummarizeMessagesFinished: &models.SummarizeMessagesFinishedPayload{
			OK:               ok,
			OldTokens:        oldTokens,
			NewTokens:        newTokens,
			UserMessageCount: userCount,
			SummaryCount:     summaryCount,
		},
	})
}

func (m *Manager) emitCreateSummaryFinished(ok bool, roundNum int, text, errMsg string) {
	if m.events == nil {
		return
	}
	m.events.Publish(models.Event{
		Kind: models.EventCreateSummaryFinished,
		CreateSummaryFinished: &models.CreateSummaryFinishedPayload{
			OK:          ok,
			RoundNum:    roundNum,
			SummaryText: text,
			Error:       errMsg,
		},
	})
}
