package worker

import (
	"fmt"
	"strings"

	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// memoryBufferPlaceholder is the token buildSystemPrompt replaces with the
// rendered buffer window.
const memoryBufferPlaceholder = "{MEMORY_BUFFER}"

// bufferWindow is how many trailing buffer items are rendered into the
// system prompt.
const bufferWindow = 10

// buildSystemPrompt replaces every occurrence of {MEMORY_BUFFER} in
// template with the textual rendering of the last bufferWindow buffer
// items (or "None." if the buffer is empty).
func buildSystemPrompt(template string, buffer []models.BufferMessage) string {
	return strings.ReplaceAll(template, memoryBufferPlaceholder, renderBuffer(buffer))
}

// renderBuffer formats the trailing window of buffer items, one per
// line: "- [YYYY-MM-DD HH:MM:SS][role:<kind>][id:<id>][name:<name>] <joined contents>".
func renderBuffer(buffer []models.BufferMessage) string {
	if len(buffer) == 0 {
		return "None."
	}
	window := buffer
	if len(window) > bufferWindow {
		window = window[len(window)-bufferWindow:]
	}

	lines := make([]string, len(window))
	for i, item := range window {
		lines[i] = fmt.Sprintf("- [%s][role:%s][id:%s][name:%s] %s",
			item.Time.Format("2006-01-02 15:04:05"),
			item.Kind,
			item.ID,
			item.Name,
			models.JoinedText(item.Contents),
		)
	}
	return strings.Join(lines, "\n")
}
