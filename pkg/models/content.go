// Package models defines the wire-level data types shared by the actor
// runtime: messages, content blocks, tool calls, and the events the Agent
// and ActorWorker emit.
package models

// ContentKind identifies the shape of a Content block. Today only text is
// supported; the tag exists so new block kinds (image, file, ...) can be
// added without breaking existing switches, per the convention callers
// should already be using a default case that rejects unknown kinds.
type ContentKind string

const (
	ContentText ContentKind = "text"
)

// Content is a single tagged content block within a message.
type Content struct {
	Kind ContentKind `json:"kind"`
	Text string      `json:"text,omitempty"`
}

// TextContent builds a text content block.
func TextContent(text string) Content {
	return Content{Kind: ContentText, Text: text}
}

// JoinedText concatenates the text of every text block in order, separated
// by newlines. Non-text blocks are skipped.
func JoinedText(blocks []Content) string {
	if len(blocks) == 0 {
		return ""
	}
	out := ""
	for i, c := range blocks {
		if c.Kind != ContentText {
			continue
		}
		if i > 0 && out != "" {
			out += "\n"
		}
		out += c.Text
	}
	return out
}
