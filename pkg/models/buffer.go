package models

import "time"

// BufferKind tags who produced a BufferMessage.
type BufferKind string

const (
	BufferUser  BufferKind = "user"
	BufferActor BufferKind = "actor"
)

// BufferMessage is an externalized, attributed record of one turn, used to
// render a short history window into the next run's system prompt via
// {MEMORY_BUFFER} substitution. It outlives any single AgentState.
type BufferMessage struct {
	Kind     BufferKind `json:"kind"`
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Contents []Content  `json:"contents"`
	Time     time.Time  `json:"time"`
}

// ToUserMessage converts a buffer item back into a UserMessage for seeding
// (or resuming) an AgentState. Only user-kind items are meant to re-enter
// the conversation this way.
func (b BufferMessage) ToUserMessage() UserMessage {
	return UserMessage{Contents: b.Contents}
}
