package models

// ActorStatus is the ActorWorker's coarse status machine. Transitions are
// strictly idle→preparing→running→idle, with running→preparing allowed
// only as the effect of a preemptive abort.
type ActorStatus string

const (
	ActorIdle      ActorStatus = "idle"
	ActorPreparing ActorStatus = "preparing"
	ActorRunning   ActorStatus = "running"
)

// AgentState is the resumable state of one Agent run: the rendered system
// prompt, the messages accumulated so far, and the tool set available to
// the model. It is created at the start of a run and discarded on clean
// termination; ActorWorker decides whether to carry it across a preemptive
// abort.
type AgentState struct {
	SystemPrompt string
	Messages     []Message
	Tools        []Tool
}
