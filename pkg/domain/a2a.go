package domain

type PartKind string

const (
	PartKindText PartKind = "text"
	PartKindData PartKind = "data"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

type TaskState string

const (
	StateWorking   TaskState = "working"
	StateCompleted TaskState = "completed"
	StateFailed    TaskState = "failed"
)

// Terminal reports whether the state is a final outcome.
func (s TaskState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Part is one element of a message body. Exactly one of Text or Data is
// populated, according to Kind.
type Part struct {
	Kind PartKind `json:"kind"`
	Text string   `json:"text,omitempty"`
	Data []any    `json:"data,omitempty"`
}

func TextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
	// TaskID correlates a message with an existing task. When present on an
	// inbound message it becomes the task id of the result.
	TaskID string `json:"taskId,omitempty"`
}

// AgentMessage builds the agent-authored reply carried on task statuses and
// in task history.
func AgentMessage(taskID, text string) Message {
	return Message{Role: RoleAgent, Parts: []Part{TextPart(text)}, TaskID: taskID}
}

// TaskStatus describes where a task is in its lifecycle. Working statuses
// never carry a message; completed and failed statuses always do.
type TaskStatus struct {
	State   TaskState `json:"state"`
	Message *Message  `json:"message,omitempty"`
}

type Artifact struct {
	Name  string `json:"name"`
	Parts []Part `json:"parts"`
}

const (
	ArtifactSummary        = "summary"
	ArtifactFullTranscript = "full_transcript"
)

// TaskResult is the outcome envelope of one pipeline invocation. It is
// immutable after construction and never persisted beyond the response or
// webhook delivery.
type TaskResult struct {
	ID        string     `json:"id"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	History   []Message  `json:"history,omitempty"`
}

type PushNotificationConfig struct {
	URL   string `json:"url"`
	Token string `json:"token,omitempty"`
}

// MessageSendConfiguration selects the execution mode. Non-blocking delivery
// requires Blocking=false and a present PushNotificationConfig; any other
// combination falls back to blocking behavior.
type MessageSendConfiguration struct {
	Blocking               bool                    `json:"blocking"`
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig,omitempty"`
}

func (c MessageSendConfiguration) NonBlocking() bool {
	return !c.Blocking && c.PushNotificationConfig != nil && c.PushNotificationConfig.URL != ""
}

type MessageSendParams struct {
	Message       Message                   `json:"message"`
	Configuration *MessageSendConfiguration `json:"configuration,omitempty"`
}
