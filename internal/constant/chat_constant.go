package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	// Conversation titles are cut from the first message.
	ConversationTitleMaxLength = 50
	ConversationTitleEllipsis  = "..."

	SessionMinHours = 1
	SessionMaxHours = 4
)

// Websocket message types for the usage stream.
const (
	WsMessageTypeUsage = "usage"
	WsMessageTypePing  = "ping"
	WsMessageTypePong  = "pong"
)

// Redis pub/sub channel the usage stream fans out on.
const UsageEventsChannel = "usage_events"
