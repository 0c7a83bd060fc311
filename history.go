package aura

// HistoryLimit is the number of messages kept in the persisted window and
// sent to the completion endpoint.
const HistoryLimit = 10

// Window returns the most recent HistoryLimit messages of history.
// The returned slice never aliases history.
func Window(history []Message) []Message {
	return lastN(history, HistoryLimit)
}

// TruncateHistory truncates the conversation history based on token and message limits.
// It applies message limit first, then token limit, removing oldest messages as needed.
// A non-positive tokenLimit disables the token pass.
func TruncateHistory(history []Message, tokenLimit, messageLimit int) []Message {
	if len(history) == 0 {
		return []Message{}
	}

	out := lastN(history, messageLimit)
	if tokenLimit <= 0 {
		return out
	}

	total := 0
	for _, msg := range out {
		total += msg.TokenCount
	}
	for total > tokenLimit && len(out) > 0 {
		total -= out[0].TokenCount
		out = out[1:]
	}
	return out
}

// AppendMessage appends a new message with the given role and content and
// returns the updated history alongside the created message.
func AppendMessage(history []Message, role Role, content string) ([]Message, Message) {
	msg := NewMessage(role, content)
	return append(history, msg), msg
}

func lastN(history []Message, n int) []Message {
	if n < 0 {
		n = 0
	}
	start := 0
	if len(history) > n {
		start = len(history) - n
	}
	out := make([]Message, len(history)-start)
	copy(out, history[start:])
	return out
}
