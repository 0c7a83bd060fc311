package chat

import (
	"fmt"

	"github.com/creastat/aura"
)

// BiblicalSystemPrompt is the fixed system instruction sent with every turn.
const BiblicalSystemPrompt = `You are Bible Aura, a warm and knowledgeable biblical assistant.
Answer questions about scripture, theology, prayer and Christian living.
Ground your answers in the Bible and cite chapter and verse (for example "John 3:16") when you quote or refer to a passage.
When interpretations differ between traditions, say so briefly and present the main views fairly.
Be pastoral and encouraging, keep answers focused, and do not invent verses.`

// FallbackMessage is appended in place of a reply when the completion endpoint fails.
const FallbackMessage = "I apologize, but I'm experiencing some difficulty connecting to provide biblical insights. " +
	"This could be due to:\n\n" +
	"• Network connectivity issues\n" +
	"• AI service temporarily unavailable\n" +
	"• Rate limiting\n\n" +
	"Please try again in a moment. In the meantime, you can reflect on your question, " +
	"and I'll be ready to provide biblical wisdom when the connection is restored.\n\n" +
	`"Be still, and know that I am God" - Psalm 46:10`

// WaitNotice tells a rate limited user how long to wait.
func WaitNotice(minutes int) string {
	if minutes < 1 {
		minutes = 1
	}
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("Please wait %d %s before sending another message.", minutes, unit)
}

// LongConversationNotice tells the user that only the recent window is kept.
func LongConversationNotice(total int) string {
	return fmt.Sprintf("Keeping last %d messages for optimal performance. Your current session shows all %d messages.", aura.HistoryLimit, total)
}

// longConversation reports whether a session of the given length should carry the notice.
func longConversation(total int) bool {
	return total > aura.HistoryLimit && total%5 == 0
}
