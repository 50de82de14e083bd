package update

import (
	"fmt"
	"strings"
)

// Фиксированные пользовательские сообщения терминальных исходов.
const (
	MsgNoMessages      = "No messages found in the specified time period."
	MsgAccessError     = "Could not access the channel. Make sure I have access to it."
	MsgSummarizeFailed = "Sorry, I couldn't summarize the messages this time. Please try again later."
	MsgRequestFailed   = "Error processing update request. Please try again later."
	MsgUsageCommand    = "Make sure to use the correct format: `/updateme [days] [#channel]`"
	MsgUsageDM         = "Please use the format: `7 #channel-name` or just `7` for DM updates"
	MsgNoMonitored     = "No monitored channels configured."
)

// FormatProgress строит уведомление о начале выборки.
func FormatProgress(displayRef string, days int) string {
	return fmt.Sprintf("Fetching updates from %s for the last %d days...", displayRef, days)
}

// FormatDigest строит итоговое сообщение с дайджестом.
func FormatDigest(displayRef string, days int, digest string) string {
	return fmt.Sprintf("Updates from %s (last %d days):\n%s", displayRef, days, strings.TrimSpace(digest))
}
