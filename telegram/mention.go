package telegram

import (
	"fmt"
	"html"
)

// Mention renders an HTML mention that pings the user even without a
// public username.
func Mention(userID int64, name string) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, userID, html.EscapeString(name))
}
