package scheduler

import (
	"fmt"
	"strings"
	"time"

	"orgbot/internal/domain"
)

// TestText is what a /test job delivers.
const TestText = "✅ Это тестовое уведомление!"

func EventText(ev domain.Event) string {
	return fmt.Sprintf("⏰ Напоминание: событие «%s» запланировано на %s.\n\nОписание события: «%s»",
		ev.Title, domain.FormatDate(ev.Date), ev.Description)
}

// BirthdayText announces m's birthday, daysLeft days away. The text is
// Markdown.
func BirthdayText(m domain.Member, birthday time.Time, daysLeft int) string {
	var lead string
	switch daysLeft {
	case 7:
		lead = "Через неделю"
	case 1:
		lead = "Завтра"
	case 0:
		lead = "Сегодня"
	default:
		lead = fmt.Sprintf("Через %d дн.", daysLeft)
	}
	return fmt.Sprintf("🎂 %s (%s) — день рождения *%s*! 🎉", lead, domain.FormatDate(birthday), escapeMarkdown(m.FullName))
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// escapeMarkdown makes s literal in a legacy Markdown message.
func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }
