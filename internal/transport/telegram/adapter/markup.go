package adapter

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	kit "orgbot/internal/transport"
)

const textLimit = 4000

// replyMarkup converts transport keyboards to telebot markup. Inline buttons
// win over a reply keyboard when both are set.
func replyMarkup(opt *kit.SendOptions) *tele.ReplyMarkup {
	if opt == nil {
		return nil
	}
	if len(opt.Inline) > 0 {
		rows := make([][]tele.InlineButton, 0, len(opt.Inline))
		for _, r := range opt.Inline {
			row := make([]tele.InlineButton, 0, len(r))
			for _, b := range r {
				row = append(row, tele.InlineButton{Text: b.Text, Data: b.Data})
			}
			rows = append(rows, row)
		}
		return &tele.ReplyMarkup{InlineKeyboard: rows}
	}
	kb := opt.Keyboard
	if kb == nil {
		return nil
	}
	if kb.Remove {
		return &tele.ReplyMarkup{RemoveKeyboard: true}
	}
	rows := make([][]tele.ReplyButton, 0, len(kb.Rows))
	for _, r := range kb.Rows {
		row := make([]tele.ReplyButton, 0, len(r))
		for _, label := range r {
			row = append(row, tele.ReplyButton{Text: label})
		}
		rows = append(rows, row)
	}
	return &tele.ReplyMarkup{
		ReplyKeyboard:   rows,
		ResizeKeyboard:  true,
		OneTimeKeyboard: kb.OneTime,
	}
}

// splitText cuts s into chunks of at most limit runes, preferring newline
// boundaries. It always returns at least one chunk.
func splitText(s string, limit int) []string {
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	var out []string
	start := 0
	for start < len(rs) {
		end := min(start+limit, len(rs))
		if end < len(rs) {
			for i := end - 1; i > start; i-- {
				if rs[i] == '\n' && i-start >= limit/3 {
					end = i + 1
					break
				}
			}
		}
		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))
		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}
