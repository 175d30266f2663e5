package bot

import (
	"fmt"
	"slices"
	"strings"

	"orgbot/internal/domain"
	kit "orgbot/internal/transport"
)

// Reply keyboard buttons.
const (
	btnMenu         = "Меню"
	btnRegister     = "Регистрация"
	btnEvents       = "События"
	btnManageEvents = "Управление событиями"
	btnCreateEvent  = "Создать событие"
	btnHelp         = "Справка"
	btnAdminPanel   = "Панель администратора"
	btnDone         = "Готово"
)

// Callback data. Ids are appended to the prefixed values.
const (
	cbManageUsers      = "manage_users"
	cbManageEventsAdm  = "manage_events_admin"
	cbPromotePrefix    = "promote_"
	cbDeleteUserPrefix = "delete_user_"
	cbDeleteOwnPrefix  = "delete_evt_"
	cbAdminDelPrefix   = "admin_delete_evt_"
)

const (
	textChooseAction  = "Выберите действие:"
	textNotRegistered = "❌ Вы не зарегистрированы в БД."
	textAdminOnly     = "⛔ Доступно только администраторам."
	textUnknown       = "Не понимаю. Нажмите «Меню» или /start."

	textAskName        = "Введите ваше ФИО:"
	textAskPosition    = "Выберите должность:"
	textBadPosition    = "Пожалуйста, выберите должность с клавиатуры."
	textAskBirth       = "Введите дату рождения DD.MM.YYYY:"
	textBadBirth       = "Неверный формат. Пример: 01.08.2004"
	textImpossibleDate = "Такой даты рождения быть не может. Попробуйте ещё раз:"
	textRegistered     = "🎉 Вы успешно зарегистрированы! 🎉"
	textBdayNoRemind   = "⚠️ Напоминание о вашем дне рождения запланировать не удалось. Сообщите администратору."
	textAlreadyMember  = "Вы уже зарегистрированы."
	textRegCancelled   = "Регистрация отменена."
	textEvtCancelled   = "Создание события отменено."

	textAskTitle       = "Введите название события:"
	textAskDesc        = "Введите описание события:"
	textAskInterval    = "Выберите периодичность напоминаний:"
	textBadInterval    = "Пожалуйста, выберите вариант с клавиатуры."
	textAskEventDate   = "Введите дату события DD.MM.YYYY:"
	textBadEventDate   = "Неверный формат. Пример: 01.08.2025"
	textPastEventDate  = "Дата события не может быть раньше сегодняшней. Попробуйте ещё раз:"
	textAskRecipients  = "Выберите пользователей для уведомлений (можно несколько). Нажмите «Готово» для завершения:"
	textBadRecipient   = "Пожалуйста, выберите пользователя с клавиатуры."
	textEmptyField     = "Значение не может быть пустым. Попробуйте ещё раз:"
	textEventSaved     = "✅ Событие и получатели сохранены!"
	textEventNoRemind  = "⚠️ Событие сохранено, но напоминания запланировать не удалось. Удалите событие и создайте его заново или сообщите администратору."
	textNoOwnEvents    = "У вас ещё нет событий."
	textOwnEventsHead  = "Ваши события:"
	textEventDeleted   = "Событие удалено."
	textNoEvents       = "Событий пока нет."
	textEventsHead     = "📋 Список событий:\n\n"
	textAdminPanel     = "🔧 Панель администратора:"
	textUsersHead      = "👥 Список пользователей:\n\n"
	textNoUsers        = "Пользователей пока нет."
	textUserNotFound   = "⚠️ Пользователь не найден."
	textAllEventsHead  = "🗓 Все события:"
	textEventNotFound  = "⚠️ Событие не найдено."
	textTestScheduled  = "Тестовое напоминание запланировано через 1 минуту."
	textTestMe         = "✅ Если вы это видите — ваш бот умеет слать сообщения!"
	textTestBdaySent   = "Тестовое поздравление отправлено вам!"
	textSomethingWrong = "⚠️ Что-то пошло не так. Попробуйте позже."
)

func mainMenu(isAdmin bool) *kit.Keyboard {
	rows := [][]string{
		{btnEvents, btnManageEvents},
		{btnCreateEvent, btnHelp},
		{btnMenu},
	}
	if isAdmin {
		rows = slices.Insert(rows, 1, []string{btnAdminPanel})
	}
	return &kit.Keyboard{Rows: rows}
}

func regMenu() *kit.Keyboard {
	return &kit.Keyboard{Rows: [][]string{
		{btnRegister, btnEvents},
		{btnCreateEvent, btnHelp},
		{btnMenu},
	}}
}

// menuFor picks the keyboard matching the sender's registration state.
func menuFor(m *domain.Member) *kit.Keyboard {
	if m == nil {
		return regMenu()
	}
	return mainMenu(m.IsAdmin)
}

func removeKeyboard() *kit.Keyboard { return &kit.Keyboard{Remove: true} }

func columnKeyboard(items []string, oneTime bool, extra ...string) *kit.Keyboard {
	rows := make([][]string, 0, len(items)+len(extra))
	for _, it := range items {
		rows = append(rows, []string{it})
	}
	for _, it := range extra {
		rows = append(rows, []string{it})
	}
	return &kit.Keyboard{Rows: rows, OneTime: oneTime}
}

func positionsKeyboard() *kit.Keyboard { return columnKeyboard(domain.Positions, true) }

func intervalKeyboard() *kit.Keyboard {
	labels := make([]string, 0, len(domain.IntervalOptions))
	for _, o := range domain.IntervalOptions {
		labels = append(labels, o.Label)
	}
	return columnKeyboard(labels, true)
}

func welcomeText(m domain.Member) string {
	var b strings.Builder
	fmt.Fprintf(&b, "С возвращением, %s!\n🆔 %d\n", m.FullName, m.ID)
	if m.IsAdmin {
		b.WriteString("🛡 Администратор\n")
	}
	fmt.Fprintf(&b, "🎓 %s\n🎂 %s", m.Position, domain.FormatDate(m.BirthDate))
	return b.String()
}

func profileText(m domain.Member) string {
	return fmt.Sprintf("🆔 %d\n%s\n🎓 %s\n🎂 %s", m.ID, m.FullName, m.Position, domain.FormatDate(m.BirthDate))
}

func helpText(reminderTime string) string {
	return "❓ *Справка по боту*\n\n" +
		"🔹 *Регистрация* — запишите свои ФИО, должность и дату рождения.\n" +
		"🔹 *События* — просмотреть список всех запланированных событий.\n" +
		"🔹 *Создать событие* — задать своё мероприятие, выбрать участников и частоту напоминаний.\n" +
		"🔹 *Управление событиями* — посмотреть и удалить только свои события.\n" +
		"🔹 *Дни рождения* — бот автоматически напомнит всем о ваших днях рождения за неделю.\n\n" +
		"Напоминания приходят в " + reminderTime + " МСК по выбранному графику.\n" +
		"Если есть вопросы или предложения — пишите администратору."
}

func eventsListText(evs []domain.Event) string {
	lines := make([]string, 0, len(evs))
	for i, ev := range evs {
		lines = append(lines, fmt.Sprintf("%d. «%s»\n   Дата: %s\n   Создатель: %s",
			i+1, ev.Title, domain.FormatDate(ev.Date), ev.CreatorName))
	}
	return textEventsHead + strings.Join(lines, "\n\n")
}

func usersListText(ms []domain.Member) string {
	var b strings.Builder
	b.WriteString(textUsersHead)
	for _, m := range ms {
		role := m.Position
		if m.IsAdmin {
			role = "АДМИН"
		}
		fmt.Fprintf(&b, "• %d: %s  (%s)\n", m.ID, m.FullName, role)
	}
	return b.String()
}
