package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"orgbot/internal/domain"
	logx "orgbot/pkg/logx"
)

var msk = time.FixedZone("UTC+3", 3*3600)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, msk) }

func setupStore(t *testing.T) Store {
	t.Helper()
	st, err := Open(Config{Path: ":memory:", Location: msk}, logx.Nop())
	require.NoError(t, err, "open in-memory store")
	t.Cleanup(func() { require.NoError(t, st.Close()) })
	return st
}

func addMember(t *testing.T, st Store, handle int64, name string) domain.Member {
	t.Helper()
	m, err := st.CreateMember(context.Background(), domain.Member{
		Handle:    handle,
		FullName:  name,
		Position:  "доцент",
		BirthDate: day(1990, time.January, 10),
	})
	require.NoError(t, err)
	return m
}

func TestMemberCRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := setupStore(t)

	m := addMember(t, st, 1001, "Иванов Иван")
	require.NotZero(t, m.ID)
	require.Equal(t, "Иванов Иван", m.FullName)
	require.True(t, m.BirthDate.Equal(day(1990, time.January, 10)), "birth date %v", m.BirthDate)
	require.False(t, m.IsAdmin)

	got, err := st.GetMemberByHandle(ctx, 1001)
	require.NoError(t, err)
	require.Equal(t, m.ID, got.ID)

	_, err = st.CreateMember(ctx, domain.Member{Handle: 1001, FullName: "dup", Position: "доцент", BirthDate: day(1990, 1, 1)})
	require.ErrorIs(t, err, ErrConflict)

	require.NoError(t, st.SetAdmin(ctx, m.ID, true))
	got, err = st.GetMember(ctx, m.ID)
	require.NoError(t, err)
	require.True(t, got.IsAdmin)

	require.ErrorIs(t, st.SetAdmin(ctx, 999, true), ErrNotFound)
	_, err = st.GetMember(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateEventWithRecipients(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := setupStore(t)

	creator := addMember(t, st, 1, "Создатель")
	a := addMember(t, st, 2, "Алиса")
	b := addMember(t, st, 3, "Борис")

	ev, err := st.CreateEvent(ctx, domain.EventInput{
		Title:        "Заседание кафедры",
		Description:  "Ауд. 301",
		Date:         day(2025, time.August, 1),
		CreatorID:    creator.ID,
		IntervalDays: 7,
		RecipientIDs: []int64{b.ID, a.ID, a.ID},
	})
	require.NoError(t, err)
	require.Equal(t, "Заседание кафедры", ev.Title)
	require.Equal(t, "Создатель", ev.CreatorName)
	require.Equal(t, 7, ev.Reminder.IntervalDays)
	require.True(t, ev.Date.Equal(day(2025, time.August, 1)))
	require.Len(t, ev.Recipients, 2)
	require.Equal(t, a.ID, ev.Recipients[0].ID)

	_, ok := ev.HasRecipient(b.ID)
	require.True(t, ok)
}

func TestCreateEventUnknownRecipientRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := setupStore(t)

	creator := addMember(t, st, 1, "Создатель")
	_, err := st.CreateEvent(ctx, domain.EventInput{
		Title: "x", Date: day(2025, 8, 1), CreatorID: creator.ID, IntervalDays: 1,
		RecipientIDs: []int64{42},
	})
	require.ErrorIs(t, err, ErrNotFound)

	evs, err := st.ListEvents(ctx)
	require.NoError(t, err)
	require.Empty(t, evs)
}

func TestCreateEventRejectsBadInterval(t *testing.T) {
	t.Parallel()
	st := setupStore(t)
	creator := addMember(t, st, 1, "Создатель")

	_, err := st.CreateEvent(context.Background(), domain.EventInput{
		Title: "x", Date: day(2025, 8, 1), CreatorID: creator.ID, IntervalDays: 0,
	})
	require.Error(t, err)
}

func TestListUpcomingAndByCreator(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := setupStore(t)

	c1 := addMember(t, st, 1, "Первый")
	c2 := addMember(t, st, 2, "Второй")
	mk := func(title string, d time.Time, creator int64) {
		_, err := st.CreateEvent(ctx, domain.EventInput{Title: title, Date: d, CreatorID: creator, IntervalDays: 1})
		require.NoError(t, err)
	}
	mk("past", day(2025, 7, 1), c1.ID)
	mk("today", day(2025, 7, 10), c2.ID)
	mk("later", day(2025, 9, 1), c1.ID)

	up, err := st.ListUpcomingEvents(ctx, day(2025, 7, 10))
	require.NoError(t, err)
	require.Len(t, up, 2)
	require.Equal(t, "today", up[0].Title)
	require.Equal(t, "later", up[1].Title)

	mine, err := st.ListEventsByCreator(ctx, c1.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, "past", mine[0].Title)
}

func TestDeleteCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := setupStore(t)

	creator := addMember(t, st, 1, "Создатель")
	other := addMember(t, st, 2, "Другой")

	e1, err := st.CreateEvent(ctx, domain.EventInput{Title: "one", Date: day(2025, 8, 1), CreatorID: creator.ID, IntervalDays: 3, RecipientIDs: []int64{other.ID}})
	require.NoError(t, err)
	e2, err := st.CreateEvent(ctx, domain.EventInput{Title: "two", Date: day(2025, 8, 2), CreatorID: creator.ID, IntervalDays: 3})
	require.NoError(t, err)
	e3, err := st.CreateEvent(ctx, domain.EventInput{Title: "three", Date: day(2025, 8, 3), CreatorID: other.ID, IntervalDays: 3, RecipientIDs: []int64{creator.ID}})
	require.NoError(t, err)

	ids, err := st.DeleteMember(ctx, creator.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{e1.ID, e2.ID}, ids)

	_, err = st.GetEvent(ctx, e1.ID)
	require.ErrorIs(t, err, ErrNotFound)

	left, err := st.GetEvent(ctx, e3.ID)
	require.NoError(t, err)
	require.Empty(t, left.Recipients, "deleted member must leave recipient lists")

	require.NoError(t, st.DeleteEvent(ctx, e3.ID))
	require.ErrorIs(t, st.DeleteEvent(ctx, e3.ID), ErrNotFound)

	_, err = st.DeleteMember(ctx, creator.ID)
	require.True(t, errors.Is(err, ErrNotFound), "err = %v", err)
}

func TestPing(t *testing.T) {
	t.Parallel()
	st := setupStore(t)
	require.NoError(t, st.Ping(context.Background()))
}
