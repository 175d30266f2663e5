package bot

import (
	"sync"
	"time"
)

type flow int

const (
	flowNone flow = iota
	flowRegister
	flowEvent
)

type step int

const (
	stepRegName step = iota + 1
	stepRegPosition
	stepRegBirth

	stepEvtTitle
	stepEvtDesc
	stepEvtInterval
	stepEvtDate
	stepEvtRecipients
)

// session is the wizard state of one chat.
type session struct {
	flow flow
	step step

	fullName string
	position string

	title      string
	desc       string
	interval   int
	date       time.Time
	byName     map[string][]int64
	recipients []int64
	picked     map[string]bool

	touched time.Time
}

func (s *session) reset() { *s = session{touched: s.touched} }

func (s *session) active() bool { return s.flow != flowNone }

// sessions keeps wizard state per chat. Idle sessions older than ttl start
// over.
type sessions struct {
	mu  sync.Mutex
	m   map[int64]*session
	ttl time.Duration
	now func() time.Time
}

func newSessions(ttl time.Duration, now func() time.Time) *sessions {
	return &sessions{m: map[int64]*session{}, ttl: ttl, now: now}
}

func (ss *sessions) get(chat int64) *session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	now := ss.now()
	s, ok := ss.m[chat]
	if !ok {
		s = &session{}
		ss.m[chat] = s
	} else if ss.ttl > 0 && s.active() && now.Sub(s.touched) > ss.ttl {
		s.reset()
	}
	s.touched = now
	return s
}

// sweep drops idle sessions and returns how many were removed.
func (ss *sessions) sweep() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	now := ss.now()
	n := 0
	for k, s := range ss.m {
		if now.Sub(s.touched) > ss.ttl {
			delete(ss.m, k)
			n++
		}
	}
	return n
}
