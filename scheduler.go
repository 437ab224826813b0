package goegg

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Scheduler decides which rules are searched in a given iteration.
// SearchRewrite may be called concurrently for different rules of the same
// iteration; CanStopSaturated is called from the runner goroutine only.
type Scheduler interface {
	SearchRewrite(iteration int, eg *EGraph, rw *Rewrite) []SearchMatches
	CanStopSaturated(iteration int) bool
}

// SimpleScheduler searches every rule in every iteration.
type SimpleScheduler struct{}

func (SimpleScheduler) SearchRewrite(iteration int, eg *EGraph, rw *Rewrite) []SearchMatches {
	return rw.Search(eg)
}

func (SimpleScheduler) CanStopSaturated(iteration int) bool {
	return true
}

type ruleStats struct {
	timesApplied int
	bannedUntil  int
	timesBanned  uint
	matchLimit   int
	banLength    int
}

// BackoffScheduler bans a rule for a while when it matches more than its
// limit. Each ban doubles both the limit and the ban length of that rule.
type BackoffScheduler struct {
	lock       sync.Mutex
	matchLimit int
	banLength  int
	stats      map[string]*ruleStats
}

func NewBackoffScheduler() *BackoffScheduler {
	return &BackoffScheduler{
		matchLimit: 1000,
		banLength:  5,
		stats:      make(map[string]*ruleStats),
	}
}

func (s *BackoffScheduler) WithInitialMatchLimit(n int) *BackoffScheduler {
	s.matchLimit = n
	return s
}

func (s *BackoffScheduler) WithBanLength(n int) *BackoffScheduler {
	s.banLength = n
	return s
}

func (s *BackoffScheduler) ruleStats(name string) *ruleStats {
	st, ok := s.stats[name]
	if !ok {
		st = &ruleStats{matchLimit: s.matchLimit, banLength: s.banLength}
		s.stats[name] = st
	}
	return st
}

func (s *BackoffScheduler) SearchRewrite(iteration int, eg *EGraph, rw *Rewrite) []SearchMatches {
	s.lock.Lock()
	st := s.ruleStats(rw.Name)
	if iteration < st.bannedUntil {
		s.lock.Unlock()
		log.Debugf("rule %q is banned until iteration %d", rw.Name, st.bannedUntil)
		return nil
	}
	threshold := st.matchLimit << st.timesBanned
	s.lock.Unlock()

	matches := rw.Search(eg)
	total := 0
	for _, m := range matches {
		total += len(m.Substs)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if total > threshold {
		length := st.banLength << st.timesBanned
		st.timesBanned += 1
		st.bannedUntil = iteration + length
		log.Debugf("banning rule %q for %d iterations: %d matches over limit %d", rw.Name, length, total, threshold)
		return nil
	}
	st.timesApplied += 1
	return matches
}

// CanStopSaturated only allows stopping when no rule is banned. Otherwise it
// shortens every ban so the banned rules get another chance.
func (s *BackoffScheduler) CanStopSaturated(iteration int) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	minBan := -1
	for _, st := range s.stats {
		if st.bannedUntil > iteration {
			left := st.bannedUntil - iteration
			if minBan < 0 || left < minBan {
				minBan = left
			}
		}
	}
	if minBan < 0 {
		return true
	}
	for _, st := range s.stats {
		if st.bannedUntil > iteration {
			st.bannedUntil -= minBan
		}
	}
	return false
}
