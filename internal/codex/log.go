package codex

import (
	"sort"
	"sync"
	"time"

	"ForceField/internal/domain/models"
)

// Entry is one logged interpretation plus its lifecycle state. The
// interpretation itself never changes after append; only the state moves,
// and only forward to expired.
type Entry struct {
	Interpretation models.Interpretation
	State          models.InterpretationState
	LoggedAt       time.Time
}

// Log is the append-only codex of interpretations. Entries are never
// deleted: age past the TTL marks them expired and keeps them readable.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	byID    map[string]int
	ttl     time.Duration
}

// NewLog creates an empty codex with the given expiry TTL.
func NewLog(ttl time.Duration) *Log {
	return &Log{
		byID: make(map[string]int),
		ttl:  ttl,
	}
}

// Append logs a batch of interpretations. Interpretations already present
// (same deterministic id) are skipped, making repeated passes over the
// same snapshot version idempotent. Returns the number actually appended.
func (l *Log) Append(batch []models.Interpretation, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	appended := 0
	for _, in := range batch {
		if _, dup := l.byID[in.ID]; dup {
			continue
		}
		l.byID[in.ID] = len(l.entries)
		l.entries = append(l.entries, Entry{
			Interpretation: in,
			State:          models.StateLogged,
			LoggedAt:       now,
		})
		appended++
	}
	return appended
}

// MarkExpired transitions every logged entry older than the TTL to
// expired. Returns how many entries changed state this call.
func (l *Log) MarkExpired(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	expired := 0
	for i := range l.entries {
		e := &l.entries[i]
		if e.State != models.StateLogged {
			continue
		}
		if now.Sub(e.Interpretation.Timestamp) > l.ttl {
			e.State = models.StateExpired
			expired++
		}
	}
	return expired
}

// Get looks up a single entry by interpretation id.
func (l *Log) Get(id string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.byID[id]
	if !ok {
		return Entry{}, false
	}
	return l.entries[i], true
}

// List returns entries in append order. Expired entries are included only
// when asked for; they are never physically removed either way.
func (l *Log) List(includeExpired bool) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if e.State == models.StateExpired && !includeExpired {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Stats summarizes codex usage for reporting.
type Stats struct {
	Total   int                               `json:"total_interpretacoes"`
	Expired int                               `json:"expiradas"`
	ByType  map[models.InterpretationType]int `json:"por_tipo"`
	// TopTypes lists types by descending usage, ties broken by name.
	TopTypes []models.InterpretationType `json:"vocabulario_mais_usado"`
}

// Snapshot computes usage statistics over the whole codex, expired
// entries included.
func (l *Log) Snapshot() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Stats{ByType: make(map[models.InterpretationType]int)}
	for _, e := range l.entries {
		s.Total++
		if e.State == models.StateExpired {
			s.Expired++
		}
		s.ByType[e.Interpretation.Type]++
	}
	for t := range s.ByType {
		s.TopTypes = append(s.TopTypes, t)
	}
	sort.Slice(s.TopTypes, func(i, j int) bool {
		a, b := s.TopTypes[i], s.TopTypes[j]
		if s.ByType[a] != s.ByType[b] {
			return s.ByType[a] > s.ByType[b]
		}
		return a < b
	})
	return s
}
