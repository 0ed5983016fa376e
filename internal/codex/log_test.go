package codex

import (
	"fmt"
	"testing"
	"time"

	"ForceField/internal/domain/models"
)

func interp(id string, tipo models.InterpretationType, ts time.Time) models.Interpretation {
	return models.Interpretation{
		ID:        id,
		Timestamp: ts,
		Type:      tipo,
		Intensity: 50,
	}
}

func TestLogAppendIdempotent(t *testing.T) {
	l := NewLog(time.Hour)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	batch := []models.Interpretation{
		interp("a", models.TypeMagneticZone, now),
		interp("b", models.TypeResonance, now),
	}

	if n := l.Append(batch, now); n != 2 {
		t.Fatalf("first append = %d, want 2", n)
	}
	if n := l.Append(batch, now); n != 0 {
		t.Fatalf("repeated append = %d, want 0", n)
	}
	if got := len(l.List(true)); got != 2 {
		t.Fatalf("len = %d, want 2", got)
	}
}

func TestLogExpiryMarksWithoutRemoving(t *testing.T) {
	l := NewLog(time.Hour)
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l.Append([]models.Interpretation{
		interp("old", models.TypeMagneticZone, t0),
		interp("new", models.TypeResonance, t0.Add(90*time.Minute)),
	}, t0.Add(90*time.Minute))

	if n := l.MarkExpired(t0.Add(2 * time.Hour)); n != 1 {
		t.Fatalf("expired %d entries, want 1", n)
	}
	// Second sweep has nothing left to transition.
	if n := l.MarkExpired(t0.Add(2 * time.Hour)); n != 0 {
		t.Fatalf("re-sweep expired %d, want 0", n)
	}

	e, ok := l.Get("old")
	if !ok {
		t.Fatalf("expired entry must remain readable")
	}
	if e.State != models.StateExpired {
		t.Fatalf("state = %s, want expired", e.State)
	}

	if got := len(l.List(false)); got != 1 {
		t.Fatalf("active list = %d, want 1", got)
	}
	if got := len(l.List(true)); got != 2 {
		t.Fatalf("full list = %d, want 2", got)
	}
}

func TestLogStats(t *testing.T) {
	l := NewLog(time.Hour)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var batch []models.Interpretation
	for i := 0; i < 3; i++ {
		batch = append(batch, interp(fmt.Sprintf("z%d", i), models.TypeMagneticZone, now))
	}
	batch = append(batch, interp("r0", models.TypeResonance, now))
	l.Append(batch, now)

	s := l.Snapshot()
	if s.Total != 4 {
		t.Fatalf("total = %d, want 4", s.Total)
	}
	if s.ByType[models.TypeMagneticZone] != 3 {
		t.Fatalf("zone count = %d, want 3", s.ByType[models.TypeMagneticZone])
	}
	if len(s.TopTypes) == 0 || s.TopTypes[0] != models.TypeMagneticZone {
		t.Fatalf("top type = %v, want campo_magnetico_ativo first", s.TopTypes)
	}
}

func TestLogConcurrentAppend(t *testing.T) {
	l := NewLog(time.Hour)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 50; i++ {
				l.Append([]models.Interpretation{
					interp(fmt.Sprintf("g%d-%d", g, i), models.TypeMagneticZone, now),
				}, now)
			}
		}(g)
	}
	for g := 0; g < 4; g++ {
		<-done
	}
	if got := len(l.List(true)); got != 200 {
		t.Fatalf("len = %d, want 200", got)
	}
}
