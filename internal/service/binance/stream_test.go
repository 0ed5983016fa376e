package binance

import (
	"context"
	"sync"
	"testing"
	"time"

	"ForceField/pkg/logger"
)

func testStream() *Stream {
	return NewStream("ws://localhost:0", "BTCUSDT", "1m", time.Millisecond, time.Hour, logger.Nop()).(*Stream)
}

func TestStreamReadWithoutConnection(t *testing.T) {
	s := testStream()
	pts, errs := s.Read(context.Background())
	if err := <-errs; err == nil {
		t.Fatalf("expected an error reading without a connection")
	}
	if _, ok := <-pts; ok {
		t.Fatalf("points channel must close when the read loop ends")
	}
	if _, ok := <-errs; ok {
		t.Fatalf("error channel must close when the read loop ends")
	}
}

func TestStreamCloseIsConcurrencySafe(t *testing.T) {
	s := testStream()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Close()
			_ = s.IsConnected()
		}()
	}
	wg.Wait()
	if s.IsConnected() {
		t.Fatalf("closed stream reports connected")
	}
}
