package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ForceField/internal/domain/models"
	drepo "ForceField/internal/domain/repository"
	"ForceField/pkg/logger"
)

// Stream implements a MarketStream over the Binance kline WebSocket.
// Only closed candles are emitted: an open candle mutates until close
// and would break snapshot immutability downstream.
type Stream struct {
	websocketURL   string
	symbol         string
	interval       string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	l              *logger.Logger

	// mu guards conn and connected: Reconnect and Close run on the
	// collector goroutine while the read and ping loops dereference conn.
	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// NewStream creates a kline MarketStream for one symbol.
func NewStream(websocketURL, symbol, interval string, reconnectDelay, pingInterval time.Duration, l *logger.Logger) drepo.MarketStream {
	if l == nil {
		l = logger.Nop()
	}
	return &Stream{
		websocketURL:   websocketURL,
		symbol:         symbol,
		interval:       interval,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		l:              l,
	}
}

func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	s.l.Info("binance stream connected", logger.String("url", s.websocketURL))
	return nil
}

// current returns the active connection, or nil.
func (s *Stream) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Stream) Subscribe(ctx context.Context) error {
	conn := s.current()
	if conn == nil {
		return fmt.Errorf("binance not connected")
	}
	stream := fmt.Sprintf("%s@kline_%s", strings.ToLower(s.symbol), s.interval)
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": []string{stream},
		"id":     1,
	}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe %s: %w", stream, err)
	}
	s.l.Info("binance stream subscribed", logger.String("stream", stream))
	return nil
}

type wsKline struct {
	StartMS int64  `json:"t"`
	Open    string `json:"o"`
	High    string `json:"h"`
	Low     string `json:"l"`
	Close   string `json:"c"`
	Volume  string `json:"v"`
	Closed  bool   `json:"x"`
}

type wsMessage struct {
	Event string  `json:"e"`
	Kline wsKline `json:"k"`
}

// Read streams closed candles and errors off the connection active at
// call time. Both channels close when the read loop ends; the caller
// reconnects and calls Read again for fresh channels. The ping loop is
// bound to the same connection and stops with the read loop.
func (s *Stream) Read(ctx context.Context) (<-chan models.PricePoint, <-chan error) {
	points := make(chan models.PricePoint, 256)
	errs := make(chan error, 1)
	done := make(chan struct{})
	conn := s.current()

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(points)
		defer close(errs)
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if conn == nil {
					errs <- fmt.Errorf("binance conn nil")
					return
				}
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-kline frames
					continue
				}
				if m.Event != "kline" || !m.Kline.Closed {
					continue
				}
				p, err := m.Kline.point()
				if err != nil {
					s.l.Warn("binance kline parse error", logger.Error(err))
					continue
				}
				select {
				case points <- p:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return points, errs
}

func (k wsKline) point() (models.PricePoint, error) {
	vals := make([]float64, 5)
	for i, f := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return models.PricePoint{}, fmt.Errorf("kline field %d: %w", i, err)
		}
		vals[i] = v
	}
	return models.PricePoint{
		Timestamp: time.UnixMilli(k.StartMS).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}

func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

func (s *Stream) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
