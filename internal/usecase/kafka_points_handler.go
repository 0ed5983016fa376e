package usecase

import (
	"context"
	"encoding/json"
	"time"

	"ForceField/internal/domain/models"
	drepo "ForceField/internal/domain/repository"
	pkgkafka "ForceField/pkg/kafka"
	"ForceField/pkg/logger"
)

// KafkaPointsHandler consumes candle messages off Kafka and feeds them
// into the ingest path, so a deployment can run detached from the live
// WebSocket and replay points from a broker instead.
type KafkaPointsHandler struct {
	topic   string
	ingest  *IngestUseCase
	pass    *DetectionPassUseCase
	metrics drepo.Metrics
	l       *logger.Logger
}

func NewKafkaPointsHandler(topic string, ingest *IngestUseCase, pass *DetectionPassUseCase, metrics drepo.Metrics, l *logger.Logger) *KafkaPointsHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &KafkaPointsHandler{topic: topic, ingest: ingest, pass: pass, metrics: metrics, l: l}
}

func (h *KafkaPointsHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, t, o, h, l, c, v}, t in ms
func (h *KafkaPointsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		O      float64 `json:"o"`
		H      float64 `json:"h"`
		L      float64 `json:"l"`
		C      float64 `json:"c"`
		V      float64 `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}

	p := models.PricePoint{
		Timestamp: time.UnixMilli(m.T).UTC(),
		Open:      m.O,
		High:      m.H,
		Low:       m.L,
		Close:     m.C,
		Volume:    m.V,
	}
	if h.metrics != nil {
		h.metrics.RecordLastPrice(m.Symbol, p.Close)
	}

	version, _, err := h.ingest.Ingest(ctx, []models.PricePoint{p})
	if err != nil {
		return err
	}
	if h.pass != nil {
		if _, err := h.pass.Run(ctx, version); err != nil {
			h.l.Error("detection pass failed",
				logger.Uint64("version", version),
				logger.Error(err),
			)
		}
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaPointsHandler)(nil)
