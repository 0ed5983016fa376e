package models

import "time"

// PricePoint is a single OHLCV candle. Immutable once recorded.
type PricePoint struct {
	Timestamp time.Time `json:"time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// WindowRef identifies a contiguous sub-range of a snapshot version.
type WindowRef struct {
	Version uint64 `json:"version"`
	Start   int    `json:"start"`
	Length  int    `json:"length"`
}

// Window is a read-only view into a snapshot. Detectors receive windows,
// never a mutable handle on the underlying series.
type Window struct {
	Ref    WindowRef
	Points []PricePoint
}

// Closes extracts the close series of the window.
func (w Window) Closes() []float64 {
	out := make([]float64, len(w.Points))
	for i, p := range w.Points {
		out[i] = p.Close
	}
	return out
}

// PriceRange returns the min and max close of the window.
func (w Window) PriceRange() (low, high float64) {
	if len(w.Points) == 0 {
		return 0, 0
	}
	low, high = w.Points[0].Close, w.Points[0].Close
	for _, p := range w.Points[1:] {
		if p.Close < low {
			low = p.Close
		}
		if p.Close > high {
			high = p.Close
		}
	}
	return low, high
}

// LastTimestamp returns the timestamp of the final point, or zero time.
func (w Window) LastTimestamp() time.Time {
	if len(w.Points) == 0 {
		return time.Time{}
	}
	return w.Points[len(w.Points)-1].Timestamp
}
