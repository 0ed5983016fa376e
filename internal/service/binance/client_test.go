package binance

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseKline(t *testing.T) {
	raw := []byte(`[1709294400000, "45000.10", "45100.00", "44950.50", "45050.25", "321.5", 1709294459999]`)
	var k []interface{}
	if err := json.Unmarshal(raw, &k); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	p, err := parseKline(k)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.UnixMilli(1709294400000).UTC()
	if !p.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", p.Timestamp, want)
	}
	if p.Open != 45000.10 || p.High != 45100 || p.Low != 44950.50 || p.Close != 45050.25 || p.Volume != 321.5 {
		t.Fatalf("parsed point = %+v", p)
	}
}

func TestParseKlineRejectsShortRow(t *testing.T) {
	if _, err := parseKline([]interface{}{float64(1), "2", "3"}); err == nil {
		t.Fatalf("short kline must fail")
	}
}

func TestParseKlineRejectsBadNumber(t *testing.T) {
	k := []interface{}{float64(1709294400000), "45000", "oops", "44950", "45050", "321"}
	if _, err := parseKline(k); err == nil {
		t.Fatalf("non-numeric field must fail")
	}
}

func TestWSKlinePoint(t *testing.T) {
	k := wsKline{StartMS: 1709294400000, Open: "1", High: "2", Low: "0.5", Close: "1.5", Volume: "10", Closed: true}
	p, err := k.point()
	if err != nil {
		t.Fatalf("point: %v", err)
	}
	if p.Close != 1.5 || p.Volume != 10 {
		t.Fatalf("point = %+v", p)
	}
}
