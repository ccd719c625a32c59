package model

import (
	"errors"
	"testing"
	"time"
)

func validBar(offset int) Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return Bar{
		Time: start.Add(time.Duration(offset) * time.Hour),
		Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000,
	}
}

func TestValidateBar(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Bar)
		ok     bool
	}{
		{"valid", func(b *Bar) {}, true},
		{"zero volume ok", func(b *Bar) { b.Volume = 0 }, true},
		{"zero time", func(b *Bar) { b.Time = time.Time{} }, false},
		{"zero open", func(b *Bar) { b.Open = 0 }, false},
		{"negative close", func(b *Bar) { b.Close = -1 }, false},
		{"high below low", func(b *Bar) { b.High, b.Low = 99, 101 }, false},
		{"close above high", func(b *Bar) { b.Close = 102 }, false},
		{"open below low", func(b *Bar) { b.Open = 98 }, false},
		{"negative volume", func(b *Bar) { b.Volume = -1 }, false},
	}
	for _, tt := range tests {
		b := validBar(0)
		tt.mutate(&b)
		err := ValidateBar(b)
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && !errors.Is(err, ErrInput) {
			t.Errorf("%s: want ErrInput, got %v", tt.name, err)
		}
	}
}

func TestValidateSeries(t *testing.T) {
	if err := ValidateSeries(nil); !errors.Is(err, ErrInput) {
		t.Errorf("empty series: want ErrInput, got %v", err)
	}

	good := []Bar{validBar(0), validBar(1), validBar(2)}
	if err := ValidateSeries(good); err != nil {
		t.Errorf("valid series rejected: %v", err)
	}

	dup := []Bar{validBar(0), validBar(1), validBar(1)}
	if err := ValidateSeries(dup); !errors.Is(err, ErrInput) {
		t.Errorf("duplicate timestamp: want ErrInput, got %v", err)
	}

	back := []Bar{validBar(2), validBar(1)}
	if err := ValidateSeries(back); !errors.Is(err, ErrInput) {
		t.Errorf("backwards timestamps: want ErrInput, got %v", err)
	}
}

func TestDirection(t *testing.T) {
	if Long.String() != "LONG" || Short.String() != "SHORT" {
		t.Errorf("direction strings: %s %s", Long, Short)
	}
	if Long.Opposite() != Short || Short.Opposite() != Long {
		t.Error("Opposite not symmetric")
	}
}

func TestSignalRiskReward(t *testing.T) {
	sig := &Signal{EntryPrice: 100, StopLoss: 95, TakeProfit: 110}
	if rr := sig.RiskReward(); rr != 2 {
		t.Errorf("RR = %v, want 2", rr)
	}
	flat := &Signal{EntryPrice: 100, StopLoss: 100, TakeProfit: 110}
	if rr := flat.RiskReward(); rr != 0 {
		t.Errorf("zero stop distance RR = %v, want 0", rr)
	}
}

func TestOrderBlockDistance(t *testing.T) {
	ob := &OrderBlock{High: 101, Low: 99}
	if d := ob.Distance(100); d != 0 {
		t.Errorf("inside distance = %v, want 0", d)
	}
	if d := ob.Distance(103); d != 2 {
		t.Errorf("above distance = %v, want 2", d)
	}
	if d := ob.Distance(95); d != 4 {
		t.Errorf("below distance = %v, want 4", d)
	}
}
