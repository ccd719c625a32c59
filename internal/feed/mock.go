package feed

import (
	"context"
	"time"

	"github.com/r464r64r/FractalTrader-sub001/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars []model.Bar
	Err  error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _, _ string, limit int) ([]model.Bar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		if len(m.Bars) > limit {
			return m.Bars[len(m.Bars)-limit:], nil
		}
		return m.Bars, nil
	}
	return GenerateBars(100, limit), nil
}

// GenerateBars builds a deterministic drifting series around basePrice,
// one hour apart, ending now.
func GenerateBars(basePrice float64, count int) []model.Bar {
	bars := make([]model.Bar, count)
	start := time.Now().UTC().Truncate(time.Hour).Add(-time.Duration(count) * time.Hour)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
