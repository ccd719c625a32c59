package recorder

import "github.com/r464r64r/FractalTrader-sub001/internal/model"

// NoopRecorder is used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(_ *model.Signal) error  { return nil }
func (n *NoopRecorder) RecordSweep(_ *SweepRecord) error    { return nil }
func (n *NoopRecorder) RecordZoneEvent(_ *ZoneEvent) error  { return nil }
func (n *NoopRecorder) Close() error                        { return nil }
