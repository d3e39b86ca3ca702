// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync/atomic"
	"time"

	"emperror.dev/emperror"
	"github.com/xmidt-org/edgestream/config"
	"github.com/xmidt-org/edgestream/stream"
	"go.uber.org/zap"
)

// MaxRecordSize is the longest line a record may occupy.
const MaxRecordSize = 4 * 1024 * 1024

// Summary totals what a run saw.
type Summary struct {
	Accepted int
	Rejected int
	Batches  int
}

// Ingester validates newline delimited json records in batches.
type Ingester struct {
	builder      stream.Builder
	logger       *zap.Logger
	batchSize    int
	maxBatchTime time.Duration
	progress     time.Duration
	out          io.Writer
	now          func() time.Time

	accepted atomic.Int64
	rejected atomic.Int64
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithOutput writes every accepted record, with its defaults filled in, as one json line to w.
func WithOutput(w io.Writer) Option {
	return func(i *Ingester) {
		i.out = w
	}
}

// WithClock is used to time batches.
func WithClock(now func() time.Time) Option {
	return func(i *Ingester) {
		if now != nil {
			i.now = now
		}
	}
}

// New sizes batches from the edge configuration. Batches slower than
// MaxProcessingTime are reported, and totals are logged every HealthCheckInterval.
func New(b stream.Builder, logger *zap.Logger, edge config.Edge, opts ...Option) *Ingester {
	i := &Ingester{
		builder:      b,
		logger:       logger.With(zap.String("node_id", edge.NodeID)),
		batchSize:    edge.BatchSize,
		maxBatchTime: edge.MaxProcessingDuration(),
		progress:     edge.HealthCheckPeriod(),
		now:          time.Now,
	}
	if i.batchSize < 1 {
		i.batchSize = 1
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

type line struct {
	number int
	data   []byte
}

// Run reads r until EOF or until ctx is canceled. Rejected records are logged and
// counted; only read and write failures end the run early.
func (i *Ingester) Run(ctx context.Context, r io.Reader) (Summary, error) {
	stop := i.reportProgress(ctx)
	defer stop()

	var (
		s       Summary
		batch   = make([]line, 0, i.batchSize)
		number  int
		scanner = bufio.NewScanner(r)
	)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxRecordSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		s.Batches++
		err := i.processBatch(s.Batches, batch, &s)
		batch = batch[:0]
		return err
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return s, err
		}

		number++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		batch = append(batch, line{number: number, data: bytes.Clone(data)})
		if len(batch) >= i.batchSize {
			if err := flush(); err != nil {
				return s, err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return s, emperror.WrapWith(err, "failed to read records", "line", number+1)
	}

	if err := flush(); err != nil {
		return s, err
	}

	i.logger.Info("ingest finished",
		zap.Int("accepted", s.Accepted),
		zap.Int("rejected", s.Rejected),
		zap.Int("batches", s.Batches),
	)
	return s, nil
}

func (i *Ingester) processBatch(n int, batch []line, s *Summary) error {
	start := i.now()
	var accepted, rejected int

	for _, l := range batch {
		r, err := stream.Decode(i.builder, l.data)
		if err != nil {
			rejected++
			i.logger.Warn("record rejected", zap.Int("line", l.number), zap.Error(err))
			continue
		}

		accepted++
		if i.out != nil {
			if err := i.write(r); err != nil {
				return err
			}
		}
	}

	s.Accepted += accepted
	s.Rejected += rejected
	i.accepted.Add(int64(accepted))
	i.rejected.Add(int64(rejected))

	elapsed := i.now().Sub(start)
	fields := []zap.Field{
		zap.Int("batch", n),
		zap.Int("accepted", accepted),
		zap.Int("rejected", rejected),
		zap.Duration("elapsed", elapsed),
	}
	if i.maxBatchTime > 0 && elapsed > i.maxBatchTime {
		i.logger.Warn("batch exceeded max processing time", append(fields, zap.Duration("max_processing_time", i.maxBatchTime))...)
		return nil
	}
	i.logger.Info("batch processed", fields...)
	return nil
}

func (i *Ingester) write(r stream.Record) error {
	data, err := json.Marshal(r.Value)
	if err != nil {
		return emperror.WrapWith(err, "failed to encode record", "id", r.ID)
	}
	data = append(data, '\n')
	if _, err := i.out.Write(data); err != nil {
		return emperror.WrapWith(err, "failed to write record", "id", r.ID)
	}
	return nil
}

// reportProgress logs running totals every progress period until the returned func is called.
func (i *Ingester) reportProgress(ctx context.Context) func() {
	if i.progress <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(i.progress)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				i.logger.Info("ingest progress",
					zap.Int64("accepted", i.accepted.Load()),
					zap.Int64("rejected", i.rejected.Load()),
				)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
