package writer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/rtds-recorder/internal/broadcast"
	"github.com/rickgao/rtds-recorder/internal/database"
	"github.com/rickgao/rtds-recorder/internal/rtds"
)

const insertPriceSQL = `
	INSERT INTO crypto_prices (source, symbol, exchange_ts, received_at, value)
	VALUES ($1, $2, $3, $4, $5::numeric)
	ON CONFLICT (source, symbol, exchange_ts) DO NOTHING
`

// PriceWriter consumes crypto price messages and writes them to the crypto_prices table.
type PriceWriter struct {
	cfg    WriterConfig
	logger *slog.Logger

	// Input from the RTDS client
	input *broadcast.Receiver[rtds.Message]

	// Database
	db *pgxpool.Pool

	// Batching
	batch       []priceRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics WriterMetrics

	now func() time.Time
}

// NewPriceWriter creates a new PriceWriter. The writer owns input and closes it on Stop.
func NewPriceWriter(
	cfg WriterConfig,
	input *broadcast.Receiver[rtds.Message],
	db *pgxpool.Pool,
	logger *slog.Logger,
) *PriceWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultWriterConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultWriterConfig().FlushInterval
	}
	return &PriceWriter{
		cfg:    cfg,
		input:  input,
		db:     db,
		logger: logger.With("component", "price_writer"),
		batch:  make([]priceRow, 0, cfg.BatchSize),
		now:    time.Now,
	}
}

// EnsureSchema creates the crypto_prices table if needed.
func (w *PriceWriter) EnsureSchema(ctx context.Context) error {
	return database.EnsureSchema(ctx, w.db)
}

// Start begins consuming messages and writing to the database.
func (w *PriceWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("price writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer and flushes what is left in the batch.
func (w *PriceWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping price writer")

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("price writer stopped")
	case <-ctx.Done():
		w.logger.Warn("price writer stop timed out")
	}

	w.input.Close()

	// Final flush runs on the caller's context; the writer's own is cancelled.
	w.flushWith(ctx)

	return nil
}

// Stats returns current metrics.
func (w *PriceWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop reads from the receiver and accumulates batches.
func (w *PriceWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		msg, err := w.input.Recv(w.ctx)
		if err != nil {
			var lagged *broadcast.LaggedError
			if errors.As(err, &lagged) {
				w.logger.Warn("price writer lagged", "skipped", lagged.Skipped)
				w.batchMu.Lock()
				w.metrics.Skipped += int64(lagged.Skipped)
				w.batchMu.Unlock()
				continue
			}
			// Context cancelled or stream closed.
			return
		}

		w.handleMessage(msg)
	}
}

// flushLoop periodically flushes the batch.
func (w *PriceWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

// handleMessage transforms and adds a message to the batch.
func (w *PriceWriter) handleMessage(msg rtds.Message) {
	row, ok := w.transform(msg)
	if !ok {
		return
	}

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush()
	}
}

// transform converts a price message to a priceRow. Non-price topics are ignored.
func (w *PriceWriter) transform(msg rtds.Message) (priceRow, bool) {
	if !msg.IsCryptoPrice() {
		return priceRow{}, false
	}

	p, err := msg.CryptoPrice()
	if err != nil || p.Symbol == "" {
		w.logger.Debug("dropping invalid price", "topic", msg.Topic, "error", err)
		w.batchMu.Lock()
		w.metrics.Invalid++
		w.batchMu.Unlock()
		return priceRow{}, false
	}

	ts := p.Timestamp
	if ts == 0 {
		ts = msg.Timestamp
	}

	return priceRow{
		Source:     msg.Topic,
		Symbol:     p.Symbol,
		ExchangeTs: ts * 1000,
		ReceivedAt: w.now().UnixMicro(),
		Value:      p.Value.String(),
	}, true
}

// flush writes the current batch to the database.
func (w *PriceWriter) flush() {
	w.flushWith(w.ctx)
}

func (w *PriceWriter) flushWith(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]priceRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed prices",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *PriceWriter) batchInsert(ctx context.Context, rows []priceRow) (conflicts int, err error) {
	if w.db == nil {
		return 0, errors.New("no database pool")
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertPriceSQL, r.Source, r.Symbol, r.ExchangeTs, r.ReceivedAt, r.Value)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
