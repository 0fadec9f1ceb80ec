// Package ingest fetches the configured SDMX datasets, decodes them, and
// loads the results into the store and archive.
package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"censusapi/internal/sdmx"
	"censusapi/internal/store"
)

// Fetcher is the upstream client dependency.
type Fetcher interface {
	FetchData(ctx context.Context, q sdmx.Query) (*sdmx.Document, error)
}

// Archiver persists ingested datasets. Nil-able: ingest works without
// persistence.
type Archiver interface {
	SaveDataset(ctx context.Context, ds *store.Dataset) error
}

// Runner pulls every configured dataset through fetch, decode, and load.
type Runner struct {
	client  Fetcher
	store   *store.Store
	archive Archiver
	logger  *zap.SugaredLogger
}

// NewRunner wires a runner. archive may be nil.
func NewRunner(client Fetcher, st *store.Store, archive Archiver, logger *zap.SugaredLogger) *Runner {
	return &Runner{client: client, store: st, archive: archive, logger: logger}
}

// Run processes all queries in order. A failing dataset is logged and
// skipped so one bad upstream response never blocks the rest. Returns the
// number of datasets loaded.
func (r *Runner) Run(ctx context.Context, queries []sdmx.Query) int {
	runID := uuid.NewString()
	start := time.Now()
	r.logger.Infow("ingest run starting", "run_id", runID, "datasets", len(queries))

	loaded := 0
	for _, q := range queries {
		if ctx.Err() != nil {
			r.logger.Warnw("ingest run cancelled", "run_id", runID)
			break
		}
		code := DatasetCode(q.Flow)
		doc, err := r.client.FetchData(ctx, q)
		if err != nil {
			r.logger.Errorw("fetch failed", "run_id", runID, "dataset", code, "error", err)
			continue
		}
		records := sdmx.Decode(doc)
		ds := store.BuildDataset(code, doc, records)
		r.store.Put(ds)
		if r.archive != nil {
			if err := r.archive.SaveDataset(ctx, ds); err != nil {
				r.logger.Errorw("archive failed", "run_id", runID, "dataset", code, "error", err)
			}
		}
		r.logger.Infow("dataset loaded",
			"run_id", runID, "dataset", code,
			"records", len(records), "dimensions", len(ds.Dimensions))
		loaded++
	}

	r.logger.Infow("ingest run finished",
		"run_id", runID, "loaded", loaded, "elapsed", time.Since(start))
	return loaded
}

// DatasetCode derives the dataset code from a flow identifier of the form
// "AGENCY,CODE,VERSION". A flow without commas is its own code.
func DatasetCode(flow string) string {
	parts := strings.Split(flow, ",")
	if len(parts) >= 2 && parts[1] != "" {
		return parts[1]
	}
	return flow
}
