package compress

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/mcroute/mcroute/container/rtdef"
	"github.com/mcroute/mcroute/core/runningstat"
	"github.com/mcroute/mcroute/mesh"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrDuplicateRouter indicates two tables belong to the same router.
var ErrDuplicateRouter = errors.New("duplicate router")

// Report summarizes compression of many routers.
type Report struct {
	Routers  int                  `json:"routers"`
	Failed   []mesh.Coords        `json:"failed,omitempty"`
	Before   runningstat.Snapshot `json:"before"`
	After    runningstat.Snapshot `json:"after"`
	Merges   runningstat.Snapshot `json:"merges"`
	Duration runningstat.Snapshot `json:"durationMs"`
}

// Pool compresses router tables in parallel, one task per router.
// CompressAll must not be called concurrently on the same Pool.
type Pool struct {
	cfg Config

	mutex    sync.Mutex
	results  map[mesh.Coords]Result
	errs     []error
	failed   []mesh.Coords
	before   runningstat.IntStat
	after    runningstat.IntStat
	merges   runningstat.IntStat
	duration runningstat.IntStat
}

// NewPool creates a Pool.
func NewPool(cfg Config) *Pool {
	cfg.ApplyDefaults()
	return &Pool{cfg: cfg}
}

// CompressAll compresses every table.
// Results are keyed by router coordinates; a router that cannot reach the target length
// still has its best equivalent table in the results.
// Per-router failures are combined into the returned error.
func (p *Pool) CompressAll(ctx context.Context, tables []rtdef.Table) (map[mesh.Coords]Result, Report, error) {
	p.results = make(map[mesh.Coords]Result, len(tables))
	p.errs, p.failed = nil, nil
	p.before.Init(1)
	p.after.Init(1)
	p.merges.Init(1)
	p.duration.Init(1)

	seen := map[mesh.Coords]bool{}
	for _, table := range tables {
		if seen[table.Router] {
			return nil, Report{}, fmt.Errorf("%w %s", ErrDuplicateRouter, table.Router)
		}
		seen[table.Router] = true
	}

	var g errgroup.Group
	g.SetLimit(p.cfg.Workers)
	for _, table := range tables {
		table := table
		g.Go(func() error {
			t0 := time.Now()
			res, e := Compress(ctx, p.cfg, table)
			p.collect(res, e, time.Since(t0))
			return nil
		})
	}
	g.Wait()
	slices.SortFunc(p.failed, func(a, b mesh.Coords) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})

	report := Report{
		Routers:  len(p.results),
		Failed:   p.failed,
		Before:   p.before.Read(),
		After:    p.after.Read(),
		Merges:   p.merges.Read(),
		Duration: p.duration.Read().Scale(1 / float64(time.Millisecond)),
	}
	e := multierr.Combine(p.errs...)
	logger.Info("routers compressed",
		zap.Int("routers", report.Routers),
		zap.Int("failed", len(report.Failed)),
		zap.Uint64p("max-before", report.Before.Max),
		zap.Uint64p("max-after", report.After.Max),
		zap.Float64("mean-ms", report.Duration.Mean),
	)
	return p.results, report, e
}

func (p *Pool) collect(res Result, e error, d time.Duration) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	router := res.Table.Router
	p.results[router] = res
	p.before.Push(uint64(res.Before))
	p.after.Push(uint64(res.Table.Len()))
	p.merges.Push(uint64(res.Merges))
	p.duration.Push(uint64(d.Nanoseconds()))
	if e != nil {
		p.errs = append(p.errs, e)
		p.failed = append(p.failed, router)
	}
}
