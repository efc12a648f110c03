package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"morsel-sales/metrics"
	"morsel-sales/models"
	"morsel-sales/services"
	"morsel-sales/storage"
	"morsel-sales/utils"
)

var (
	// ErrNotBuilt is returned by Query before the first successful Build.
	ErrNotBuilt = errors.New("dataset has not been built")

	// ErrUnknownRegion is returned for a region outside the enumerated set.
	ErrUnknownRegion = errors.New("unknown region")
)

// Options configures a Pipeline.
type Options struct {
	// Sources are files, directories or glob patterns.
	Sources             []string
	Product             string
	Cutoff              time.Time
	Regions             []string
	CurrencySymbols     []string
	MovingAverageWindow int
	LoadConcurrency     int
}

// Snapshot is one immutable build of the canonical dataset. A rebuild
// produces a new Snapshot; holders of an older one are unaffected.
type Snapshot struct {
	ID      uuid.UUID
	BuiltAt time.Time
	Dataset services.Dataset
	Stats   models.BuildStats
}

// Pipeline owns the current snapshot and rebuilds it on request.
type Pipeline struct {
	opts       Options
	logger     *utils.Logger
	metrics    *metrics.Metrics
	normalizer *services.Normalizer
	readFile   func(path string) (*models.RawBatch, error)

	buildMu sync.Mutex
	current atomic.Pointer[Snapshot]
}

// New creates a Pipeline. Nothing is read until Build is called.
func New(opts Options, logger *utils.Logger, m *metrics.Metrics) *Pipeline {
	if m == nil {
		m = metrics.New(nil)
	}
	if opts.LoadConcurrency < 1 {
		opts.LoadConcurrency = 1
	}
	regions := make([]string, 0, len(opts.Regions))
	for _, r := range opts.Regions {
		if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
			regions = append(regions, r)
		}
	}
	opts.Regions = regions
	return &Pipeline{
		opts:       opts,
		logger:     logger,
		metrics:    m,
		normalizer: services.NewNormalizer(logger, services.NewFieldCleaner(opts.CurrencySymbols...)),
		readFile:   storage.ReadFile,
	}
}

// Options returns the pipeline configuration.
func (p *Pipeline) Options() Options { return p.opts }

// Snapshot returns the current snapshot, or nil before the first build.
func (p *Pipeline) Snapshot() *Snapshot { return p.current.Load() }

// Build reads every source, normalizes and merges them, and publishes the
// result as the new snapshot. On error the previous snapshot stays current.
func (p *Pipeline) Build(ctx context.Context) (*Snapshot, error) {
	p.buildMu.Lock()
	defer p.buildMu.Unlock()

	start := time.Now()
	snap, err := p.build(ctx)
	records := 0
	if snap != nil {
		records = snap.Dataset.Len()
	}
	p.metrics.ObserveBuild(time.Since(start).Seconds(), records, err)
	if err != nil {
		p.logger.Error("[pipeline] build failed: %v", err)
		return nil, err
	}

	p.current.Store(snap)
	p.logger.Info("[pipeline] snapshot %s: %d records from %d source(s) (dropped %d) in %s",
		snap.ID, snap.Dataset.Len(), len(snap.Stats.Sources), snap.Stats.Dropped,
		time.Since(start).Round(time.Millisecond))
	return snap, nil
}

func (p *Pipeline) build(ctx context.Context) (*Snapshot, error) {
	paths, err := ResolveSources(p.opts.Sources)
	if err != nil {
		return nil, err
	}
	p.logger.Info("[pipeline] loading %d source(s) for %q", len(paths), p.opts.Product)

	results := make([]*services.NormalizeResult, len(paths))
	err = utils.Bounded(ctx, p.opts.LoadConcurrency, len(paths), func(_ context.Context, i int) error {
		batch, err := p.readFile(paths[i])
		if err != nil {
			return fmt.Errorf("read %s: %w", paths[i], err)
		}
		res, err := p.normalizer.Normalize(*batch, p.opts.Product)
		if err != nil {
			return err
		}
		results[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	var stats models.BuildStats
	sets := make([][]models.SalesRecord, 0, len(results))
	for _, res := range results {
		stats.Add(res.Stats)
		p.metrics.ObserveSource(res.Stats)
		sets = append(sets, res.Records)
	}

	if stats.Kept == 0 {
		return nil, &services.EmptyInputError{
			Product: p.opts.Product,
			Sources: len(paths),
			Matched: stats.Matched,
			Dropped: stats.Dropped,
		}
	}
	if stats.Dropped > 0 {
		p.logger.Warn("[pipeline] dropped %d of %d matched row(s)", stats.Dropped, stats.Matched)
	}

	return &Snapshot{
		ID:      uuid.New(),
		BuiltAt: time.Now().UTC(),
		Dataset: services.Merge(sets...),
		Stats:   stats,
	}, nil
}

// Regions returns the selectable regions: the configured ones, or those
// present in the current snapshot when none are configured.
func (p *Pipeline) Regions() []string {
	if len(p.opts.Regions) > 0 {
		out := make([]string, len(p.opts.Regions))
		copy(out, p.opts.Regions)
		return out
	}
	if snap := p.Snapshot(); snap != nil {
		return snap.Dataset.Regions()
	}
	return nil
}

// ValidRegion reports whether region is "all" or one of Regions.
func (p *Pipeline) ValidRegion(region string) bool {
	key := strings.ToLower(strings.TrimSpace(region))
	if key == "" || key == services.AllRegions {
		return true
	}
	for _, r := range p.Regions() {
		if r == key {
			return true
		}
	}
	return false
}

// ResolveSources expands directories and glob patterns into a sorted,
// de-duplicated list of readable files. Directories contribute every file
// with a supported extension. A plain path that does not exist, or a glob
// that matches nothing, is a *services.SourceError naming it.
func ResolveSources(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		info, statErr := os.Stat(pattern)
		if statErr != nil && !hasMeta(pattern) {
			return nil, &services.SourceError{Source: pattern, Err: statErr}
		}
		if statErr == nil && info.IsDir() {
			entries, err := os.ReadDir(pattern)
			if err != nil {
				return nil, fmt.Errorf("list %s: %w", pattern, err)
			}
			for _, e := range entries {
				if !e.IsDir() && storage.Supported(e.Name()) {
					add(filepath.Join(pattern, e.Name()))
				}
			}
			continue
		}
		if statErr == nil {
			add(pattern)
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("source pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, services.NoMatchError(pattern)
		}
		for _, m := range matches {
			add(m)
		}
	}

	if len(paths) == 0 {
		return nil, services.ErrNoInputFiles
	}
	sort.Strings(paths)
	return paths, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}
