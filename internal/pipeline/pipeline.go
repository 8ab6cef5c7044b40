package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/cache"
	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/concordance"
	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/extract"
	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/model"
	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/worker"
)

// Pipeline wires the complete system: fetcher, field map, extraction
// engine and batch driver, configured once and shared across commands.
type Pipeline struct {
	cfg     *model.Config
	fetcher *Fetcher
	cmap    *concordance.Map
	engine  *extract.Engine
}

// NewPipeline builds all components from configuration. Field-map
// construction problems are fatal here: an engine with a broken map
// cannot serve any document.
func NewPipeline(ctx context.Context, cfg *model.Config) (*Pipeline, error) {
	var c cache.Cache
	if cfg.Cache.Enabled {
		c = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
	}
	limiter := worker.NewLimiter(cfg.Fetch.RequestsPerSecond, cfg.Fetch.Burst)
	fetcher := NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, c, limiter)

	cmap, err := concordance.Load()
	if err != nil {
		return nil, fmt.Errorf("load field map: %w", err)
	}
	if src := cfg.Extract.ConcordanceCSV; src != "" {
		if err := applyOverlay(ctx, cmap, fetcher, src); err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		cfg:     cfg,
		fetcher: fetcher,
		cmap:    cmap,
		engine:  extract.NewEngine(cmap, cfg.Extract.DuplicatePolicy),
	}, nil
}

// applyOverlay loads the master concordance CSV from a local path or URL
// and appends its xpaths to the field map.
func applyOverlay(ctx context.Context, cmap *concordance.Map, fetcher *Fetcher, src string) error {
	var body []byte
	var err error
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		body, err = fetcher.Fetch(ctx, src)
	} else {
		body, err = os.ReadFile(src)
	}
	if err != nil {
		return fmt.Errorf("load concordance overlay: %w", err)
	}
	if _, err := concordance.ApplyConcordanceCSV(cmap, bytes.NewReader(body)); err != nil {
		return fmt.Errorf("apply concordance overlay: %w", err)
	}
	return nil
}

// Directory layout under the configured data root.

func (p *Pipeline) IndexDir() string  { return filepath.Join(p.cfg.Data.Dir, "index") }
func (p *Pipeline) XMLDir() string    { return filepath.Join(p.cfg.Data.Dir, "xml") }
func (p *Pipeline) ParsedDir() string { return filepath.Join(p.cfg.Data.Dir, "parsed") }

func (p *Pipeline) orgsPath() string {
	return filepath.Join(p.ParsedDir(), "organizations.jsonl")
}

// FieldMap exposes the loaded field map (read-only).
func (p *Pipeline) FieldMap() *concordance.Map { return p.cmap }

// BuildIndex downloads the yearly indexes and writes filtered_index.csv.
func (p *Pipeline) BuildIndex(ctx context.Context) (string, int, error) {
	b := NewIndexBuilder(p.fetcher, p.IndexDir(), p.orgsPath())
	return b.Build(ctx, p.cfg.Fetch.TaxYears)
}

// DownloadXML fetches return XML for the filtered index. limit > 0 caps
// the attempt count; force redownloads past the checkpoint.
func (p *Pipeline) DownloadXML(ctx context.Context, limit int, force bool) (int, int, error) {
	rows, err := LoadFilteredIndex(filepath.Join(p.IndexDir(), "filtered_index.csv"))
	if err != nil {
		return 0, 0, fmt.Errorf("load filtered index: %w", err)
	}
	d := NewDownloader(p.fetcher, p.XMLDir(), p.cfg.Concurrency.DownloadWorkers)
	return d.Run(ctx, rows, limit, force)
}

// BuildRegistry downloads the EO BMF extracts and writes the 501(c)(3)
// organization registry.
func (p *Pipeline) BuildRegistry(ctx context.Context) (int, error) {
	b := NewRegistryBuilder(p.fetcher, p.cfg.Concurrency.DownloadWorkers, p.orgsPath())
	return b.Build(ctx)
}

// Extract runs batch extraction over xmlDir (default: the data XML
// directory) and writes the JSONL outputs under outDir (default: the
// parsed directory).
func (p *Pipeline) Extract(ctx context.Context, xmlDir, outDir string) (*model.RunSummary, error) {
	if xmlDir == "" {
		xmlDir = p.XMLDir()
	}
	if outDir == "" {
		outDir = p.ParsedDir()
	}

	source, err := NewDirSource(xmlDir)
	if err != nil {
		return nil, err
	}
	sink, err := NewJSONLSink(outDir)
	if err != nil {
		return nil, err
	}

	proc := worker.NewBatchProcessor(p.engine, p.cfg.Concurrency.Workers, p.cfg.Extract.DocTimeout)

	// A cancelled run returns both a partial summary and the context
	// error; the summary is kept so callers can report what completed.
	summary, err := proc.Run(ctx, source, sink)
	if cerr := sink.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close output: %w", cerr)
	}
	return summary, err
}
