package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/refscout/refscout/internal/cache"
	"github.com/refscout/refscout/internal/catalog"
	"github.com/refscout/refscout/internal/llm"
	"github.com/refscout/refscout/internal/match"
	"github.com/refscout/refscout/internal/model"
	"github.com/refscout/refscout/internal/pdfref"
	"github.com/refscout/refscout/internal/reconcile"
	"github.com/refscout/refscout/internal/report"
	"github.com/refscout/refscout/internal/worker"
)

// Pipeline orchestrates the complete extraction run: PDF text, reference
// segmentation, structured extraction, catalog lookup, match selection,
// reconciliation and report rendering.
type Pipeline struct {
	fetcher    *Fetcher
	extractor  *llm.Extractor
	catalogs   *catalog.Chain
	selector   *match.Selector
	reconciler *reconcile.Reconciler
	writer     *report.Writer
	config     *model.Config
	verbose    bool
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	verbose := cfg.Output.Verbose

	// A failed LLM setup degrades to raw-text fallbacks, never aborts
	var provider llm.Provider
	if cfg.LLM.Provider != "" {
		p, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize LLM provider: %v\n", err)
		} else {
			provider = p
		}
	}
	extractor := llm.NewExtractor(provider, llm.ConfigFromModel(cfg.LLM), verbose)

	limiter := worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	providers := []catalog.Provider{
		catalog.NewOpenAlexClient(cfg.OpenAlex, cfg.HTTP.Timeout, limiter),
		catalog.NewSemanticScholarClient(cfg.S2, cfg.HTTP.Timeout, limiter),
	}

	var store cache.Cache
	if cfg.Cache.Enabled {
		store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	return &Pipeline{
		fetcher:    NewFetcher(cfg.HTTP.Timeout),
		extractor:  extractor,
		catalogs:   catalog.NewChain(providers, store, cfg.Retry, cfg.Cache.DiskTTL, verbose),
		selector:   match.NewSelector(cfg.Match),
		reconciler: reconcile.NewReconciler(),
		writer:     report.NewWriter(),
		config:     cfg,
		verbose:    verbose,
	}
}

// RunResult summarizes one extraction run
type RunResult struct {
	Source     string
	OutputPath string
	Total      int
	Matched    int
	Duration   time.Duration
}

// Run processes one document end to end and writes the xlsx report.
// source may be a local file path or an http(s) URL.
func (p *Pipeline) Run(ctx context.Context, source, outputPath string, maxRefs int) (*RunResult, error) {
	start := time.Now()

	localPath := source
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		path, cleanup, err := p.fetcher.Fetch(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("download document: %w", err)
		}
		defer cleanup()
		localPath = path
	}

	text, err := pdfref.ExtractText(localPath)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	refs := pdfref.SplitReferences(text)
	if len(refs) == 0 {
		return nil, fmt.Errorf("no references found in %s", source)
	}

	if maxRefs > 0 && len(refs) > maxRefs {
		refs = refs[:maxRefs]
	}

	if p.verbose {
		fmt.Fprintf(os.Stderr, "Processing %d references with %d workers...\n",
			len(refs), p.config.Concurrency.Workers)
	}

	batch := worker.NewBatchProcessor(p, p.config.Concurrency.Workers, p.verbose)
	rows := batch.ProcessReferences(ctx, refs)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run aborted: %w", err)
	}

	if err := p.writer.Write(outputPath, rows); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	matched := 0
	for _, row := range rows {
		if !strings.Contains(row.Notes, "unresolved") {
			matched++
		}
	}

	return &RunResult{
		Source:     source,
		OutputPath: outputPath,
		Total:      len(rows),
		Matched:    matched,
		Duration:   time.Since(start),
	}, nil
}

// Resolve processes a single reference. It never fails: extraction,
// lookup and matching all degrade, and a panic becomes an error row so
// one bad reference cannot sink the batch.
func (p *Pipeline) Resolve(ctx context.Context, ref model.RawReference) (row model.OutputRow) {
	defer func() {
		if r := recover(); r != nil {
			row = model.OutputRow{
				ReferenceRaw: ref.Text,
				Notes:        fmt.Sprintf("processing failed: %v", r),
			}
		}
	}()

	guess := p.extractor.Extract(ctx, ref.Text)

	query := catalog.Query{
		Title:       guess.Title,
		Year:        guess.Year,
		FirstAuthor: guess.FirstAuthor(),
		WorkType:    guess.WorkType,
	}

	candidates := p.catalogs.Search(ctx, query)
	decision := p.selector.Select(guess, candidates)

	return p.reconciler.Row(ref, guess, decision)
}
