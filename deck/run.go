package deck

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/deckgen-dev/deckgen"
	"github.com/deckgen-dev/deckgen/settings"
)

// DefaultWorkers bounds concurrent slide generations per deck.
const DefaultWorkers = 3

// GenerateFunc renders one slide. (*deckgen.Client).GenerateSlide satisfies it.
type GenerateFunc func(ctx context.Context, req deckgen.GenerationRequest) deckgen.Result

// ResolveFunc maps plan settings keys to reference images. Typically backed
// by a settings.Catalog; nil means slides carry no references.
type ResolveFunc func(keys []string) ([]deckgen.ReferenceImage, error)

// DescribeFunc renders the textual context for the same keys, prepended to
// the slide prompt so entry descriptions bias the generation even when their
// images are unusable. Typically settings.Catalog.ResolveDescriptions.
type DescribeFunc func(keys []string) (string, error)

// SlideResult pairs a plan slide with its generation outcome.
type SlideResult struct {
	Slide  Slide
	Result deckgen.Result
}

// Report summarizes a deck run. Results preserves plan order.
type Report struct {
	Succeeded int
	Failed    int
	Results   []SlideResult
}

// Runner renders every slide of a plan through a bounded worker pool.
type Runner struct {
	Generate GenerateFunc
	Resolve  ResolveFunc
	Describe DescribeFunc
	OutDir   string
	Workers  int
	Quality  bool
	Logger   *slog.Logger
}

// Run renders all slides and never aborts the deck on individual failures;
// every slide gets its shot and the report says which ones missed.
func (r *Runner) Run(ctx context.Context, plan *Plan) (*Report, error) {
	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	if r.OutDir != "" {
		if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
			return nil, err
		}
	}

	results := make([]SlideResult, len(plan.Slides))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, slide := range plan.Slides {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, slide Slide) {
			defer wg.Done()
			defer func() { <-sem }()

			req, err := r.buildRequest(plan, slide)
			if err != nil {
				log.Error("slide setup failed", "filename", slide.Filename, "error", err)
				results[i] = SlideResult{Slide: slide, Result: deckgen.Result{Err: err}}
				return
			}
			res := r.Generate(ctx, req)
			if res.OK {
				log.Info("slide done", "filename", slide.Filename, "skipped", res.Skipped)
			} else {
				log.Error("slide failed", "filename", slide.Filename, "error", res.Err)
			}
			results[i] = SlideResult{Slide: slide, Result: res}
		}(i, slide)
	}
	wg.Wait()

	report := &Report{Results: results}
	for _, sr := range results {
		if sr.Result.OK {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	return report, nil
}

func (r *Runner) buildRequest(plan *Plan, slide Slide) (deckgen.GenerationRequest, error) {
	req := deckgen.GenerationRequest{
		Prompt:       slide.Prompt,
		StylePrefix:  plan.StylePrefix,
		QualityCheck: r.Quality,
		OutputPath:   filepath.Join(r.OutDir, slide.Filename),
	}
	keys := append(append([]string{}, plan.Settings...), slide.Settings...)
	// Slides naming no keys still anchor on the catalog art style.
	if len(keys) == 0 && (r.Resolve != nil || r.Describe != nil) {
		keys = []string{settings.CategoryArtStyle}
	}
	if len(keys) == 0 {
		return req, nil
	}
	if r.Describe != nil {
		desc, err := r.Describe(keys)
		if err != nil {
			return deckgen.GenerationRequest{}, err
		}
		if desc != "" {
			req.Prompt = desc + " " + req.Prompt
		}
	}
	if r.Resolve != nil {
		refs, err := r.Resolve(keys)
		if err != nil {
			return deckgen.GenerationRequest{}, err
		}
		req.References = refs
	}
	return req, nil
}

// CollectArtifacts returns the rendered slide files in plan order, skipping
// slides whose artifact is missing or undersized. Used to feed PDF binding.
func CollectArtifacts(plan *Plan, outDir string) []string {
	var paths []string
	for _, slide := range plan.Slides {
		path := filepath.Join(outDir, slide.Filename)
		fi, err := os.Stat(path)
		if err != nil || fi.Size() <= deckgen.MinArtifactSize {
			continue
		}
		paths = append(paths, path)
	}
	return paths
}
