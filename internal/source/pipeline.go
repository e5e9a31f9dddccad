package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// settleDelay gives the filesystem a moment between extraction and the
// descriptor walk; on some platforms freshly extracted files are not
// immediately visible to the scan.
const settleDelay = 500 * time.Millisecond

// writeConcurrency caps the write fan-out so huge sources cannot exhaust
// file descriptors.
const writeConcurrency = 8

// Progress is one status message from an ingestion run. The last message of
// every run has Done set; Aborted marks runs that failed before any write
// was attempted.
type Progress struct {
	Source   string
	Message  string
	Champion string
	Position string
	Err      error
	Done     bool
	Aborted  bool
	OK       bool
}

// Pipeline sequences fetch, extract, transform, and write for one build
// source per run. Runs for different sources are independent; each owns its
// working directory.
type Pipeline struct {
	fetcher *Fetcher
	log     zerolog.Logger

	settle time.Duration
	// RuneSink, when set, receives the rune-page suggestions found in each
	// ingested package.
	RuneSink func(source string, runes map[string][]RuneBuild)

	mu  sync.Mutex
	dir string // target Champions directory
}

// NewPipeline creates a pipeline writing into the given Champions directory.
func NewPipeline(fetcher *Fetcher, dir string, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		dir:     dir,
		log:     log.With().Str("component", "pipeline").Logger(),
		settle:  settleDelay,
	}
}

// SetTarget points subsequent write stages at a different Champions
// directory. A run picks up the target when it starts writing.
func (p *Pipeline) SetTarget(dir string) {
	p.mu.Lock()
	p.dir = dir
	p.mu.Unlock()
}

func (p *Pipeline) target() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dir
}

// Ingest runs the pipeline for one source. The returned channel streams
// progress and always terminates with a Done message, so consumers can stop
// showing a pending state.
func (p *Pipeline) Ingest(ctx context.Context, source string) <-chan Progress {
	ch := make(chan Progress, 16)
	go func() {
		defer close(ch)
		p.run(ctx, source, ch)
	}()
	return ch
}

func (p *Pipeline) run(ctx context.Context, source string, ch chan<- Progress) {
	emit := func(pr Progress) {
		pr.Source = source
		select {
		case ch <- pr:
		case <-ctx.Done():
		}
	}
	abort := func(msg string, err error) {
		p.log.Error().Err(err).Str("source", source).Msg(msg)
		emit(Progress{Message: msg, Err: err, Done: true, Aborted: true})
	}

	emit(Progress{Message: "fetching package"})
	archive, err := p.fetcher.FetchLatest(ctx, source)
	if err != nil {
		abort("fetch failed", err)
		return
	}

	workDir := filepath.Join(os.TempDir(), "runeforge-"+uuid.NewString())

	emit(Progress{Message: "extracting package"})
	if err := Extract(archive, workDir); err != nil {
		// Keep workDir for diagnostics.
		abort("extract failed", err)
		return
	}

	select {
	case <-time.After(p.settle):
	case <-ctx.Done():
		abort("cancelled", ctx.Err())
		return
	}

	emit(Progress{Message: "transforming descriptors"})
	parsed, err := Parse(workDir, source, p.log)
	if err != nil {
		abort("transform failed", err)
		return
	}
	if len(parsed.Builds) == 0 {
		os.RemoveAll(workDir)
		abort("no builds in package", fmt.Errorf("source %q produced no builds", source))
		return
	}

	if p.RuneSink != nil && len(parsed.Runes) > 0 {
		p.RuneSink(source, parsed.Runes)
	}

	writer, err := NewWriter(p.target(), p.log)
	if err != nil {
		abort("target directory unavailable", err)
		return
	}

	var (
		mu      sync.Mutex
		written int
		failed  int
	)
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(writeConcurrency)
	for i := range parsed.Builds {
		build := &parsed.Builds[i]
		g.Go(func() error {
			res := writer.Write(build)

			mu.Lock()
			if res.Err != nil {
				failed++
			} else {
				written++
			}
			mu.Unlock()

			emit(Progress{
				Message:  fmt.Sprintf("build %d", build.Index),
				Champion: build.Champion,
				Position: build.Position,
				Err:      res.Err,
			})
			return nil
		})
	}
	g.Wait()

	os.RemoveAll(workDir)

	// Partial success still counts as success; only a run where every
	// single write failed is reported as not ok.
	ok := written > 0
	p.log.Info().Str("source", source).Int("written", written).Int("failed", failed).Bool("ok", ok).
		Msg("ingestion finished")
	emit(Progress{
		Message: fmt.Sprintf("%d of %d builds written", written, written+failed),
		Done:    true,
		OK:      ok,
	})
}
