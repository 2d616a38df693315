package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lbx/internal/archive"
	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/services"
	"github.com/desertthunder/lbx/internal/shared"
)

// Config carries the engine's tuning values, resolved once at construction.
type Config struct {
	Username         string
	PageSize         int              // Listens per crawl page
	LikesPageSize    int              // Liked recordings per page
	Precision        models.Precision // Timestamp granularity for deduplication
	MaxListensPerRun int              // Soft cap per run; 0 means unlimited
}

// ConfigFromShared builds an engine Config from the application config.
func ConfigFromShared(cfg *shared.Config) (Config, error) {
	precision, err := models.ParsePrecision(cfg.Sync.DedupPrecision)
	if err != nil {
		return Config{}, err
	}

	config := Config{
		Username:         cfg.ListenBrainz.Username,
		PageSize:         cfg.Sync.PageSize,
		LikesPageSize:    cfg.Sync.LikesPageSize,
		Precision:        precision,
		MaxListensPerRun: cfg.Sync.MaxListensPerRun,
	}
	if config.PageSize <= 0 {
		config.PageSize = 100
	}
	if config.LikesPageSize <= 0 {
		config.LikesPageSize = 500
	}
	return config, nil
}

// SyncEngine defines the coordinated sync operation.
type SyncEngine interface {
	// Run performs one full sync of listens and likes, returning the
	// aggregated summary once both workers have reached a terminal status.
	Run(ctx context.Context, progress chan<- ProgressUpdate) (*Summary, error)
}

// RunRecorder persists the outcome of a completed run. Implementations are
// optional; recording failures never fail the run itself.
type RunRecorder interface {
	Record(summary *Summary) error
}

// Coordinator implements [SyncEngine]: it runs the listens crawl and the
// likes replacement as two parallel workers sharing one cancellation signal
// and one persistence lock, and aggregates their terminal statuses.
type Coordinator struct {
	source   services.ListenSource
	store    *archive.Store
	config   Config
	logger   *log.Logger
	recorder RunRecorder

	mu     sync.Mutex
	cancel context.CancelFunc
}

// CoordinatorOpts contains the dependencies for a Coordinator.
type CoordinatorOpts struct {
	Source   services.ListenSource
	Store    *archive.Store
	Config   Config
	Logger   *log.Logger
	Recorder RunRecorder // Optional run-history sink
}

// NewCoordinator creates a Coordinator, validating its dependencies.
func NewCoordinator(opts CoordinatorOpts) (*Coordinator, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("%w: listen source is required", shared.ErrInvalidInput)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: archive store is required", shared.ErrInvalidInput)
	}
	if opts.Config.Username == "" {
		return nil, fmt.Errorf("%w: username is required", shared.ErrMissingArgument)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Coordinator{
		source:   opts.Source,
		store:    opts.Store,
		config:   opts.Config,
		logger:   opts.Logger,
		recorder: opts.Recorder,
	}, nil
}

// Cancel requests a cooperative stop of the current run. Workers observe it
// at their next page boundary; everything already committed stays intact.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// Run starts both workers and blocks until each has reported a terminal
// status, then emits exactly one aggregated summary.
//
// A failure in one worker never cancels the other; each proceeds to its own
// natural terminal state to preserve maximum forward progress per run.
func (c *Coordinator) Run(ctx context.Context, progress chan<- ProgressUpdate) (*Summary, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	summary := &Summary{
		SessionID: shared.GenerateID(),
		Username:  c.config.Username,
		StartedAt: time.Now().UTC(),
	}
	c.logger.Info("sync run starting", "session", summary.SessionID, "user", summary.Username)

	reconciler := NewReconciler(c.store, c.config.Precision, c.logger)
	crawler := NewCrawler(c.source, c.store, reconciler, c.config, c.logger)
	likes := NewLikesSync(c.source, c.store, c.config, c.logger)

	// The barrier: Run returns only after both workers finish, whichever
	// order they finish in.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		summary.Listens = crawler.Crawl(runCtx, progress)
	}()
	go func() {
		defer wg.Done()
		_, summary.Likes = likes.Sync(runCtx, progress)
	}()
	wg.Wait()

	summary.FinishedAt = time.Now().UTC()
	c.logger.Info("sync run finished",
		"session", summary.SessionID,
		"listens", summary.Listens.Status,
		"likes", summary.Likes.Status,
		"committed", summary.Listens.Committed,
		"liked", summary.Likes.Count,
	)

	if c.recorder != nil {
		if err := c.recorder.Record(summary); err != nil {
			c.logger.Warn("failed to record sync run", "err", err)
		}
	}

	sendProgress(progress, doneUpdate(summary))
	return summary, nil
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks workers.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
