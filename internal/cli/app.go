package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ppiankov/tribunal/internal/cache"
	"github.com/ppiankov/tribunal/internal/deliberation"
	"github.com/ppiankov/tribunal/internal/ledger"
	"github.com/ppiankov/tribunal/internal/llm"
	"github.com/ppiankov/tribunal/internal/logging"
	"github.com/ppiankov/tribunal/internal/media"
	"github.com/ppiankov/tribunal/internal/model"
	"github.com/ppiankov/tribunal/internal/store"
	"github.com/ppiankov/tribunal/internal/worker"
)

const mediaTimeout = 30 * time.Second

// app holds the wired dependencies of one command invocation
type app struct {
	cfg    *model.Config
	logger *logging.Logger
	store  *store.Store
	client *llm.Client
	loader *media.Loader
	engine *deliberation.Engine
}

// openApp loads config and opens the store. Commands that only read the
// log stop here; withEngine adds generation, ledger and media.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, store: st}, nil
}

// withEngine wires the deliberation engine. Commands that never generate
// (submission, settlement) pass generate=false and tolerate a provider that
// cannot be built, e.g. for lack of an API key.
func (a *app) withEngine(generate bool) error {
	llmConfig := llm.ConfigFromModel(a.cfg.LLM, a.cfg.HTTP)
	client, err := llm.NewClient(llmConfig, a.logger)
	if err != nil {
		if generate {
			return fmt.Errorf("generation client: %w", err)
		}
		client = llm.NewClientWithProvider(nil, llmConfig, a.logger)
	}
	if generate && !client.IsEnabled() {
		a.logger.Warn("no generation provider configured, runs will fail")
	}

	adapter, err := ledger.NewAdapter(ledger.ConfigFromModel(a.cfg.Ledger, a.cfg.HTTP))
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	proofs := cache.NewProofCache(a.cfg.Ledger.ProofCacheDir, a.cfg.Ledger.ProofCacheTTL)
	recorder := ledger.NewRecorder(adapter, proofs, a.cfg.Ledger.ProofCacheTTL, a.logger)
	if recorder.Enabled() && !proofs.Persistent() {
		a.logger.Debug("proof cache is memory-only, resumed runs may re-anchor turns")
	}

	limiter := worker.NewLimiter(2, 4)
	fetcher := media.NewFetcher(mediaTimeout, "Tribunal/"+version, a.cfg.HTTP.MaxBodyBytes, limiter,
		a.cfg.HTTP.HTTPProxy, a.cfg.HTTP.HTTPSProxy, a.cfg.HTTP.NoProxy)
	loader := media.NewLoader(fetcher, a.cfg.HTTP.MaxBodyBytes)

	engine, err := deliberation.New(deliberation.Options{
		Store:     a.store,
		Generator: client,
		Recorder:  recorder,
		Media:     loader,
		Config:    a.cfg.Deliberation,
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}

	a.client = client
	a.loader = loader
	a.engine = engine
	return nil
}

// Close releases the store and the log file
func (a *app) Close() error {
	return errors.Join(a.store.Close(), a.logger.Close())
}

// signalContext is cancelled on SIGINT/SIGTERM so that interrupted runs
// release their claim
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
