package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/celiabustea/revu/internal/backend"
	"github.com/celiabustea/revu/internal/config"
	"github.com/celiabustea/revu/internal/orchestrator"
	"github.com/celiabustea/revu/internal/store"
	"github.com/celiabustea/revu/internal/vcs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type appKey struct{}

type App struct {
	Config     config.Config
	RepoConfig config.RepoConfig
	Service    backend.Service
	Git        vcs.Runner
	Store      *store.Store
	Log        *zap.Logger
	Orch       *orchestrator.Orchestrator
}

func withApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

func getApp(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(appKey{}).(*App)
	if !ok || app == nil {
		return nil, fmt.Errorf("internal error: app not initialized")
	}
	return app, nil
}

func initApp(configPath string) (*App, error) {
	cfg, repoCfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := openLogger()
	if err != nil {
		return nil, err
	}

	var service backend.Service
	var git vcs.Runner = vcs.GitRunner{}
	if os.Getenv("REVU_MOCK") == "1" {
		fixtures := os.Getenv("REVU_MOCK_DIR")
		if fixtures == "" {
			fixtures = filepath.Join("testdata", "backend")
		}
		service = backend.NewFixtureService(fixtures)
		gitFixtures := os.Getenv("REVU_GIT_FIXTURE_DIR")
		if gitFixtures == "" {
			gitFixtures = filepath.Join("testdata", "git")
		}
		git = vcs.NewFixtureRunner(gitFixtures)
	} else {
		client, err := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout())
		if err != nil {
			return nil, err
		}
		service = client
	}

	storePath := os.Getenv("REVU_DB_PATH")
	if storePath == "" {
		storePath = filepath.Join(os.Getenv("HOME"), ".revu", "revu.db")
	}
	st, err := store.Open(storePath)
	if err != nil {
		return nil, err
	}

	guidelines := append([]string{}, cfg.Guidelines...)
	guidelines = append(guidelines, repoCfg.Guidelines...)

	orch := orchestrator.New(orchestrator.Options{
		Service:       service,
		Git:           git,
		History:       st,
		Guidelines:    guidelines,
		RedactEnabled: cfg.Redaction.Enabled,
		Log:           log,
	})

	return &App{
		Config:     cfg,
		RepoConfig: repoCfg,
		Service:    service,
		Git:        git,
		Store:      st,
		Log:        log,
		Orch:       orch,
	}, nil
}

// openLogger appends structured logs to ~/.revu/revu.log so transient
// notices leave a persistent trail.
func openLogger() (*zap.Logger, error) {
	path := os.Getenv("REVU_LOG_PATH")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".revu", "revu.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(file), zapcore.InfoLevel)
	return zap.New(core), nil
}
