package transfer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/engine"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/orchestrator"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/registry"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// Service is the caller-facing transfer surface over one engine.
//
// A Service owns the listener registry for its engine and a goroutine that
// dispatches the engine's events. Create one per engine and share it; it is
// safe for concurrent use.
type Service struct {
	engine       engine.Engine
	registry     *registry.Registry
	orchestrator *orchestrator.Orchestrator
	opts         *serviceOptions

	initMu      sync.Mutex
	initialized bool

	stop      context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// New creates a Service over e and starts dispatching e's events.
// The engine must still be initialized with InitWithPlainSecret or
// InitWithSessionCredential before transfers are accepted.
func New(e engine.Engine, opts ...Option) *Service {
	o := &serviceOptions{
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.tracer == nil {
		o.tracer = noop.NewTracerProvider().Tracer("")
	}
	if o.fs == nil {
		o.fs = osfs.New("/")
	}

	ctx, stop := context.WithCancel(context.Background())
	s := &Service{
		engine:       e,
		registry:     registry.New(o.logger),
		orchestrator: orchestrator.New(e, o.logger, o.tracer),
		opts:         o,
		stop:         stop,
		done:         make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		s.registry.Run(ctx, e.Events())
	}()

	return s
}

// Close stops event dispatch and closes the engine. Registered listeners
// receive no further notifications.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		if n := s.registry.Len(); n > 0 {
			s.opts.logger.Info("closing with downloads still registered", "downloads", n)
		}
		s.stop()
		<-s.done
		if err := s.engine.Close(); err != nil {
			s.closeErr = errors.NewError("close", err)
		}
	})
	return s.closeErr
}

// InitWithPlainSecret initializes the engine with a long-lived secret.
// Unset part-size thresholds default to 1 MiB. Once an initialization has
// succeeded further calls are no-ops.
func (s *Service) InitWithPlainSecret(
	ctx context.Context,
	cfg transfertypes.Configuration,
	secret transfertypes.PlainSecret,
) error {
	if secret.SecretID == "" || secret.SecretKey == "" {
		return errors.NewError("init", errors.ErrInvalidCredentials).
			WithMessage("secret id and secret key are required")
	}
	return s.init(ctx, cfg, &secret)
}

// InitWithSessionCredential initializes the engine with temporary credentials
// fetched from cfg.SessionCredentialURL. Unset part-size thresholds default
// to 1 MiB. Once an initialization has succeeded further calls are no-ops.
func (s *Service) InitWithSessionCredential(ctx context.Context, cfg transfertypes.Configuration) error {
	if cfg.SessionCredentialURL == "" {
		return errors.NewError("init", errors.ErrInvalidConfig).
			WithMessage("session credential URL is required")
	}
	return s.init(ctx, cfg, nil)
}

func (s *Service) init(ctx context.Context, cfg transfertypes.Configuration, secret *transfertypes.PlainSecret) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.initialized {
		s.opts.logger.DebugContext(ctx, "engine already initialized")
		return nil
	}

	cfg = cfg.WithDefaults()
	if err := validation.ValidateConfiguration(cfg); err != nil {
		return err
	}

	if err := s.engine.Init(ctx, cfg, secret); err != nil {
		return errors.NewError("init", err)
	}
	s.initialized = true

	s.opts.logger.InfoContext(ctx, "engine initialized",
		"region", cfg.Region,
		"session_credentials", secret == nil,
		"division_for_upload", cfg.DivisionForUpload,
		"slice_size_for_upload", cfg.SliceSizeForUpload)
	return nil
}

// Initialized reports whether the engine has been initialized.
func (s *Service) Initialized() bool {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	return s.initialized
}

func (s *Service) requireInit(op string) error {
	if !s.Initialized() {
		return errors.NewError(op, errors.ErrNotInitialized)
	}
	return nil
}

func (s *Service) tracer() trace.Tracer {
	return s.opts.tracer
}
