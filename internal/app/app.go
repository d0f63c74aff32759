// Package app wires configuration, integrations and use cases into a Handler
// shared by the Lambda and long-running server entry points.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"parker-electrical/handler"
	"parker-electrical/internal/config"
	"parker-electrical/internal/directory"
	"parker-electrical/internal/domain"
	"parker-electrical/internal/extract"
	"parker-electrical/internal/integrations/brevo"
	"parker-electrical/internal/integrations/gemini"
	"parker-electrical/internal/integrations/openai"
	"parker-electrical/internal/integrations/paramstore"
	"parker-electrical/internal/repository"
	"parker-electrical/internal/usecase"
)

// SSM parameter names, relative to PARAM_PREFIX.
const (
	paramGeminiKey = "/gemini-api-key"
	paramOpenAIKey = "/openai-api-key"
	paramBrevoKey  = "/brevo-api-key"
)

type App struct {
	Config  config.Config
	Handler *handler.Handler
	// Metrics holds the Go runtime, process and relay collectors.
	Metrics *prometheus.Registry
	closers []func() error
}

// New builds the application. Missing credentials are not an error: the
// affected endpoints report themselves as not configured.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Metrics: newRegistry()}

	var awsCfg *aws.Config
	loadAWS := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		c, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("app: load AWS config: %w", err)
		}
		awsCfg = &c
		return c, nil
	}

	if cfg.ParamPrefix != "" {
		ac, err := loadAWS()
		if err != nil {
			return nil, err
		}
		ps, err := paramstore.New(awsssm.NewFromConfig(ac))
		if err != nil {
			return nil, fmt.Errorf("app: create paramstore client: %w", err)
		}
		resolveSecrets(ctx, &cfg, ps, logger)
	}

	var ledger usecase.Ledger
	if cfg.BookingLedgerTable != "" {
		ac, err := loadAWS()
		if err != nil {
			return nil, err
		}
		l, err := repository.NewBookingLedger(awsdynamodb.NewFromConfig(ac), cfg.BookingLedgerTable, cfg.BookingLedgerTTL)
		if err != nil {
			return nil, fmt.Errorf("app: create booking ledger: %w", err)
		}
		ledger = l
	} else {
		ledger = repository.NewMemoryLedger(cfg.BookingLedgerTTL)
	}

	if err := a.build(ctx, cfg, ledger, logger); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, cfg config.Config, ledger usecase.Ledger, logger *zap.Logger) error {
	dir := directory.Default()

	llm, err := a.newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	mailer, err := newMailer(cfg)
	if err != nil {
		return err
	}
	caps := config.Capabilities{Chat: llm != nil, Email: mailer != nil}
	if !caps.Chat {
		logger.Warn("chat assistant not configured", zap.String("provider", cfg.LLMProvider))
	}
	if !caps.Email {
		logger.Warn("email service not configured")
	}

	emailCfg := usecase.EmailConfig{
		Inbox:  cfg.BusinessInbox,
		Sender: domain.Address{Name: cfg.SenderName, Email: cfg.SenderEmail},
	}
	bookingSvc, err := usecase.NewBookingService(mailer, dir, emailCfg, logger)
	if err != nil {
		return fmt.Errorf("app: create booking service: %w", err)
	}
	contactSvc, err := usecase.NewContactService(mailer, dir, emailCfg, logger)
	if err != nil {
		return fmt.Errorf("app: create contact service: %w", err)
	}

	var chatOpts []usecase.ChatOption
	if caps.Email {
		p := dir.Profile()
		extractor := extract.New(
			extract.WithIgnoredPhones(p.Phone),
			extract.WithIgnoredNames(p.Name, p.Lead, p.Assistant),
		)
		capture, err := usecase.NewBookingCapture(extractor, ledger, bookingSvc, dir, logger)
		if err != nil {
			return fmt.Errorf("app: create booking capture: %w", err)
		}
		chatOpts = append(chatOpts, usecase.WithBookingCapture(capture))
	}
	chatSvc, err := usecase.NewChatService(llm, dir, usecase.ChatConfig{
		ProviderName:    cfg.LLMProvider,
		HistoryLimit:    cfg.HistoryLimit,
		MaxReplyChars:   cfg.MaxReplyChars,
		MaxMessageChars: cfg.MaxMessageLength,
		ProviderTimeout: cfg.RequestTimeout,
	}, logger, chatOpts...)
	if err != nil {
		return fmt.Errorf("app: create chat service: %w", err)
	}

	h, err := handler.NewHandler(chatSvc, bookingSvc, contactSvc, dir, handler.Options{
		Development:    cfg.IsDevelopment(),
		Provider:       cfg.LLMProvider,
		Capabilities:   caps,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("app: create handler: %w", err)
	}
	a.Config = cfg
	a.Handler = h
	return nil
}

// newLLMClient returns nil, nil when the selected provider has no key.
func (a *App) newLLMClient(ctx context.Context, cfg config.Config) (usecase.LLMClient, error) {
	key := cfg.LLMAPIKey()
	if key == "" {
		return nil, nil
	}
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		c, err := openai.NewClient(key,
			openai.WithModel(cfg.OpenAIModel),
			openai.WithBaseURL(cfg.OpenAIBaseURL),
		)
		if err != nil {
			return nil, fmt.Errorf("app: create openai client: %w", err)
		}
		return c, nil
	default:
		c, err := gemini.NewClient(ctx, key, gemini.WithModel(cfg.GeminiModel))
		if err != nil {
			return nil, fmt.Errorf("app: create gemini client: %w", err)
		}
		a.closers = append(a.closers, c.Close)
		return c, nil
	}
}

// newMailer returns nil, nil when no Brevo key is configured.
func newMailer(cfg config.Config) (usecase.Mailer, error) {
	if cfg.BrevoAPIKey == "" {
		return nil, nil
	}
	c, err := brevo.NewClient(cfg.BrevoAPIKey, brevo.WithBaseURL(cfg.BrevoBaseURL))
	if err != nil {
		return nil, fmt.Errorf("app: create brevo client: %w", err)
	}
	return c, nil
}

// resolveSecrets fills credentials absent from the environment from SSM.
// Lookup failures leave the credential unset.
func resolveSecrets(ctx context.Context, cfg *config.Config, ps paramstore.SecretLookup, logger *zap.Logger) {
	lookup := func(dst *string, suffix string) {
		if *dst != "" {
			return
		}
		name := cfg.ParamPrefix + suffix
		v, err := ps.LookupSecret(ctx, name)
		if err != nil {
			logger.Warn("credential lookup failed", zap.String("parameter", name), zap.Error(err))
			return
		}
		*dst = v
	}
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		lookup(&cfg.OpenAIAPIKey, paramOpenAIKey)
	default:
		lookup(&cfg.GeminiAPIKey, paramGeminiKey)
	}
	lookup(&cfg.BrevoAPIKey, paramBrevoKey)
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	usecase.RegisterMetrics(reg)
	return reg
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
