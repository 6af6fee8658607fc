package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/blueprint"
	"github.com/aretw0/blueprint/internal/adapters/file"
	"github.com/aretw0/blueprint/internal/adapters/redis"
	"github.com/aretw0/blueprint/internal/config"
	"github.com/aretw0/blueprint/internal/logging"
	"github.com/aretw0/blueprint/pkg/adapters/anthropic"
	"github.com/aretw0/blueprint/pkg/adapters/gemini"
	"github.com/aretw0/blueprint/pkg/adapters/memory"
	"github.com/aretw0/blueprint/pkg/adapters/scripted"
	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/aretw0/blueprint/pkg/expert"
	"github.com/aretw0/blueprint/pkg/knowledge"
	"github.com/aretw0/blueprint/pkg/ports"
	"github.com/aretw0/blueprint/pkg/session"
)

// app carries the loaded configuration shared by every command.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	levelName := cfg.Log.Level
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.NewWithOptions(logging.Options{Level: level, JSON: cfg.Log.JSON})
	return nil
}

// knowledgeBase returns the configured pattern table, or the built-in one.
func (a *app) knowledgeBase() (*knowledge.Base, error) {
	if a.cfg.Knowledge.Path == "" {
		return knowledge.Builtin(), nil
	}
	return knowledge.Load(a.cfg.Knowledge.Path)
}

func (a *app) engine(ctx context.Context, hooks domain.LifecycleHooks) (*blueprint.Engine, error) {
	primary, fallback, err := a.capabilities(ctx)
	if err != nil {
		return nil, err
	}
	kb, err := a.knowledgeBase()
	if err != nil {
		return nil, err
	}
	return blueprint.New(
		blueprint.WithCapabilities(primary, fallback),
		blueprint.WithKnowledgeBase(kb),
		blueprint.WithCacheSize(a.cfg.Scoring.CacheSize),
		blueprint.WithLifecycleHooks(hooks),
		blueprint.WithLogger(a.logger),
	)
}

// capabilities builds the primary and fallback models. Offline mode swaps both for
// scripted capabilities that deliver a canned blueprint.
func (a *app) capabilities(ctx context.Context) (ports.Capability, ports.Capability, error) {
	caps := a.cfg.Capabilities
	if caps.Offline {
		a.logger.Warn("offline mode: using scripted capabilities")
		return scripted.New("offline-primary"), scripted.New("offline-fallback"), nil
	}

	mws := []expert.Middleware{expert.Logging(a.logger)}
	if caps.Rate.RPS > 0 {
		mws = append([]expert.Middleware{expert.RateLimit(caps.Rate.RPS, caps.Rate.Burst)}, mws...)
	}

	primary, err := newCapability(ctx, caps.Primary)
	if err != nil {
		return nil, nil, fmt.Errorf("primary capability: %w", err)
	}
	fallback, err := newCapability(ctx, caps.Fallback)
	if err != nil {
		return nil, nil, fmt.Errorf("fallback capability: %w", err)
	}
	return expert.Wrap(primary, mws...), expert.Wrap(fallback, mws...), nil
}

func newCapability(ctx context.Context, p config.ProviderConfig) (ports.Capability, error) {
	switch p.Provider {
	case config.ProviderAnthropic:
		c, err := anthropic.New(anthropic.WithModel(p.Model), anthropic.WithAPIKey(p.APIKey))
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderGemini:
		c, err := gemini.New(ctx, gemini.Config{APIKey: p.APIKey, Model: p.Model})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, domain.NewConfigurationError("unknown provider %q", p.Provider)
	}
}

// sessions builds the session manager for the configured store driver.
// The returned close function releases the backend connection.
func (a *app) sessions() (*session.Manager, func() error, error) {
	nop := func() error { return nil }
	st := a.cfg.Store
	switch st.Driver {
	case config.DriverMemory:
		return session.NewManager(memory.NewStore(), session.WithLogger(a.logger)), nop, nil
	case config.DriverFile:
		return session.NewManager(file.New(st.Dir), session.WithLogger(a.logger)), nop, nil
	case config.DriverRedis:
		store := redis.New(st.Redis.Addr, st.Redis.Password, st.Redis.DB,
			redis.WithTTL(st.Redis.TTL),
			redis.WithPrefix(st.Redis.Prefix),
		)
		mgr := session.NewManager(store,
			session.WithLocker(redis.NewLocker(store.Client(), st.Redis.LockPrefix)),
			session.WithLogger(a.logger),
		)
		return mgr, store.Close, nil
	default:
		return nil, nop, domain.NewConfigurationError("unknown store driver %q", st.Driver)
	}
}
