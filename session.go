/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package widerow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/suparena/widerow/config"
	"github.com/suparena/widerow/consistency"
	"github.com/suparena/widerow/datastore"
	"github.com/suparena/widerow/datastore/ddb"
	"github.com/suparena/widerow/datastore/mock"
	"github.com/suparena/widerow/datastore/sqlite"
	"github.com/suparena/widerow/join"
	"github.com/suparena/widerow/metrics"
	"github.com/suparena/widerow/widemap"
)

// Session ties a storage driver, a consistency policy and the declared
// properties together. It is safe for concurrent use.
type Session struct {
	cfg           config.Config
	driver        datastore.Driver
	policy        *consistency.Policy
	resolver      *join.Resolver
	relationships *join.Relationships
	dirty         widemap.DirtyTracker
	logger        *slog.Logger

	mu         sync.RWMutex
	properties map[string]property
	closed     bool
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
	driver     datastore.Driver
	dirty      widemap.DirtyTracker
	join       []join.Option
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *sessionOptions) { o.logger = logger }
}

// WithRegisterer sets where driver metrics are registered when metrics are
// enabled. The default is prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *sessionOptions) { o.registerer = reg }
}

// WithDriver uses d instead of opening the configured backend.
func WithDriver(d datastore.Driver) Option {
	return func(o *sessionOptions) { o.driver = d }
}

// WithDirtyTracker records removals made through iterators.
func WithDirtyTracker(t widemap.DirtyTracker) Option {
	return func(o *sessionOptions) { o.dirty = t }
}

// WithJoinOptions configures the join resolver, typically with the
// persister, loader and remover of the entity layer.
func WithJoinOptions(opts ...join.Option) Option {
	return func(o *sessionOptions) { o.join = append(o.join, opts...) }
}

// Open opens the backend selected by cfg and builds the consistency policy
// from its levels.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Session, error) {
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	driver := o.driver
	if driver == nil {
		var err error
		if driver, err = openDriver(ctx, cfg, o.logger); err != nil {
			return nil, err
		}
	}
	if cfg.Metrics.Enabled {
		driver = metrics.Instrument(driver, o.registerer)
	}

	policy := cfg.Consistency.Policy(o.logger)
	joinOpts := append([]join.Option{join.WithLogger(o.logger)}, o.join...)

	s := &Session{
		cfg:           cfg,
		driver:        driver,
		policy:        policy,
		resolver:      join.NewResolver(driver, policy, joinOpts...),
		relationships: join.NewRelationships(),
		dirty:         o.dirty,
		logger:        o.logger,
		properties:    make(map[string]property),
	}
	s.logger.Info("widerow session opened",
		"backend", cfg.Backend,
		"metrics", cfg.Metrics.Enabled,
		"read", cfg.Consistency.DefaultRead.String(),
		"write", cfg.Consistency.DefaultWrite.String())
	return s, nil
}

func openDriver(ctx context.Context, cfg config.Config, logger *slog.Logger) (datastore.Driver, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return mock.New(), nil
	case config.BackendDynamoDB:
		d, err := ddb.Open(ctx, ddb.ClientConfig{
			AccessKey: cfg.DynamoDB.AccessKey,
			SecretKey: cfg.DynamoDB.SecretKey,
			Region:    cfg.DynamoDB.Region,
			Endpoint:  cfg.DynamoDB.Endpoint,
		}, cfg.DynamoDB.Table, ddb.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return d, nil
	case config.BackendSQLite:
		d, err := sqlite.Open(cfg.SQLite.Path, sqlite.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Backend returns the storage settings shared by the wide maps of the session.
func (s *Session) Backend() widemap.Backend {
	return widemap.Backend{
		Driver:          s.driver,
		Policy:          s.policy,
		Logger:          s.logger,
		Dirty:           s.dirty,
		IteratorOptions: s.cfg.Iterator.IteratorOptions(),
	}
}

func (s *Session) Driver() datastore.Driver {
	return s.driver
}

func (s *Session) Policy() *consistency.Policy {
	return s.policy
}

func (s *Session) Resolver() *join.Resolver {
	return s.resolver
}

// Relationships returns the join column families declared so far, for
// stream.NewHandler.
func (s *Session) Relationships() *join.Relationships {
	return s.relationships
}

func (s *Session) Config() config.Config {
	return s.cfg
}

// Close closes the driver. Calling it again is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Info("widerow session closed", "backend", s.cfg.Backend)
	return s.driver.Close()
}
