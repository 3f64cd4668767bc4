/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/suparena/widerow/consistency"
	"github.com/suparena/widerow/datastore"
	"github.com/suparena/widerow/storagemodels"
)

const namespace = "widerow"

// Operation label values.
const (
	OpGet        = "get"
	OpSet        = "set"
	OpDelete     = "delete"
	OpSlice      = "slice"
	OpMutate     = "mutate"
	OpCounterAdd = "counter_add"
	OpCounterGet = "counter_get"
)

// mixedColumnFamilies labels a Mutate spanning more than one column family.
const mixedColumnFamilies = "_mixed"

var labels = []string{"op", "column_family", "level"}

// collectors holds the Prometheus series shared by every instrumented driver
// registered on the same Registerer.
type collectors struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	columns  *prometheus.HistogramVec
}

func newCollectors(reg prometheus.Registerer) *collectors {
	buckets := []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	c := &collectors{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "driver_requests_total",
			Help: "Driver calls by operation, column family and consistency level",
		}, labels),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "driver_errors_total",
			Help: "Failed driver calls",
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "driver_duration_seconds",
			Help: "Driver call latency", Buckets: buckets,
		}, labels),
		columns: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "slice_columns",
			Help:    "Columns returned per slice",
			Buckets: prometheus.ExponentialBuckets(1, 4, 7),
		}, []string{"column_family"}),
	}
	c.requests = register(reg, c.requests)
	c.errors = register(reg, c.errors)
	c.duration = register(reg, c.duration)
	c.columns = register(reg, c.columns)
	return c
}

// register returns the collector already registered under the same
// descriptor when there is one, so several drivers can share a registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Driver is a datastore.Driver reporting to Prometheus.
type Driver struct {
	next datastore.Driver
	m    *collectors
	now  func() time.Time
}

// Instrument wraps next. A nil reg uses prometheus.DefaultRegisterer.
func Instrument(next datastore.Driver, reg prometheus.Registerer) *Driver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Driver{next: next, m: newCollectors(reg), now: time.Now}
}

// Unwrap returns the wrapped driver.
func (d *Driver) Unwrap() datastore.Driver {
	return d.next
}

func (d *Driver) observe(ctx context.Context, op, columnFamily string) func(error) {
	values := []string{op, columnFamily, consistency.FromContext(ctx).String()}
	start := d.now()
	return func(err error) {
		d.m.requests.WithLabelValues(values...).Inc()
		d.m.duration.WithLabelValues(values...).Observe(d.now().Sub(start).Seconds())
		if err != nil {
			d.m.errors.WithLabelValues(values...).Inc()
		}
	}
}

func (d *Driver) Get(ctx context.Context, columnFamily string, rowKey, name []byte) (col storagemodels.Column, found bool, err error) {
	done := d.observe(ctx, OpGet, columnFamily)
	defer func() { done(err) }()
	return d.next.Get(ctx, columnFamily, rowKey, name)
}

func (d *Driver) Set(ctx context.Context, columnFamily string, rowKey []byte, col storagemodels.Column) (err error) {
	done := d.observe(ctx, OpSet, columnFamily)
	defer func() { done(err) }()
	return d.next.Set(ctx, columnFamily, rowKey, col)
}

func (d *Driver) Delete(ctx context.Context, columnFamily string, rowKey, name []byte) (err error) {
	done := d.observe(ctx, OpDelete, columnFamily)
	defer func() { done(err) }()
	return d.next.Delete(ctx, columnFamily, rowKey, name)
}

func (d *Driver) Slice(ctx context.Context, q storagemodels.SliceQuery) (cols []storagemodels.Column, err error) {
	done := d.observe(ctx, OpSlice, q.ColumnFamily)
	defer func() {
		done(err)
		if err == nil {
			d.m.columns.WithLabelValues(q.ColumnFamily).Observe(float64(len(cols)))
		}
	}()
	return d.next.Slice(ctx, q)
}

func (d *Driver) Mutate(ctx context.Context, mutations []storagemodels.Mutation) (err error) {
	done := d.observe(ctx, OpMutate, mutationColumnFamily(mutations))
	defer func() { done(err) }()
	return d.next.Mutate(ctx, mutations)
}

func (d *Driver) CounterAdd(ctx context.Context, columnFamily string, rowKey, name []byte, delta int64) (err error) {
	done := d.observe(ctx, OpCounterAdd, columnFamily)
	defer func() { done(err) }()
	return d.next.CounterAdd(ctx, columnFamily, rowKey, name, delta)
}

func (d *Driver) CounterGet(ctx context.Context, columnFamily string, rowKey, name []byte) (n int64, err error) {
	done := d.observe(ctx, OpCounterGet, columnFamily)
	defer func() { done(err) }()
	return d.next.CounterGet(ctx, columnFamily, rowKey, name)
}

func (d *Driver) Close() error {
	return d.next.Close()
}

func mutationColumnFamily(mutations []storagemodels.Mutation) string {
	if len(mutations) == 0 {
		return ""
	}
	cf := mutations[0].ColumnFamily
	for _, m := range mutations[1:] {
		if m.ColumnFamily != cf {
			return mixedColumnFamilies
		}
	}
	return cf
}
