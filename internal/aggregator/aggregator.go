// Package aggregator assembles a full profile record for one identifier out
// of the independent lookups a platform offers.
package aggregator

import (
	"context"
	"errors"
	"fmt"

	"socmint/internal/components/assert"
	"socmint/internal/components/chrono"
	"socmint/internal/components/telemetry"
	"socmint/internal/fanout"
	"socmint/internal/paginator"
	"socmint/internal/platform"
	"socmint/internal/profile"
	"socmint/internal/resolver"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_engine_count       = "engine.count"
	report_engine_cache_write = "engine.cache-write"
)

const DefaultListLimit = 100

var (
	ErrUserNotFound = errors.New("User not found")
	ErrProfileFetch = errors.New("Failed to fetch profile")
)

var tracer = otel.Tracer("socmint/aggregator")
var meter = otel.Meter("socmint/aggregator")

var lookupCounter, _ = meter.Int64Counter(
	"aggregator.lookups",
	metric.WithDescription("profile lookups by outcome"),
)

// Store is the cache the engine reads and writes records through.
type Store interface {
	Read(key string) (profile.Record, bool)
	Write(key string, record profile.Record) error
}

type Options struct {
	// Limit caps each relation list, zero uses the engine default and a
	// negative value collects every page.
	Limit int
	// UseCache=false skips the cache read, the result is still written.
	UseCache bool
}

type Engine struct {
	service   platform.Service
	scheduler fanout.Scheduler
	paginator paginator.Paginator
	cache     Store
	clock     chrono.TimeAPI
	listLimit int
	tel       telemetry.API

	inflight *flights
}

type EngineOptions struct {
	Service platform.Service
	// Scheduler defaults to running the lookups sequentially.
	Scheduler *fanout.Scheduler
	// Paginator defaults to paging Service with the default delay.
	Paginator *paginator.Paginator
	Cache     Store
	Clock     chrono.TimeAPI
	// ListLimit is the default relation list cap when Options.Limit is zero.
	ListLimit int
}

func NewEngine(opts EngineOptions, tel telemetry.API) Engine {
	assert.NotNil(opts.Service)
	assert.NotNil(opts.Cache)
	assert.NotNil(opts.Clock)
	assert.NotNil(tel)

	limit := opts.ListLimit
	if limit == 0 {
		limit = DefaultListLimit
	}
	scheduler := fanout.NewScheduler(nil, fanout.Sequential, tel)
	if opts.Scheduler != nil {
		scheduler = *opts.Scheduler
	}
	pages := paginator.New(opts.Service, 0, tel)
	if opts.Paginator != nil {
		pages = *opts.Paginator
	}

	return Engine{
		service:   opts.Service,
		scheduler: scheduler,
		paginator: pages,
		cache:     opts.Cache,
		clock:     opts.Clock,
		listLimit: limit,
		tel:       telemetry.NewScopedAPI("aggregator", tel),
		inflight:  newFlights(),
	}
}

// Aggregate returns the merged record for identifier. The only errors are
// ErrUserNotFound and ErrProfileFetch, a failing sub-lookup degrades its
// field to the fallback instead. Concurrent calls with the same arguments
// share one aggregation, a caller whose ctx ends stops waiting on it without
// cancelling it for the others.
func (e Engine) Aggregate(ctx context.Context, identifier string, opts Options) (profile.Record, error) {
	if opts.Limit == 0 {
		opts.Limit = e.listLimit
	}
	key := flightKey(identifier, opts)

	call := e.inflight.join(ctx, key)
	defer e.inflight.leave(key, call)

	ch := e.inflight.group.DoChan(key, func() (any, error) {
		return e.aggregate(e.inflight.context(key), identifier, opts)
	})

	select {
	case <-ctx.Done():
		e.tel.ReportDebug("stopped waiting on lookup", identifier, ctx.Err())
		return profile.Record{}, fmt.Errorf("%w: %w", ErrProfileFetch, ctx.Err())
	case res := <-ch:
		if res.Shared {
			e.tel.ReportDebug("joined in-flight lookup", identifier)
		}
		if res.Err != nil {
			return profile.Record{}, res.Err
		}
		return res.Val.(profile.Record), nil
	}
}

func countOutcome(ctx context.Context, outcome string) {
	lookupCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (e Engine) aggregate(ctx context.Context, identifier string, opts Options) (profile.Record, error) {
	ctx, span := tracer.Start(ctx, "Aggregate")
	defer span.End()
	span.SetAttributes(
		attribute.String("identifier", identifier),
		attribute.String("platform", e.service.Name()),
		attribute.Int("limit", opts.Limit),
	)

	if opts.UseCache {
		rec, ok := e.cache.Read(identifier)
		if ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			countOutcome(ctx, "cache_hit")
			e.tel.ReportSuccess("loaded from cache", identifier)
			return rec, nil
		}
	}

	accountId, ok := e.resolve(ctx, identifier)
	if !ok {
		span.SetStatus(codes.Error, ErrUserNotFound.Error())
		countOutcome(ctx, "not_found")
		return profile.Record{}, ErrUserNotFound
	}

	base, err := e.fetchBase(ctx, accountId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrProfileFetch.Error())
		countOutcome(ctx, "fetch_failed")
		return profile.Record{}, fmt.Errorf("%w: %w", ErrProfileFetch, err)
	}

	rec := profile.New(accountId)
	rec.Alias = base.Name
	rec.DisplayName = base.DisplayName
	rec.Description = base.Description
	rec.IsBanned = base.IsBanned
	rec.HasVerifiedBadge = base.HasVerifiedBadge
	rec.JoinTimestamp = base.Created

	rec.FriendsCount = e.count(ctx, accountId, platform.Friends)
	rec.FollowersCount = e.count(ctx, accountId, platform.Followers)
	rec.FollowingCount = e.count(ctx, accountId, platform.Followings)

	results := e.fanOut(ctx, accountId, opts.Limit)
	merge(&rec, results)

	rec.AccountAge = profile.AccountAge(rec.JoinTimestamp, e.clock.Now())

	// lookups cut short by cancellation are not outcomes worth caching
	if ctx.Err() != nil {
		span.SetStatus(codes.Error, ctx.Err().Error())
		countOutcome(ctx, "cancelled")
		return profile.Record{}, fmt.Errorf("%w: %w", ErrProfileFetch, ctx.Err())
	}

	err = e.cache.Write(identifier, rec)
	if err != nil {
		e.tel.ReportBroken(report_engine_cache_write, err, identifier)
	}

	countOutcome(ctx, "fetched")
	e.tel.ReportSuccess("aggregated profile", identifier, accountId)
	return rec, nil
}

func (e Engine) resolve(ctx context.Context, identifier string) (string, bool) {
	ctx, span := tracer.Start(ctx, "Resolve")
	defer span.End()

	e.tel.ReportInfo("resolving", identifier)
	id, ok := resolver.Resolve(ctx, e.service, identifier, e.tel)
	if !ok {
		span.SetStatus(codes.Error, "unresolved")
	}
	return id, ok
}

func (e Engine) fetchBase(ctx context.Context, accountId string) (platform.BaseProfile, error) {
	ctx, span := tracer.Start(ctx, "FetchProfile")
	defer span.End()

	e.tel.ReportInfo("fetching profile", accountId)
	base, err := e.service.FetchProfile(ctx, accountId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return base, err
}

func (e Engine) count(ctx context.Context, accountId string, category platform.Category) int {
	n, err := e.service.EntityCount(ctx, accountId, category)
	if err != nil {
		e.tel.ReportBroken(report_engine_count, err, accountId, string(category))
		return 0
	}
	return n
}
