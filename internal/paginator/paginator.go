// Package paginator walks cursor paginated relation lists.
package paginator

import (
	"context"
	"time"

	"socmint/internal/components/assert"
	"socmint/internal/components/telemetry"
	"socmint/internal/platform"
	"socmint/internal/profile"
)

const (
	report_paginator_collect = "paginator.collect"
	DefaultDelay             = 200 * time.Millisecond
)

// PageSource is the part of platform.Graph the paginator pages through.
type PageSource interface {
	EntityPage(ctx context.Context, accountId string, category platform.Category, cursor string) (platform.EntityPage, error)
	ProfileURL(id int64) string
}

type Paginator struct {
	source PageSource
	delay  time.Duration
	tel    telemetry.API
}

// New creates a Paginator that waits delay between page requests, a zero
// delay means DefaultDelay and a negative one disables waiting.
func New(source PageSource, delay time.Duration, tel telemetry.API) Paginator {
	assert.NotNil(source)
	assert.NotNil(tel)
	if delay == 0 {
		delay = DefaultDelay
	}
	if delay < 0 {
		delay = 0
	}
	return Paginator{
		source: source,
		delay:  delay,
		tel:    telemetry.NewScopedAPI("paginator", tel),
	}
}

// Collect accumulates up to limit entities of category for accountId, a
// negative limit collects every page. Every stop condition (an empty page,
// the cap, a missing cursor or a failed request) returns what has been
// collected so far, the result is never nil.
func (p Paginator) Collect(ctx context.Context, accountId string, category platform.Category, limit int) []profile.Entity {
	out := []profile.Entity{}
	if limit == 0 {
		return out
	}

	cursor := ""
	for page := 0; ; page++ {
		res, err := p.source.EntityPage(ctx, accountId, category, cursor)
		if err != nil {
			p.tel.ReportBroken(report_paginator_collect, err, accountId, string(category), page)
			return out
		}
		if len(res.Items) == 0 {
			return out
		}

		for _, item := range res.Items {
			name := item.DisplayName
			if name == "" {
				name = item.Name
			}
			if name == "" || item.ID == 0 {
				continue
			}
			out = append(out, profile.Entity{
				Name:       name,
				ProfileURL: p.source.ProfileURL(item.ID),
			})
			if limit > 0 && len(out) >= limit {
				return out
			}
		}

		if res.NextCursor == "" {
			return out
		}
		cursor = res.NextCursor

		if !p.wait(ctx) {
			p.tel.ReportWarning(report_paginator_collect, ctx.Err(), accountId, string(category), page)
			return out
		}
	}
}

func (p Paginator) wait(ctx context.Context) bool {
	if p.delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
