package paginator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"socmint/internal/components/telemetry/telemetrytest"
	"socmint/internal/platform"
	"socmint/internal/profile"

	"github.com/stretchr/testify/require"
)

// fakeSource serves pages from a fixed list, the cursor of page i is "c<i>".
type fakeSource struct {
	mu      sync.Mutex
	pages   []platform.EntityPage
	failAt  int
	cursors []string
}

func (f *fakeSource) EntityPage(ctx context.Context, accountId string, category platform.Category, cursor string) (platform.EntityPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursors = append(f.cursors, cursor)

	idx := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "c%d", &idx)
	}
	if f.failAt > 0 && idx == f.failAt {
		return platform.EntityPage{}, errors.New("upstream unavailable")
	}
	if idx >= len(f.pages) {
		return platform.EntityPage{}, nil
	}
	return f.pages[idx], nil
}

func (f *fakeSource) ProfileURL(id int64) string {
	return fmt.Sprintf("https://example.test/users/%d/profile", id)
}

func (f *fakeSource) requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cursors)
}

func makePages(count, perPage int, chained bool) []platform.EntityPage {
	pages := make([]platform.EntityPage, count)
	id := int64(1)
	for i := range pages {
		for j := 0; j < perPage; j++ {
			pages[i].Items = append(pages[i].Items, platform.EntityItem{
				ID:   id,
				Name: fmt.Sprintf("user%d", id),
			})
			id++
		}
		if chained && i < count-1 {
			pages[i].NextCursor = fmt.Sprintf("c%d", i+1)
		}
	}
	return pages
}

func TestCollect(t *testing.T) {
	testCases := []struct {
		name           string
		pages          []platform.EntityPage
		failAt         int
		limit          int
		expectCount    int
		expectRequests int
	}{
		{
			name:           "empty first page",
			pages:          nil,
			limit:          100,
			expectCount:    0,
			expectRequests: 1,
		},
		{
			name:           "cap inside first page",
			pages:          makePages(3, 100, true),
			limit:          30,
			expectCount:    30,
			expectRequests: 1,
		},
		{
			name:           "cap truncates a later page",
			pages:          makePages(3, 100, true),
			limit:          150,
			expectCount:    150,
			expectRequests: 2,
		},
		{
			name:           "missing cursor stops",
			pages:          makePages(3, 100, false),
			limit:          1000,
			expectCount:    100,
			expectRequests: 1,
		},
		{
			name:           "failed page keeps earlier pages",
			pages:          makePages(3, 100, true),
			failAt:         2,
			limit:          1000,
			expectCount:    200,
			expectRequests: 3,
		},
		{
			name:           "uncapped walks every page",
			pages:          makePages(3, 100, true),
			limit:          -1,
			expectCount:    300,
			expectRequests: 3,
		},
		{
			name:           "zero limit makes no request",
			pages:          makePages(1, 100, false),
			limit:          0,
			expectCount:    0,
			expectRequests: 0,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			source := &fakeSource{pages: test.pages, failAt: test.failAt}
			p := New(source, -1, &telemetrytest.Recorder{})

			entities := p.Collect(context.Background(), "1", platform.Friends, test.limit)
			require.NotNil(t, entities)
			require.Len(t, entities, test.expectCount)
			require.Equal(t, test.expectRequests, source.requests())
		})
	}
}

func TestCollectTransformsItems(t *testing.T) {
	source := &fakeSource{pages: []platform.EntityPage{{
		Items: []platform.EntityItem{
			{ID: 1, Name: "alpha", DisplayName: "Alpha"},
			{ID: 2, Name: "beta"},
			{ID: 3},
			{Name: "noid"},
		},
	}}}
	p := New(source, -1, &telemetrytest.Recorder{})

	entities := p.Collect(context.Background(), "1", platform.Followers, 10)
	require.Equal(t, []profile.Entity{
		{Name: "Alpha", ProfileURL: "https://example.test/users/1/profile"},
		{Name: "beta", ProfileURL: "https://example.test/users/2/profile"},
	}, entities)
}

func TestCollectCursorChain(t *testing.T) {
	source := &fakeSource{pages: makePages(3, 2, true)}
	p := New(source, -1, &telemetrytest.Recorder{})

	p.Collect(context.Background(), "1", platform.Followings, -1)
	require.Equal(t, []string{"", "c1", "c2"}, source.cursors)
}

func TestCollectDelay(t *testing.T) {
	source := &fakeSource{pages: makePages(3, 10, true)}
	p := New(source, 100*time.Millisecond, &telemetrytest.Recorder{})

	start := time.Now()
	p.Collect(context.Background(), "1", platform.Friends, -1)
	// two waits between three pages, none after the last
	elapsed := time.Since(start)
	require.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	require.Less(t, elapsed, 300*time.Millisecond)
}

func TestCollectCapSkipsDelay(t *testing.T) {
	source := &fakeSource{pages: makePages(3, 10, true)}
	p := New(source, time.Second, &telemetrytest.Recorder{})

	start := time.Now()
	entities := p.Collect(context.Background(), "1", platform.Friends, 5)
	require.Len(t, entities, 5)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestCollectCancelledDuringDelay(t *testing.T) {
	source := &fakeSource{pages: makePages(3, 10, true)}
	p := New(source, time.Minute, &telemetrytest.Recorder{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	entities := p.Collect(ctx, "1", platform.Friends, -1)
	require.Len(t, entities, 10)
	require.Equal(t, 1, source.requests())
}
