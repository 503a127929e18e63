package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"socmint/internal/components/chrono"
	"socmint/internal/components/telemetry/telemetrytest"
	"socmint/internal/profile"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)

func sampleRecord() profile.Record {
	rec := profile.New("999")
	rec.Alias = "SomeUser"
	rec.DisplayName = "Some User"
	rec.Description = "hello\nworld"
	rec.JoinTimestamp = "2014-03-01T10:00:00.123Z"
	rec.AccountAge = "10 Years, 85 Days"
	rec.FriendsCount = 3
	rec.PreviousAliases = []string{"OldName"}
	rec.Groups = []profile.Group{{Name: "Builders", Link: "https://www.roblox.com/groups/7", MemberCount: 1200}}
	rec.FriendsList = []profile.Entity{{Name: "Pal", ProfileURL: "https://www.roblox.com/users/5/profile"}}
	rec.PresenceStatus = "Online"
	location := "Website"
	rec.LastLocation = &location
	rec.Badges = []string{"Veteran", "Friendship"}
	rec.PromotionChannels = map[string]any{"twitter": "@someuser"}
	return rec
}

func newTestCache(t *testing.T) (FileCache, *chrono.FixedTime, *telemetrytest.Recorder) {
	clock := chrono.NewFixedTime(epoch)
	tel := &telemetrytest.Recorder{}
	return NewFileCache(t.TempDir(), time.Hour, clock, tel), clock, tel
}

func TestSanitizeKey(t *testing.T) {
	testCases := []struct {
		in     string
		expect string
	}{
		{"SomeUser", "SomeUser"},
		{"some user", "someuser"},
		{"../../etc/passwd", "etcpasswd"},
		{"name_with-dash", "name_with-dash"},
		{"ünïcödé", "ünïcödé"},
		{"a.b", "ab"},
		{"!!!", "_"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, SanitizeKey(test.in), test.in)
	}
}

func TestRoundTrip(t *testing.T) {
	c, _, _ := newTestCache(t)
	rec := sampleRecord()

	require.NoError(t, c.Write("SomeUser", rec))
	got, ok := c.Read("SomeUser")
	require.True(t, ok)

	diff := cmp.Diff(rec, got)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestExpiry(t *testing.T) {
	c, clock, _ := newTestCache(t)
	require.NoError(t, c.Write("123", sampleRecord()))

	clock.Set(epoch.Add(time.Hour - time.Second))
	_, ok := c.Read("123")
	require.True(t, ok)

	clock.Set(epoch.Add(time.Hour + time.Second))
	_, ok = c.Read("123")
	require.False(t, ok)

	// expired entries are left on disk
	_, err := os.Stat(filepath.Join(c.Dir(), "123.json"))
	require.NoError(t, err)
}

func TestAbsentEntries(t *testing.T) {
	c, _, tel := newTestCache(t)

	_, ok := c.Read("nobody")
	require.False(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "broken.json"), []byte("{not json"), 0644))
	_, ok = c.Read("broken")
	require.False(t, ok)
	require.True(t, tel.Has(telemetrytest.KindWarning, report_cache_read))
}

func TestReadNullCollections(t *testing.T) {
	c, _, _ := newTestCache(t)

	entry := `{
    "timestamp": 1719835200,
    "info": {
        "account_id": "999",
        "previous_aliases": null,
        "groups": null,
        "friends_list": null,
        "followers_list": null,
        "following_list": null,
        "badges": null,
        "promotion_channels": null
    }
}`
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "999.json"), []byte(entry), 0644))

	rec, ok := c.Read("999")
	require.True(t, ok)
	require.NotNil(t, rec.PreviousAliases)
	require.NotNil(t, rec.Groups)
	require.NotNil(t, rec.FriendsList)
	require.NotNil(t, rec.FollowersList)
	require.NotNil(t, rec.FollowingList)
	require.NotNil(t, rec.Badges)
	require.NotNil(t, rec.PromotionChannels)
	require.Empty(t, rec.Badges)
}

func TestSanitizedCollision(t *testing.T) {
	c, _, _ := newTestCache(t)
	rec := sampleRecord()
	require.NoError(t, c.Write("some user", rec))

	got, ok := c.Read("someuser")
	require.True(t, ok)
	require.Equal(t, rec.AccountID, got.AccountID)
}

func TestOverwrite(t *testing.T) {
	c, clock, _ := newTestCache(t)
	require.NoError(t, c.Write("123", sampleRecord()))

	clock.Advance(2 * time.Hour)
	newer := sampleRecord()
	newer.Alias = "Renamed"
	require.NoError(t, c.Write("123", newer))

	got, ok := c.Read("123")
	require.True(t, ok)
	require.Equal(t, "Renamed", got.Alias)
}

func TestFileLayout(t *testing.T) {
	c, _, _ := newTestCache(t)
	require.NoError(t, c.Write("123", sampleRecord()))

	buff, err := os.ReadFile(filepath.Join(c.Dir(), "123.json"))
	require.NoError(t, err)
	require.Contains(t, string(buff), "\"timestamp\": 1719835200")
	require.Contains(t, string(buff), "\n    \"info\": {")
}

func TestEntriesAndClear(t *testing.T) {
	c, clock, _ := newTestCache(t)
	require.NoError(t, c.Write("old", sampleRecord()))
	clock.Advance(90 * time.Minute)
	require.NoError(t, c.Write("new", sampleRecord()))
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "junk.json"), []byte("nope"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "notes.txt"), []byte("keep"), 0644))

	entries, err := c.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "new", entries[0].Key)
	require.False(t, entries[0].Expired)
	require.Equal(t, time.Duration(0), entries[0].Age)
	require.Equal(t, "old", entries[1].Key)
	require.True(t, entries[1].Expired)
	require.Equal(t, "SomeUser", entries[1].Alias)

	removed, err := c.Clear()
	require.NoError(t, err)
	require.Equal(t, 3, removed)

	entries, err = c.Entries()
	require.NoError(t, err)
	require.Empty(t, entries)
	_, err = os.Stat(filepath.Join(c.Dir(), "notes.txt"))
	require.NoError(t, err)
}

func TestMissingDir(t *testing.T) {
	c := NewFileCache(filepath.Join(t.TempDir(), "does", "not", "exist"), time.Hour, chrono.NewFixedTime(epoch), &telemetrytest.Recorder{})

	entries, err := c.Entries()
	require.NoError(t, err)
	require.Empty(t, entries)

	removed, err := c.Clear()
	require.NoError(t, err)
	require.Zero(t, removed)

	require.NoError(t, c.Write("x", sampleRecord()))
	_, ok := c.Read("x")
	require.True(t, ok)
}
