package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"socmint/internal/cache"
	"socmint/internal/profile"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	var out bytes.Buffer
	rec := profile.New("1")
	rec.Description = "<b>héllo</b>"
	require.NoError(t, writeJSON(&out, rec))

	require.Contains(t, out.String(), "\n    \"account_id\": \"1\",")
	require.Contains(t, out.String(), "<b>héllo</b>")
	require.NotContains(t, out.String(), "last_location")
}

func TestJoinListed(t *testing.T) {
	testCases := []struct {
		items  []string
		expect string
	}{
		{nil, "-"},
		{[]string{"a"}, "a"},
		{[]string{"a", "b", "c", "d", "e"}, "a, b, c, d, e"},
		{[]string{"a", "b", "c", "d", "e", "f", "g"}, "a, b, c, d, e (+2 more)"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, joinListed(test.items))
	}
}

func TestRecordTable(t *testing.T) {
	text.DisableColors()
	defer text.EnableColors()

	rec := profile.New("999")
	rec.Alias = "SomeUser"
	rec.FriendsCount = 1
	rec.FriendsList = []profile.Entity{{Name: "Pal"}}
	placeId := int64(42)
	rec.CurrentPlaceID = &placeId
	rec.PromotionChannels = map[string]any{"youtube": "yt", "twitter": "@x"}

	rendered := recordTable(&bytes.Buffer{}, rec).Render()
	require.Contains(t, rendered, "SomeUser")
	require.Contains(t, rendered, "1: Pal")
	require.Contains(t, rendered, "42")
	require.Contains(t, rendered, "twitter: @x, youtube: yt")
	require.Contains(t, rendered, profile.NotAvailable)
}

func TestEntriesTable(t *testing.T) {
	text.DisableColors()
	defer text.EnableColors()

	rendered := entriesTable(&bytes.Buffer{}, []cache.Entry{
		{Key: "someUser", AccountID: "999", Alias: "SomeUser", WrittenAt: time.Now(), Age: time.Minute},
		{Key: "123", AccountID: "123", Age: 7 * time.Hour, Expired: true},
	}).Render()
	require.Equal(t, 1, strings.Count(rendered, "fresh"))
	require.Equal(t, 1, strings.Count(rendered, "expired"))
	require.Contains(t, rendered, "1m0s")
}
