package profile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestAccountAge(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		created string
		expect  string
	}{
		{created: "2024-06-01T00:00:00Z", expect: "0 Years, 0 Days"},
		{created: "2023-06-02T12:00:00Z", expect: "1 Years, 0 Days"},
		{created: "2014-03-10T17:25:45.18Z", expect: "10 Years, 85 Days"},
		{created: "2020-01-01T00:00:00.000+00:00", expect: "4 Years, 153 Days"},
		{created: "not a time", expect: Unknown},
		{created: "", expect: Unknown},
		{created: "2030-01-01T00:00:00Z", expect: Unknown},
	}

	for _, test := range testCases {
		require.Equal(t, test.expect, AccountAge(test.created, now), test.created)
	}
}

func TestPresenceType(t *testing.T) {
	require.Equal(t, "Offline", PresenceOffline.String())
	require.Equal(t, "In-Game", PresenceInGame.String())
	require.Equal(t, "Invisible", PresenceInvisible.String())
	require.Equal(t, Unknown, PresenceType(9).String())
	require.Equal(t, Unknown, PresenceType(-1).String())
}

func TestNewRecordFallbacks(t *testing.T) {
	record := New("42")

	out, err := json.Marshal(record)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(out, &fields))

	require.Equal(t, "42", fields["account_id"])
	require.Equal(t, NotAvailable, fields["about_text"])
	require.Equal(t, Unknown, fields["presence_status"])
	require.Equal(t, []any{}, fields["friends_list"])
	require.Equal(t, map[string]any{}, fields["promotion_channels"])
	require.NotContains(t, fields, "last_location")
	require.NotContains(t, fields, "current_place_id")
	require.NotContains(t, fields, "last_online_timestamp")
}

func TestRecordRoundTrip(t *testing.T) {
	location := "Website"
	placeId := int64(1818)
	lastOnline := "2024-05-01T10:00:00Z"

	record := New("999")
	record.Alias = "SomeUser"
	record.DisplayName = "Some"
	record.Groups = []Group{{Name: "g", Link: "https://www.roblox.com/groups/1", MemberCount: 12}}
	record.FriendsList = []Entity{{Name: "friend", ProfileURL: "https://www.roblox.com/users/2/profile"}}
	record.LastLocation = &location
	record.CurrentPlaceID = &placeId
	record.LastOnlineTimestamp = &lastOnline
	record.PromotionChannels = map[string]any{"twitter": "handle", "facebook": nil}

	serialized, err := json.Marshal(record)
	require.NoError(t, err)
	var decoded Record
	require.NoError(t, json.Unmarshal(serialized, &decoded))
	require.Empty(t, cmp.Diff(record, decoded))
}

func TestNormalize(t *testing.T) {
	rec := Record{AccountID: "1", Badges: []string{"Veteran"}}
	rec.Normalize()

	expected := New("1")
	expected.AccountAge = ""
	expected.AboutText = ""
	expected.PresenceStatus = ""
	expected.Badges = []string{"Veteran"}
	diff := cmp.Diff(expected, rec)
	if diff != "" {
		t.Fatal(diff)
	}
}
