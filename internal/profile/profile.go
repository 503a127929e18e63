// Package profile holds the merged public profile record and the helpers
// that derive its computed fields.
package profile

import (
	"fmt"
	"time"
)

const (
	// NotAvailable is the about-text value when nothing could be scraped.
	NotAvailable = "Not available"
	// Unknown is used for presence and account age when they can't be determined.
	Unknown = "Unknown"
)

type Group struct {
	Name        string `json:"name"`
	Link        string `json:"link"`
	MemberCount int64  `json:"member_count"`
}

// Entity is one member of a friends/followers/following list.
type Entity struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
}

// Record is the merged profile, every field always holds either a fetched
// value or its fallback so it is safe to serialize under partial failure.
type Record struct {
	AccountID        string `json:"account_id"`
	Alias            string `json:"alias"`
	DisplayName      string `json:"display_name"`
	Description      string `json:"description"`
	IsBanned         bool   `json:"is_banned"`
	HasVerifiedBadge bool   `json:"has_verified_badge"`
	JoinTimestamp    string `json:"join_timestamp"`
	AccountAge       string `json:"account_age"`

	FriendsCount   int `json:"friends_count"`
	FollowersCount int `json:"followers_count"`
	FollowingCount int `json:"following_count"`

	PreviousAliases []string `json:"previous_aliases"`
	Groups          []Group  `json:"groups"`
	AboutText       string   `json:"about_text"`

	FriendsList   []Entity `json:"friends_list"`
	FollowersList []Entity `json:"followers_list"`
	FollowingList []Entity `json:"following_list"`

	PresenceStatus      string  `json:"presence_status"`
	LastLocation        *string `json:"last_location,omitempty"`
	CurrentPlaceID      *int64  `json:"current_place_id,omitempty"`
	LastOnlineTimestamp *string `json:"last_online_timestamp,omitempty"`

	Badges            []string       `json:"badges"`
	PromotionChannels map[string]any `json:"promotion_channels"`
}

// New returns a record for accountID with every fallback populated.
func New(accountID string) Record {
	return Record{
		AccountID:         accountID,
		AccountAge:        Unknown,
		PreviousAliases:   []string{},
		Groups:            []Group{},
		AboutText:         NotAvailable,
		FriendsList:       []Entity{},
		FollowersList:     []Entity{},
		FollowingList:     []Entity{},
		PresenceStatus:    Unknown,
		Badges:            []string{},
		PromotionChannels: map[string]any{},
	}
}

// Normalize replaces nil collections with their empty fallbacks, for records
// that did not come from New.
func (r *Record) Normalize() {
	if r.PreviousAliases == nil {
		r.PreviousAliases = []string{}
	}
	if r.Groups == nil {
		r.Groups = []Group{}
	}
	if r.FriendsList == nil {
		r.FriendsList = []Entity{}
	}
	if r.FollowersList == nil {
		r.FollowersList = []Entity{}
	}
	if r.FollowingList == nil {
		r.FollowingList = []Entity{}
	}
	if r.Badges == nil {
		r.Badges = []string{}
	}
	if r.PromotionChannels == nil {
		r.PromotionChannels = map[string]any{}
	}
}

// ErrorDocument is the serialized shape of a caller-visible lookup failure.
type ErrorDocument struct {
	Error string `json:"error"`
}

type PresenceType int

const (
	PresenceOffline PresenceType = iota
	PresenceOnline
	PresenceInGame
	PresenceInStudio
	PresenceInvisible
)

var presenceLabels = map[PresenceType]string{
	PresenceOffline:   "Offline",
	PresenceOnline:    "Online",
	PresenceInGame:    "In-Game",
	PresenceInStudio:  "In-Studio",
	PresenceInvisible: "Invisible",
}

func (p PresenceType) String() string {
	label, ok := presenceLabels[p]
	if !ok {
		return Unknown
	}
	return label
}

const daysPerYear = 365

// AccountAge renders the time between `created` (ISO-8601) and now as
// "<y> Years, <d> Days". Years are a flat 365 days, leap days are not
// corrected for. Anything unparsable gives Unknown.
func AccountAge(created string, now time.Time) string {
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Unknown
	}
	days := int(now.Sub(t).Hours() / 24)
	if days < 0 {
		return Unknown
	}
	return fmt.Sprintf("%d Years, %d Days", days/daysPerYear, days%daysPerYear)
}
