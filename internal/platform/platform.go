// Package platform defines the capability set a social platform must offer
// for its profiles to be aggregated.
package platform

import (
	"context"

	"socmint/internal/profile"
)

// Category selects one of the account relation lists.
type Category string

const (
	Friends    Category = "friends"
	Followers  Category = "followers"
	Followings Category = "followings"
)

type UserSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type BaseProfile struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	DisplayName      string `json:"displayName"`
	Description      string `json:"description"`
	IsBanned         bool   `json:"isBanned"`
	HasVerifiedBadge bool   `json:"hasVerifiedBadge"`
	Created          string `json:"created"`
}

type EntityItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// EntityPage is one page of a cursor paginated relation list, an empty
// NextCursor means there are no further pages.
type EntityPage struct {
	Items      []EntityItem
	NextCursor string
}

type Presence struct {
	Type         profile.PresenceType `json:"userPresenceType"`
	LastLocation *string              `json:"lastLocation"`
	PlaceID      *int64               `json:"placeId"`
	LastOnline   *string              `json:"lastOnline"`
}

// Directory resolves and fetches accounts.
type Directory interface {
	SearchUsers(ctx context.Context, keyword string) ([]UserSummary, error)
	FetchProfile(ctx context.Context, accountId string) (BaseProfile, error)
}

// Graph exposes the social graph of an account.
type Graph interface {
	EntityCount(ctx context.Context, accountId string, category Category) (int, error)
	EntityPage(ctx context.Context, accountId string, category Category, cursor string) (EntityPage, error)
	ProfileURL(id int64) string
}

// Details are the independent single purpose lookups.
type Details interface {
	PreviousNames(ctx context.Context, accountId string) ([]string, error)
	Groups(ctx context.Context, accountId string) ([]profile.Group, error)
	// AboutText returns ok=false when the profile page has no about section.
	AboutText(ctx context.Context, accountId string) (text string, ok bool, err error)
	Presence(ctx context.Context, accountId string) (Presence, error)
	// Badges returns badge labels, ids the platform doesn't know are dropped.
	Badges(ctx context.Context, accountId string) ([]string, error)
	PromotionChannels(ctx context.Context, accountId string) (map[string]any, error)
}

// Service is implemented once per target platform.
type Service interface {
	Name() string
	Directory
	Graph
	Details
}
