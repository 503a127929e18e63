// Package resolver turns a user supplied identifier into a canonical account id.
package resolver

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"socmint/internal/components/telemetry"
	"socmint/internal/platform"

	"github.com/antzucaro/matchr"
)

const report_resolver_resolve = "resolver.resolve"

const maxSuggestions = 3

// Searcher is the part of platform.Directory the resolver needs.
type Searcher interface {
	SearchUsers(ctx context.Context, keyword string) ([]platform.UserSummary, error)
}

// IsCanonical reports whether identifier is already a numeric account id.
func IsCanonical(identifier string) bool {
	if identifier == "" {
		return false
	}
	for _, r := range identifier {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Resolve returns the canonical id for identifier. Numeric identifiers are
// returned as is without searching, names must match a search result's
// username exactly (ignoring case). ok is false on a failed search or when
// nothing matches exactly.
func Resolve(ctx context.Context, searcher Searcher, identifier string, tel telemetry.API) (id string, ok bool) {
	if IsCanonical(identifier) {
		return identifier, true
	}

	users, err := searcher.SearchUsers(ctx, identifier)
	if err != nil {
		tel.ReportWarning(report_resolver_resolve, err, identifier)
		return "", false
	}

	for _, u := range users {
		if strings.EqualFold(u.Name, identifier) {
			id := strconv.FormatInt(u.ID, 10)
			tel.ReportSuccess("found uid", id, identifier)
			return id, true
		}
	}

	tel.ReportWarning(report_resolver_resolve, "user not found", identifier, suggestions(identifier, users))
	return "", false
}

// suggestions ranks the near matches by Jaro-Winkler similarity, it is only
// used to make the "not found" report more useful.
func suggestions(identifier string, users []platform.UserSummary) []string {
	type scored struct {
		name  string
		score float64
	}
	target := strings.ToLower(identifier)
	ranked := make([]scored, len(users))
	for i, u := range users {
		ranked[i] = scored{
			name:  u.Name,
			score: matchr.JaroWinkler(target, strings.ToLower(u.Name), false),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	names := []string{}
	for i := 0; i < len(ranked) && i < maxSuggestions; i++ {
		names = append(names, ranked[i].name)
	}
	return names
}
