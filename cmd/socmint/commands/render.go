package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"socmint/internal/cache"
	"socmint/internal/profile"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// maxListed is how many list members a table row shows before eliding.
const maxListed = 5

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func joinListed(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	if len(items) <= maxListed {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(items[:maxListed], ", "), len(items)-maxListed)
}

func entityNames(entities []profile.Entity) string {
	names := make([]string, len(entities))
	for i, e := range entities {
		names[i] = e.Name
	}
	return joinListed(names)
}

func optional[T any](v *T) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func recordTable(out io.Writer, rec profile.Record) table.Writer {
	groups := make([]string, len(rec.Groups))
	for i, g := range rec.Groups {
		groups[i] = fmt.Sprintf("%s (%d)", g.Name, g.MemberCount)
	}
	channels := make([]string, 0, len(rec.PromotionChannels))
	for name, handle := range rec.PromotionChannels {
		channels = append(channels, fmt.Sprintf("%s: %v", name, handle))
	}
	sort.Strings(channels)

	t := newTable(out)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"account_id", rec.AccountID},
		{"alias", rec.Alias},
		{"display_name", rec.DisplayName},
		{"description", rec.Description},
		{"is_banned", rec.IsBanned},
		{"has_verified_badge", rec.HasVerifiedBadge},
		{"join_timestamp", rec.JoinTimestamp},
		{"account_age", rec.AccountAge},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"friends", fmt.Sprintf("%d: %s", rec.FriendsCount, entityNames(rec.FriendsList))},
		{"followers", fmt.Sprintf("%d: %s", rec.FollowersCount, entityNames(rec.FollowersList))},
		{"following", fmt.Sprintf("%d: %s", rec.FollowingCount, entityNames(rec.FollowingList))},
		{"previous_aliases", joinListed(rec.PreviousAliases)},
		{"groups", joinListed(groups)},
		{"about_text", rec.AboutText},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"presence_status", rec.PresenceStatus},
		{"last_location", optional(rec.LastLocation)},
		{"current_place_id", optional(rec.CurrentPlaceID)},
		{"last_online_timestamp", optional(rec.LastOnlineTimestamp)},
		{"badges", joinListed(rec.Badges)},
		{"promotion_channels", joinListed(channels)},
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: text.Colors{text.Bold}},
		{Number: 2, WidthMax: 80},
	})
	return t
}

func entriesTable(out io.Writer, entries []cache.Entry) table.Writer {
	t := newTable(out)
	t.AppendHeader(table.Row{"Key", "Account", "Alias", "Written", "Age", "Status"})
	for _, e := range entries {
		status := text.FgGreen.Sprint("fresh")
		if e.Expired {
			status = text.FgYellow.Sprint("expired")
		}
		t.AppendRow(table.Row{
			e.Key,
			e.AccountID,
			e.Alias,
			e.WrittenAt.Local().Format(time.DateTime),
			e.Age.Round(time.Second).String(),
			status,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "total", len(entries)})
	return t
}
