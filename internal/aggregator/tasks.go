package aggregator

import (
	"context"

	"socmint/internal/fanout"
	"socmint/internal/platform"
	"socmint/internal/profile"

	"go.opentelemetry.io/otel/attribute"
)

const (
	taskPreviousAliases   = "previous_aliases"
	taskGroups            = "groups"
	taskAboutText         = "about_text"
	taskFriendsList       = "friends_list"
	taskFollowersList     = "followers_list"
	taskFollowingList     = "following_list"
	taskPresence          = "presence"
	taskBadges            = "badges"
	taskPromotionChannels = "promotion_channels"
)

func (e Engine) tasks(accountId string, limit int) []fanout.Task {
	entities := func(category platform.Category) func(context.Context) (any, error) {
		return func(ctx context.Context) (any, error) {
			return e.paginator.Collect(ctx, accountId, category, limit), nil
		}
	}

	return []fanout.Task{
		{Name: taskPreviousAliases, Run: func(ctx context.Context) (any, error) {
			return e.service.PreviousNames(ctx, accountId)
		}},
		{Name: taskGroups, Run: func(ctx context.Context) (any, error) {
			return e.service.Groups(ctx, accountId)
		}},
		{Name: taskAboutText, Run: func(ctx context.Context) (any, error) {
			text, ok, err := e.service.AboutText(ctx, accountId)
			if err != nil {
				return nil, err
			}
			if !ok {
				return profile.NotAvailable, nil
			}
			return text, nil
		}},
		{Name: taskFriendsList, Run: entities(platform.Friends)},
		{Name: taskFollowersList, Run: entities(platform.Followers)},
		{Name: taskFollowingList, Run: entities(platform.Followings)},
		{Name: taskPresence, Run: func(ctx context.Context) (any, error) {
			return e.service.Presence(ctx, accountId)
		}},
		{Name: taskBadges, Run: func(ctx context.Context) (any, error) {
			return e.service.Badges(ctx, accountId)
		}},
		{Name: taskPromotionChannels, Run: func(ctx context.Context) (any, error) {
			return e.service.PromotionChannels(ctx, accountId)
		}},
	}
}

func (e Engine) fanOut(ctx context.Context, accountId string, limit int) map[string]fanout.Result {
	ctx, span := tracer.Start(ctx, "FanOut")
	defer span.End()
	span.SetAttributes(attribute.String("mode", e.scheduler.Mode().String()))

	results := e.scheduler.Run(ctx, e.tasks(accountId, limit))

	absent := 0
	for _, res := range results {
		if res.Absent() {
			absent++
		}
	}
	span.SetAttributes(attribute.Int("absent", absent))
	return results
}

// value returns the result of name as T, ok is false when the task failed or
// produced something else.
func value[T any](results map[string]fanout.Result, name string) (T, bool) {
	var zero T
	res, ok := results[name]
	if !ok || res.Absent() {
		return zero, false
	}
	v, ok := res.Value.(T)
	return v, ok
}

// merge copies every present result into rec, absent ones keep the fallback
// set by profile.New.
func merge(rec *profile.Record, results map[string]fanout.Result) {
	if v, ok := value[[]string](results, taskPreviousAliases); ok && v != nil {
		rec.PreviousAliases = v
	}
	if v, ok := value[[]profile.Group](results, taskGroups); ok && v != nil {
		rec.Groups = v
	}
	if v, ok := value[string](results, taskAboutText); ok {
		rec.AboutText = v
	}
	if v, ok := value[[]profile.Entity](results, taskFriendsList); ok && v != nil {
		rec.FriendsList = v
	}
	if v, ok := value[[]profile.Entity](results, taskFollowersList); ok && v != nil {
		rec.FollowersList = v
	}
	if v, ok := value[[]profile.Entity](results, taskFollowingList); ok && v != nil {
		rec.FollowingList = v
	}
	if v, ok := value[platform.Presence](results, taskPresence); ok {
		rec.PresenceStatus = v.Type.String()
		rec.LastLocation = v.LastLocation
		rec.CurrentPlaceID = v.PlaceID
		rec.LastOnlineTimestamp = v.LastOnline
	}
	if v, ok := value[[]string](results, taskBadges); ok && v != nil {
		rec.Badges = v
	}
	if v, ok := value[map[string]any](results, taskPromotionChannels); ok && v != nil {
		rec.PromotionChannels = v
	}
}
