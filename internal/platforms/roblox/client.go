// Package roblox implements platform.Service against the public roblox web APIs.
package roblox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"socmint/internal/components/assert"
	"socmint/internal/components/telemetry"
	"socmint/internal/components/useragent"
	"socmint/internal/platform"
	"socmint/internal/profile"
	"socmint/internal/transport"
	"socmint/pkg/htmlutil"
)

const (
	report_client_search_users       = "client.search-users"
	report_client_fetch_profile      = "client.fetch-profile"
	report_client_entity_count       = "client.entity-count"
	report_client_entity_page        = "client.entity-page"
	report_client_previous_names     = "client.previous-names"
	report_client_groups             = "client.groups"
	report_client_about_text         = "client.about-text"
	report_client_presence           = "client.presence"
	report_client_badges             = "client.badges"
	report_client_promotion_channels = "client.promotion-channels"
)

const (
	searchLimit  = 10
	historyLimit = 50
	// PageSize is the largest page the friends API hands out.
	PageSize = 100

	sessionCookie = ".ROBLOSECURITY"
	aboutSelector = "span.profile-about-content-text"
)

// Endpoints are the base urls of each roblox API host.
type Endpoints struct {
	Users              string
	Groups             string
	Friends            string
	Presence           string
	AccountInformation string
	Web                string
}

var DefaultEndpoints = Endpoints{
	Users:              "https://users.roblox.com",
	Groups:             "https://groups.roblox.com",
	Friends:            "https://friends.roblox.com",
	Presence:           "https://presence.roblox.com",
	AccountInformation: "https://accountinformation.roblox.com",
	Web:                "https://www.roblox.com",
}

// SingleHost points every API at one base url, for tests and mirrors.
func SingleHost(base string) Endpoints {
	return Endpoints{
		Users:              base,
		Groups:             base,
		Friends:            base,
		Presence:           base,
		AccountInformation: base,
		Web:                base,
	}
}

type Options struct {
	// Endpoints defaults to DefaultEndpoints when left empty.
	Endpoints Endpoints
	// SessionToken is passed through as the .ROBLOSECURITY cookie if set.
	SessionToken string
	UserAgents   useragent.Provider
}

type Client struct {
	http         transport.Doer
	endpoints    Endpoints
	userAgents   useragent.Provider
	sessionToken string
	tel          telemetry.API
}

var _ platform.Service = (*Client)(nil)

func NewClient(doer transport.Doer, opts Options, tel telemetry.API) *Client {
	assert.NotNil(doer)
	assert.NotNil(tel)

	if opts.Endpoints == (Endpoints{}) {
		opts.Endpoints = DefaultEndpoints
	}
	if opts.UserAgents == nil {
		opts.UserAgents = useragent.NewPool(nil, tel)
	}

	return &Client{
		http:         doer,
		endpoints:    opts.Endpoints,
		userAgents:   opts.UserAgents,
		sessionToken: opts.SessionToken,
		tel:          telemetry.NewScopedAPI("roblox", tel),
	}
}

func (c *Client) Name() string {
	return "roblox"
}

func (c *Client) request(method, link string, body any) transport.Request {
	req := transport.Request{
		Method:  method,
		URL:     link,
		Headers: map[string]string{"User-Agent": c.userAgents.Next()},
		JSON:    body,
	}
	if c.sessionToken != "" {
		req.Cookies = []*http.Cookie{{Name: sessionCookie, Value: c.sessionToken}}
	}
	return req
}

// getJSON fetches link and decodes the body into out, failures are reported
// under reportId.
func (c *Client) getJSON(ctx context.Context, reportId, link string, out any) error {
	res, err := c.http.Do(ctx, c.request(http.MethodGet, link, nil))
	if err != nil {
		c.tel.ReportBroken(reportId, fmt.Errorf("fetch: %w", err), link)
		return err
	}
	err = res.Decode(out)
	if err != nil {
		c.tel.ReportBroken(reportId, err, link)
		return err
	}
	return nil
}

func (c *Client) SearchUsers(ctx context.Context, keyword string) ([]platform.UserSummary, error) {
	c.tel.ReportInfo("searching uid", keyword)

	query := url.Values{}
	query.Set("keyword", keyword)
	query.Set("limit", strconv.Itoa(searchLimit))
	link := fmt.Sprintf("%s/v1/users/search?%s", c.endpoints.Users, query.Encode())

	var res struct {
		Data []platform.UserSummary `json:"data"`
	}
	err := c.getJSON(ctx, report_client_search_users, link, &res)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *Client) FetchProfile(ctx context.Context, accountId string) (platform.BaseProfile, error) {
	link := fmt.Sprintf("%s/v1/users/%s", c.endpoints.Users, url.PathEscape(accountId))

	var base platform.BaseProfile
	err := c.getJSON(ctx, report_client_fetch_profile, link, &base)
	if err != nil {
		return platform.BaseProfile{}, err
	}
	return base, nil
}

func (c *Client) EntityCount(ctx context.Context, accountId string, category platform.Category) (int, error) {
	link := fmt.Sprintf(
		"%s/v1/users/%s/%s/count",
		c.endpoints.Friends, url.PathEscape(accountId), category,
	)

	var res struct {
		Count int `json:"count"`
	}
	err := c.getJSON(ctx, report_client_entity_count, link, &res)
	if err != nil {
		return 0, err
	}
	return res.Count, nil
}

func (c *Client) EntityPage(ctx context.Context, accountId string, category platform.Category, cursor string) (platform.EntityPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(PageSize))
	query.Set("cursor", cursor)
	link := fmt.Sprintf(
		"%s/v1/users/%s/%s?%s",
		c.endpoints.Friends, url.PathEscape(accountId), category, query.Encode(),
	)

	var res struct {
		Data           []platform.EntityItem `json:"data"`
		NextPageCursor *string               `json:"nextPageCursor"`
	}
	err := c.getJSON(ctx, report_client_entity_page, link, &res)
	if err != nil {
		return platform.EntityPage{}, err
	}

	page := platform.EntityPage{Items: res.Data}
	if res.NextPageCursor != nil {
		page.NextCursor = *res.NextPageCursor
	}
	return page, nil
}

func (c *Client) ProfileURL(id int64) string {
	return fmt.Sprintf("%s/users/%d/profile", c.endpoints.Web, id)
}

func (c *Client) PreviousNames(ctx context.Context, accountId string) ([]string, error) {
	c.tel.ReportInfo("fetching previous usernames", accountId)

	link := fmt.Sprintf(
		"%s/v1/users/%s/username-history?limit=%d",
		c.endpoints.Users, url.PathEscape(accountId), historyLimit,
	)

	var res struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	err := c.getJSON(ctx, report_client_previous_names, link, &res)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(res.Data))
	for i, entry := range res.Data {
		names[i] = entry.Name
	}
	return names, nil
}

func (c *Client) Groups(ctx context.Context, accountId string) ([]profile.Group, error) {
	c.tel.ReportInfo("fetching groups", accountId)

	link := fmt.Sprintf("%s/v2/users/%s/groups/roles", c.endpoints.Groups, url.PathEscape(accountId))

	var res struct {
		Data []struct {
			Group struct {
				ID          int64  `json:"id"`
				Name        string `json:"name"`
				MemberCount int64  `json:"memberCount"`
			} `json:"group"`
		} `json:"data"`
	}
	err := c.getJSON(ctx, report_client_groups, link, &res)
	if err != nil {
		return nil, err
	}

	groups := make([]profile.Group, len(res.Data))
	for i, role := range res.Data {
		groups[i] = profile.Group{
			Name:        role.Group.Name,
			Link:        fmt.Sprintf("%s/groups/%d", c.endpoints.Web, role.Group.ID),
			MemberCount: role.Group.MemberCount,
		}
	}
	return groups, nil
}

func (c *Client) AboutText(ctx context.Context, accountId string) (string, bool, error) {
	c.tel.ReportInfo("fetching profile description", accountId)

	link := fmt.Sprintf("%s/users/%s/profile", c.endpoints.Web, url.PathEscape(accountId))
	res, err := c.http.Do(ctx, c.request(http.MethodGet, link, nil))
	if err != nil {
		c.tel.ReportBroken(report_client_about_text, fmt.Errorf("fetch: %w", err), link)
		return "", false, err
	}

	text, ok := htmlutil.ElementText(res.Body, aboutSelector)
	if !ok {
		c.tel.ReportWarning(report_client_about_text, "about section not found", link)
	}
	return text, ok, nil
}

var errNoPresence = errors.New("presence response had no entries")

func (c *Client) Presence(ctx context.Context, accountId string) (platform.Presence, error) {
	c.tel.ReportInfo("fetching presence", accountId)

	uid, err := strconv.ParseInt(accountId, 10, 64)
	if err != nil {
		c.tel.ReportBroken(report_client_presence, fmt.Errorf("parse uid: %w", err), accountId)
		return platform.Presence{}, err
	}

	link := fmt.Sprintf("%s/v1/presence/users", c.endpoints.Presence)
	body := map[string][]int64{"userIds": {uid}}
	res, err := c.http.Do(ctx, c.request(http.MethodPost, link, body))
	if err != nil {
		c.tel.ReportBroken(report_client_presence, fmt.Errorf("fetch: %w", err), link)
		return platform.Presence{}, err
	}

	var parsed struct {
		UserPresences []platform.Presence `json:"userPresences"`
	}
	err = res.Decode(&parsed)
	if err != nil {
		c.tel.ReportBroken(report_client_presence, err, link)
		return platform.Presence{}, err
	}
	if len(parsed.UserPresences) == 0 {
		c.tel.ReportBroken(report_client_presence, errNoPresence, link)
		return platform.Presence{}, errNoPresence
	}
	return parsed.UserPresences[0], nil
}

func (c *Client) Badges(ctx context.Context, accountId string) ([]string, error) {
	c.tel.ReportInfo("fetching badges", accountId)

	link := fmt.Sprintf(
		"%s/v1/users/%s/roblox-badges",
		c.endpoints.AccountInformation, url.PathEscape(accountId),
	)

	var res []struct {
		ID int64 `json:"id"`
	}
	err := c.getJSON(ctx, report_client_badges, link, &res)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(res))
	for i, b := range res {
		ids[i] = b.ID
	}
	return badgeLabels(ids), nil
}

func (c *Client) PromotionChannels(ctx context.Context, accountId string) (map[string]any, error) {
	c.tel.ReportInfo("fetching promo channels", accountId)

	link := fmt.Sprintf(
		"%s/v1/users/%s/promotion-channels",
		c.endpoints.Users, url.PathEscape(accountId),
	)

	var res struct {
		PromotionChannels map[string]any `json:"promotionChannels"`
	}
	err := c.getJSON(ctx, report_client_promotion_channels, link, &res)
	if err != nil {
		return nil, err
	}
	if res.PromotionChannels == nil {
		return map[string]any{}, nil
	}
	return res.PromotionChannels, nil
}
