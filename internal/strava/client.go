package strava

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"strava-dashboard/internal/auth"
	"strava-dashboard/internal/schedule"
)

const BaseURL = "https://www.strava.com/api/v3"

// MaxPerPage is the largest page size Strava accepts.
const MaxPerPage = 100

// DefaultStreamKeys are the streams the speed comparison needs.
var DefaultStreamKeys = []string{"time", "velocity_smooth"}

// ClientOptions configures a Client. Zero values get defaults.
type ClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Clock      schedule.Clock
	Logger     zerolog.Logger
}

// Client is a typed Strava API client. Every call goes through the Fetcher,
// so token refresh, rate limiting and the circuit breaker apply uniformly.
type Client struct {
	baseURL     string
	fetcher     *Fetcher
	rateLimiter *RateLimiter
}

// NewClient creates a Strava API client over the given credentials.
func NewClient(creds auth.CredentialStore, refresher Refresher, opts ClientOptions) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = BaseURL
	}
	limiter := NewRateLimiter(opts.Clock)
	return &Client{
		baseURL:     base,
		rateLimiter: limiter,
		fetcher: NewFetcher(creds, refresher, FetcherConfig{
			HTTPClient: opts.HTTPClient,
			Timeout:    opts.Timeout,
			Limiter:    limiter,
			Logger:     opts.Logger,
		}),
	}
}

// GetAthlete fetches the authenticated athlete.
func (c *Client) GetAthlete(ctx context.Context) (*Athlete, error) {
	var athlete Athlete
	if err := c.get(ctx, "/athlete", nil, &athlete); err != nil {
		return nil, err
	}
	return &athlete, nil
}

// GetAthleteStats fetches lifetime, year-to-date and recent totals.
func (c *Client) GetAthleteStats(ctx context.Context, athleteID int64) (*AthleteStats, error) {
	var stats AthleteStats
	path := fmt.Sprintf("/athletes/%d/stats", athleteID)
	if err := c.get(ctx, path, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetActivities fetches one page of the athlete's activities, newest first.
// A zero after means no lower bound.
func (c *Client) GetActivities(ctx context.Context, after time.Time, page, perPage int) ([]Activity, error) {
	params := url.Values{}
	if !after.IsZero() {
		params.Set("after", strconv.FormatInt(after.Unix(), 10))
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	var activities []Activity
	if err := c.get(ctx, "/athlete/activities", params, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// GetAllActivities pages through activities after a given time until the
// list runs out or limit is reached. A limit of 0 means no limit.
func (c *Client) GetAllActivities(ctx context.Context, after time.Time, limit int, onProgress func(fetched int)) ([]Activity, error) {
	var all []Activity
	perPage := MaxPerPage
	if limit > 0 && limit < perPage {
		perPage = limit
	}

	for page := 1; ; page++ {
		activities, err := c.GetActivities(ctx, after, page, perPage)
		if err != nil {
			return all, fmt.Errorf("fetching page %d: %w", page, err)
		}
		if len(activities) == 0 {
			break
		}

		all = append(all, activities...)
		if limit > 0 && len(all) >= limit {
			all = all[:limit]
			if onProgress != nil {
				onProgress(len(all))
			}
			break
		}
		if onProgress != nil {
			onProgress(len(all))
		}
		if len(activities) < perPage {
			break
		}
	}

	return all, nil
}

// GetActivity fetches one activity without segment efforts.
func (c *Client) GetActivity(ctx context.Context, activityID int64) (*DetailedActivity, error) {
	return c.getActivity(ctx, activityID, false)
}

// GetActivityWithEfforts fetches one activity including all segment efforts.
func (c *Client) GetActivityWithEfforts(ctx context.Context, activityID int64) (*DetailedActivity, error) {
	return c.getActivity(ctx, activityID, true)
}

func (c *Client) getActivity(ctx context.Context, activityID int64, efforts bool) (*DetailedActivity, error) {
	var params url.Values
	if efforts {
		params = url.Values{"include_all_efforts": {"true"}}
	}
	var activity DetailedActivity
	path := fmt.Sprintf("/activities/%d", activityID)
	if err := c.get(ctx, path, params, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// GetActivityStreams fetches the requested streams keyed by type.
// With no keys it asks for DefaultStreamKeys.
func (c *Client) GetActivityStreams(ctx context.Context, activityID int64, keys ...string) (*Streams, error) {
	if len(keys) == 0 {
		keys = DefaultStreamKeys
	}
	params := url.Values{}
	params.Set("keys", strings.Join(keys, ","))
	params.Set("key_by_type", "true")

	var streams Streams
	path := fmt.Sprintf("/activities/%d/streams", activityID)
	if err := c.get(ctx, path, params, &streams); err != nil {
		return nil, err
	}
	return &streams, nil
}

// GetSegmentLeaderboard fetches the first leaderboard entry, which is the
// course record.
func (c *Client) GetSegmentLeaderboard(ctx context.Context, segmentID int64) (*Leaderboard, error) {
	params := url.Values{}
	params.Set("per_page", "1")
	params.Set("page", "1")

	var lb Leaderboard
	path := fmt.Sprintf("/segments/%d/leaderboard", segmentID)
	if err := c.get(ctx, path, params, &lb); err != nil {
		return nil, err
	}
	return &lb, nil
}

// RateLimitStatus returns the remaining requests in each window.
func (c *Client) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return c.rateLimiter.Status()
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	resp, err := c.fetcher.Do(ctx, Request{Method: http.MethodGet, URL: reqURL})
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
