package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/osvaldoandrade/tldw/internal/metrics"
	"github.com/patrickmn/go-cache"
	"resty.dev/v3"
)

// User-facing texts for the two failure classes. Task status messages carry
// these; wrapped causes stay in logs and spans.
const (
	UnavailableText = "A transcript is not available for this video. Captions may be disabled."
	FetchErrorText  = "An unexpected error occurred while trying to get the video transcript."
)

var (
	// ErrUnavailable means captions are disabled or no transcript exists for
	// the video/language.
	ErrUnavailable = errors.New("transcript unavailable")
	// ErrFetch covers every other retrieval failure: network, non-2xx,
	// malformed response.
	ErrFetch = errors.New("transcript fetch failed")
)

// UserText maps a Fetch error to the text shown to the caller.
func UserText(err error) string {
	if errors.Is(err, ErrUnavailable) {
		return UnavailableText
	}
	return FetchErrorText
}

type Client interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

type Options struct {
	BaseURL  string
	Language string
	Timeout  time.Duration
	CacheTTL time.Duration
	// Cache may be shared with the metrics collector; NewClient creates one
	// when absent.
	Cache  *cache.Cache
	Logger *slog.Logger
}

type client struct {
	http   *resty.Client
	lang   string
	cache  *cache.Cache
	logger *slog.Logger
}

// NewClient builds the YouTube transcript client. The resty client and the
// cache are created once and shared across all fetches.
func NewClient(opts Options) Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.youtube.com"
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 15 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Cache == nil {
		opts.Cache = cache.New(opts.CacheTTL, 10*time.Minute)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseURL)
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetHeader("Accept-Language", opts.Language)

	return &client{
		http:   httpClient,
		lang:   opts.Language,
		cache:  opts.Cache,
		logger: opts.Logger.With("component", "transcript"),
	}
}

func (c *client) Fetch(ctx context.Context, videoID string) (string, error) {
	key := videoID + ":" + c.lang
	if cached, found := c.cache.Get(key); found {
		metrics.TranscriptFetchesTotal.WithLabelValues("cached").Inc()
		return cached.(string), nil
	}

	text, err := c.fetch(ctx, videoID)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			metrics.TranscriptFetchesTotal.WithLabelValues("unavailable").Inc()
		} else {
			metrics.TranscriptFetchesTotal.WithLabelValues("error").Inc()
		}
		c.logger.Warn("transcript fetch failed", "video_id", videoID, "error", err)
		return "", err
	}

	metrics.TranscriptFetchesTotal.WithLabelValues("ok").Inc()
	c.cache.Set(key, text, cache.DefaultExpiration)
	return text, nil
}

func (c *client) fetch(ctx context.Context, videoID string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("v", videoID).
		Get("/watch")
	if err != nil {
		return "", fmt.Errorf("%w: loading watch page: %w", ErrFetch, err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("%w: watch page returned status %d", ErrFetch, resp.StatusCode())
	}

	tracks, err := parseCaptionTracks(resp.String())
	if err != nil {
		return "", err
	}

	track := pickTrack(tracks, c.lang)
	trackURL := track.BaseURL
	if !strings.Contains(trackURL, "fmt=json3") {
		trackURL += "&fmt=json3"
	}

	trackResp, err := c.http.R().SetContext(ctx).Get(trackURL)
	if err != nil {
		return "", fmt.Errorf("%w: loading caption track: %w", ErrFetch, err)
	}
	if trackResp.StatusCode() != 200 {
		return "", fmt.Errorf("%w: caption track returned status %d", ErrFetch, trackResp.StatusCode())
	}

	text, err := joinSegments([]byte(trackResp.String()))
	if err != nil {
		return "", fmt.Errorf("%w: decoding caption track: %w", ErrFetch, err)
	}
	if text == "" {
		return "", fmt.Errorf("%w: caption track has no text", ErrUnavailable)
	}
	return text, nil
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

var captionTracksPattern = regexp.MustCompile(`"captionTracks":(\[.*?\])`)

func parseCaptionTracks(page string) ([]captionTrack, error) {
	m := captionTracksPattern.FindStringSubmatch(page)
	if m == nil {
		return nil, fmt.Errorf("%w: no caption tracks on watch page", ErrUnavailable)
	}
	var tracks []captionTrack
	if err := json.Unmarshal([]byte(m[1]), &tracks); err != nil {
		return nil, fmt.Errorf("%w: decoding caption track list: %w", ErrFetch, err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: empty caption track list", ErrUnavailable)
	}
	return tracks, nil
}

// pickTrack prefers the requested language and falls back to the first track.
func pickTrack(tracks []captionTrack, lang string) captionTrack {
	for _, t := range tracks {
		if t.LanguageCode == lang {
			return t
		}
	}
	return tracks[0]
}

type timedText struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// joinSegments flattens a json3 caption document into one string, one space
// between segments, original order preserved.
func joinSegments(raw []byte) (string, error) {
	var doc timedText
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", err
	}
	var parts []string
	for _, ev := range doc.Events {
		var b strings.Builder
		for _, seg := range ev.Segs {
			b.WriteString(seg.UTF8)
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}
