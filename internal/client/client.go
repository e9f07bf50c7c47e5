package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"musidex/internal/models"
)

// Client talks to a musidex daemon. The base URL is fixed at construction;
// multiple clients against different daemons can coexist in one process.
type Client struct {
	http    *resty.Client
	baseURL string
}

// APIError describes a failed daemon request.
type APIError struct {
	Operation string
	Status    int
	URL       string
	Err       error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("musidex api %s failed for %s: %v", e.Operation, e.URL, e.Err)
	}
	return fmt.Sprintf("musidex api %s failed for %s: status %d", e.Operation, e.URL, e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// New creates a client for the daemon at baseURL, e.g. "http://localhost:3200".
func New(baseURL string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &Client{
		http:    http,
		baseURL: baseURL,
	}
}

// Metadata fetches the full metadata snapshot.
func (c *Client) Metadata(ctx context.Context) (*models.RawMetadata, error) {
	var raw models.RawMetadata
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&raw).
		Get("/api/metadata")
	if err := c.check("metadata", resp, err); err != nil {
		return nil, err
	}
	return &raw, nil
}

// InsertTag creates or replaces a tag on the daemon.
func (c *Client) InsertTag(ctx context.Context, tag models.Tag) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(tag).
		Post("/api/tag/create")
	return c.check("insert_tag", resp, err)
}

// UpdateSetting updates a daemon setting.
func (c *Client) UpdateSetting(ctx context.Context, key, value string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"key": key, "value": value}).
		Post("/api/config/update")
	return c.check("update_setting", resp, err)
}

// DeleteMusic removes a track from the library.
func (c *Client) DeleteMusic(ctx context.Context, id models.MusicID) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete("/api/music/" + strconv.FormatInt(int64(id), 10))
	return c.check("delete_music", resp, err)
}

// CreateUser creates a library user.
func (c *Client) CreateUser(ctx context.Context, name string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"name": name}).
		Post("/api/user/create")
	return c.check("create_user", resp, err)
}

// RenameUser renames a library user.
func (c *Client) RenameUser(ctx context.Context, id int64, name string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"name": name}).
		Post("/api/user/update/" + strconv.FormatInt(id, 10))
	return c.check("rename_user", resp, err)
}

// DeleteUser removes a library user.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete("/api/user/" + strconv.FormatInt(id, 10))
	return c.check("delete_user", resp, err)
}

// YoutubeUpload asks the daemon to download a single track.
func (c *Client) YoutubeUpload(ctx context.Context, url string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"url": url}).
		Post("/api/youtube_upload")
	return c.check("youtube_upload", resp, err)
}

// YoutubeUploadPlaylist asks the daemon to download a whole playlist.
func (c *Client) YoutubeUploadPlaylist(ctx context.Context, url string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"url": url}).
		Post("/api/youtube_upload/playlist")
	return c.check("youtube_upload_playlist", resp, err)
}

// StreamURL returns the audio stream URL for a track; playback transport is
// the caller's concern.
func (c *Client) StreamURL(id models.MusicID) string {
	return c.baseURL + "/api/stream/" + strconv.FormatInt(int64(id), 10)
}

// WebsocketURL returns the metadata push endpoint derived from the base URL.
func (c *Client) WebsocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/api/metadata/ws"
	return u.String(), nil
}

func (c *Client) check(operation string, resp *resty.Response, err error) error {
	if err != nil {
		return &APIError{Operation: operation, URL: c.baseURL, Err: err}
	}
	if resp.IsError() {
		return &APIError{Operation: operation, Status: resp.StatusCode(), URL: resp.Request.URL}
	}
	return nil
}
