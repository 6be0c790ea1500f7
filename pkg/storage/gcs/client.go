package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/config"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
	"github.com/google/uuid"
)

const (
	defaultAPIBase    = "https://storage.googleapis.com/storage/v1"
	defaultUploadBase = "https://storage.googleapis.com/upload/storage/v1"
	pingTimeout       = 5 * time.Second
	uploadTimeout     = 60 * time.Second
)

// Uploader is the storage surface used by the upload endpoint.
type Uploader interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (*Object, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Object describes a stored file.
type Object struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Size   int64  `json:"size"`
}

// Client talks to the GCS JSON API with a cached OAuth token.
type Client struct {
	httpClient    *http.Client
	defaultBucket string
	publicBaseURL string
	apiBase       string
	uploadBase    string
	tokenSource   *tokenSource
	logg          *logger.Logger
}

func closeBody(ctx context.Context, logg *logger.Logger, body io.Closer, msg string) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil && logg != nil {
		logg.Warn(ctx, msg)
	}
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	httpClient := &http.Client{Timeout: uploadTimeout}

	var ts *tokenSource
	var err error
	switch {
	case gcp.CredentialsJSON != "":
		ts, err = newServiceAccountTokenSource(httpClient, gcp.CredentialsJSON)
	case gcp.ApplicationCredentials != "":
		bytes, readErr := os.ReadFile(gcp.ApplicationCredentials)
		if readErr != nil {
			return nil, fmt.Errorf("reading credentials file: %w", readErr)
		}
		ts, err = newServiceAccountTokenSource(httpClient, string(bytes))
	default:
		ts = newMetadataTokenSource(httpClient)
	}
	if err != nil {
		return nil, err
	}

	client := &Client{
		httpClient:    httpClient,
		defaultBucket: cfg.BucketName,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		apiBase:       defaultAPIBase,
		uploadBase:    defaultUploadBase,
		tokenSource:   ts,
		logg:          logg,
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}

	return client, nil
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	if c.defaultBucket == "" {
		return errors.New("gcs bucket not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return err
	}

	// object-level check (requires storage.objects.list)
	u := fmt.Sprintf("%s/b/%s/o?maxResults=1", c.apiBase, url.PathEscape(c.defaultBucket))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer closeBody(ctx, c.logg, resp.Body, "gcs: closing ping body failed")

	if resp.StatusCode != http.StatusOK {
		return statusError("gcs object check failed", resp)
	}
	return nil
}

// Upload streams body into the default bucket with a simple media upload.
func (c *Client) Upload(ctx context.Context, object, contentType string, body io.Reader) (*Object, error) {
	if c == nil || c.tokenSource == nil {
		return nil, errors.New("gcs client not initialized")
	}
	object = strings.TrimLeft(object, "/")
	if object == "" {
		return nil, errors.New("object name is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("uploadType", "media")
	q.Set("name", object)
	u := fmt.Sprintf("%s/b/%s/o?%s", c.uploadBase, url.PathEscape(c.defaultBucket), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gcs upload: %w", err)
	}
	defer closeBody(ctx, c.logg, resp.Body, "gcs: closing upload body failed")

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("gcs upload failed", resp)
	}

	var meta struct {
		Bucket string `json:"bucket"`
		Name   string `json:"name"`
		Size   string `json:"size"`
	}
	if err := decodeJSON(resp.Body, &meta); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if meta.Name == "" {
		meta.Name = object
	}
	if meta.Bucket == "" {
		meta.Bucket = c.defaultBucket
	}

	return &Object{
		Bucket: meta.Bucket,
		Name:   meta.Name,
		URL:    c.PublicURL(meta.Name),
		Size:   parseSize(meta.Size),
	}, nil
}

// PublicURL returns the browser-facing URL of an object in the default bucket.
func (c *Client) PublicURL(object string) string {
	base := c.publicBaseURL
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	escaped := make([]string, 0)
	for _, part := range strings.Split(strings.TrimLeft(object, "/"), "/") {
		escaped = append(escaped, url.PathEscape(part))
	}
	return base + "/" + url.PathEscape(c.defaultBucket) + "/" + strings.Join(escaped, "/")
}

// ObjectName builds a collision-free key under prefix, keeping the original extension.
func ObjectName(prefix, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	prefix = strings.Trim(prefix, "/")
	name := uuid.NewString() + ext
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func statusError(msg string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if len(b) > 0 {
		return fmt.Errorf("%s: %s: %s", msg, resp.Status, strings.TrimSpace(string(b)))
	}
	return fmt.Errorf("%s: %s", msg, resp.Status)
}
