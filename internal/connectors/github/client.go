package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxCompareFiles is the number of files GitHub returns for a comparison.
	MaxCompareFiles = 300

	// PerPage is the page size for list calls.
	PerPage = 100
)

// Client wraps the go-github client with rate limiting and error mapping.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
}

// NewClient creates a GitHub API client from cfg.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	quota := AuthenticatedRateLimit
	switch {
	case httpClient != nil:
	case cfg.Token != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = timeout
	default:
		httpClient = &http.Client{Timeout: timeout}
		quota = AnonymousRateLimit
	}

	client := gh.NewClient(httpClient)
	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		client.BaseURL = base
	}

	return &Client{
		gh:          client,
		rateLimiter: NewRateLimiter(quota),
	}, nil
}

// ListTags returns every tag of a repository in GitHub's order (newest first).
func (c *Client) ListTags(ctx context.Context, owner, repo string) ([]*gh.RepositoryTag, error) {
	var all []*gh.RepositoryTag
	opts := &gh.ListOptions{PerPage: PerPage}

	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		tags, resp, err := c.gh.Repositories.ListTags(ctx, owner, repo, opts)
		c.updateRateLimitFromResponse(resp)
		if err != nil {
			return nil, c.wrapError(err, "list tags")
		}
		all = append(all, tags...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// GetContents fetches a file or a directory listing at ref.
// Exactly one of the returned values is non-nil on success.
func (c *Client) GetContents(
	ctx context.Context, owner, repo, path, ref string,
) (*gh.RepositoryContent, []*gh.RepositoryContent, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	file, dir, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, nil, c.wrapError(err, "get contents")
	}
	return file, dir, nil
}

// DownloadContents downloads a file larger than 1MB.
// Returns an io.ReadCloser that must be closed by the caller.
func (c *Client) DownloadContents(ctx context.Context, owner, repo, path, ref string) (io.ReadCloser, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	rc, resp, err := c.gh.Repositories.DownloadContents(ctx, owner, repo, path, opts)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.wrapError(err, "download contents")
	}
	return rc, nil
}

// CompareCommits returns the files changed between base and head.
// Returns ErrTooManyFiles when GitHub truncated the file list.
func (c *Client) CompareCommits(ctx context.Context, owner, repo, base, head string) ([]*gh.CommitFile, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	cmp, resp, err := c.gh.Repositories.CompareCommits(ctx, owner, repo, base, head, &gh.ListOptions{PerPage: PerPage})
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.wrapError(err, "compare commits")
	}
	if len(cmp.Files) >= MaxCompareFiles {
		return nil, fmt.Errorf("compare %s...%s: %w", base, head, ErrTooManyFiles)
	}
	return cmp.Files, nil
}

// LatestCommit returns the head commit of the default branch.
func (c *Client) LatestCommit(ctx context.Context, owner, repo string) (*gh.RepositoryCommit, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.CommitsListOptions{ListOptions: gh.ListOptions{PerPage: 1}}
	commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.wrapError(err, "list commits")
	}
	if len(commits) == 0 {
		return nil, &APIError{StatusCode: http.StatusConflict, Message: "repository has no commits"}
	}
	return commits[0], nil
}

// RateLimit returns the current rate limit status.
func (c *Client) RateLimit(ctx context.Context) (*gh.RateLimits, error) {
	limits, _, err := c.gh.RateLimit.Get(ctx)
	if err != nil {
		return nil, c.wrapError(err, "get rate limit")
	}
	return limits, nil
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		rl := c.rateLimiter.Error()
		rl.ResetAt = rateLimitErr.Rate.Reset.Time
		rl.Remaining = rateLimitErr.Rate.Remaining
		return rl
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		rl := c.rateLimiter.Error()
		if d := abuseErr.GetRetryAfter(); d > 0 {
			rl.ResetAt = time.Now().Add(d)
		}
		return rl
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	return fmt.Errorf("%s: %w", operation, err)
}
