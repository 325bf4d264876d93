// Package archive talks to the Internet Archive's advanced-search and
// metadata endpoints: retried page fetches, a bounded pagination loop, and
// expansion of search hits into concrete download entries.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mirrorkeep/iaget/pkg/client"
	"github.com/mirrorkeep/iaget/pkg/retry"
)

const (
	DefaultSearchURL   = "https://archive.org/advancedsearch.php"
	DefaultMetadataURL = "https://archive.org/metadata/"
	DefaultDownloadURL = "https://archive.org/download"

	defaultRows = 500
)

// DefaultFields are the search result fields requested when none are
// configured.
var DefaultFields = []string{"identifier", "title", "date", "creator"}

type Options struct {
	// SearchURL, MetadataURL and DownloadURL default to the public
	// archive.org endpoints; tests point them at local servers.
	SearchURL   string
	MetadataURL string
	DownloadURL string

	// Rows per page, <= 1000 on the real service.
	Rows int

	// MaxPages caps the pagination loop. Zero means no cap.
	MaxPages int

	// Fields to request per search hit.
	Fields []string

	// Sleep is the constant politeness delay between consecutive
	// requests. It is independent of the retry backoff.
	Sleep time.Duration

	// Retry governs both the strict page fetches and the lenient
	// per-document metadata fetches.
	Retry retry.Policy

	// Client is the HTTP client to use. A default one is built when nil.
	Client *http.Client
}

type Client struct {
	opts       Options
	httpClient *http.Client
}

func NewClient(opts Options) *Client {
	if opts.SearchURL == "" {
		opts.SearchURL = DefaultSearchURL
	}
	if opts.MetadataURL == "" {
		opts.MetadataURL = DefaultMetadataURL
	}
	if opts.DownloadURL == "" {
		opts.DownloadURL = DefaultDownloadURL
	}
	if opts.Rows <= 0 {
		opts.Rows = defaultRows
	}
	if len(opts.Fields) == 0 {
		opts.Fields = DefaultFields
	}
	httpClient := opts.Client
	if httpClient == nil {
		httpClient = client.New(client.Options{})
	}
	return &Client{opts: opts, httpClient: httpClient}
}

// searchPageURL builds the request URL for one page of results.
func searchPageURL(base, query string, fields []string, rows, page int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing search URL: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("rows", strconv.Itoa(rows))
	q.Set("page", strconv.Itoa(page))
	q.Set("output", "json")
	for _, f := range fields {
		q.Add("fl[]", f)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// fetchPage retrieves and decodes one page of search results, retrying
// transient failures. A malformed body is a hard failure carrying a snippet
// of the raw response; it is never retried.
func (c *Client) fetchPage(ctx context.Context, query string, page int) (*Page, error) {
	pageURL, err := searchPageURL(c.opts.SearchURL, query, c.opts.Fields, c.opts.Rows, page)
	if err != nil {
		return nil, err
	}

	var result *Page
	err = retry.Do(ctx, c.opts.Retry, func(ctx context.Context) error {
		decoded, err := c.getPage(ctx, pageURL)
		if err != nil {
			return err
		}
		result = decoded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching search page %d: %w", page, err)
	}
	return result, nil
}

func (c *Client) getPage(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, client.ErrorFromResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var envelope searchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, retry.Permanent(fmt.Errorf("decoding search response: %w (body: %s)", err, snippet(body)))
	}
	if envelope.Response == nil {
		return nil, retry.Permanent(fmt.Errorf("search response missing 'response' object (body: %s)", snippet(body)))
	}
	return &Page{NumFound: envelope.Response.NumFound, Docs: envelope.Response.Docs}, nil
}

// ItemMetadata retrieves the metadata document for one identifier,
// retrying transient failures. Callers in lenient mode treat any error as
// "item absent".
func (c *Client) ItemMetadata(ctx context.Context, identifier string) (*Item, error) {
	metaURL := c.opts.MetadataURL + identifier

	var item *Item
	err := retry.Do(ctx, c.opts.Retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, metaURL, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return client.ErrorFromResponse(resp)
		}
		var decoded Item
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return retry.Permanent(fmt.Errorf("decoding metadata document: %w", err))
		}
		item = &decoded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching metadata for %s: %w", identifier, err)
	}
	return item, nil
}

// DownloadURL returns the fully qualified download URL for one file of an
// item.
func (c *Client) DownloadURL(identifier, name string) string {
	return fmt.Sprintf("%s/%s/%s", c.opts.DownloadURL, identifier, name)
}

// wait applies the politeness delay between consecutive requests.
func (c *Client) wait(ctx context.Context) error {
	return retry.Sleep(ctx, c.opts.Sleep)
}

func snippet(body []byte) string {
	const max = 300
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
