// Package steve talks to the Rancher steve aggregation API, the /v1
// endpoints serving Kubernetes resources with server side filtering,
// sorting and pagination, and verifies that those query parameters
// behave the way they are documented to.
package steve

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// A Client issues collection requests against one Rancher server.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient validates the server URL and prepares the HTTP client.
// insecure skips certificate verification, for Rancher installs behind
// self signed certificates.
func NewClient(baseURL string, token string, insecure bool) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %s", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q, expected http(s)://host[:port]", baseURL)
	}

	// Initializing the transport like the http.DefaultTransport to
	// avoid modifying it directly, as it is a package variable.
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}, nil
}

// ListOptions mirror the steve collection query parameters. Repeated
// filters are combined with AND by the server.
type ListOptions struct {
	Filter               []string `yaml:"filter,omitempty"`
	Sort                 string   `yaml:"sort,omitempty"`
	Limit                int      `yaml:"limit,omitempty"`
	ProjectsOrNamespaces string   `yaml:"projectsornamespaces,omitempty"`
	Continue             string   `yaml:"-"`
}

func (o ListOptions) query() url.Values {
	values := url.Values{}
	for _, filter := range o.Filter {
		values.Add("filter", filter)
	}
	if o.Sort != "" {
		values.Set("sort", o.Sort)
	}
	if o.Limit > 0 {
		values.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.ProjectsOrNamespaces != "" {
		values.Set("projectsornamespaces", o.ProjectsOrNamespaces)
	}
	if o.Continue != "" {
		values.Set("continue", o.Continue)
	}
	return values
}

// Collection is the envelope steve wraps around every resource list.
type Collection struct {
	Type     string     `json:"type"`
	Count    int        `json:"count"`
	Continue string     `json:"continue"`
	Revision string     `json:"revision"`
	Data     []Resource `json:"data"`
}

// Resource is one element of a collection's data array, kept generic
// since checks address fields by path.
type Resource map[string]interface{}

// Field resolves a dotted path like metadata.name, returning the empty
// string when any step is missing. Map keys containing dots, such as
// label names, are addressed with bracket syntax:
// metadata.labels[cattle.io/creator].
func (r Resource) Field(path string) string {
	current := interface{}(map[string]interface{}(r))
	for _, key := range splitFieldPath(path) {
		m, ok := current.(map[string]interface{})
		if !ok {
			return ""
		}
		if current, ok = m[key]; !ok {
			return ""
		}
	}
	if s, ok := current.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", current)
}

func splitFieldPath(path string) []string {
	var keys []string
	var current strings.Builder
	inBracket := false
	for _, r := range path {
		switch {
		case r == '[' && !inBracket:
			if current.Len() > 0 {
				keys = append(keys, current.String())
				current.Reset()
			}
			inBracket = true
		case r == ']' && inBracket:
			keys = append(keys, current.String())
			current.Reset()
			inBracket = false
		case r == '.' && !inBracket:
			if current.Len() > 0 {
				keys = append(keys, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		keys = append(keys, current.String())
	}
	return keys
}

// List fetches a single page of the collection at path, such as
// v1/configmaps or v1/management.cattle.io.settings.
func (c *Client) List(ctx context.Context, path string, opts ListOptions) (*Collection, error) {
	endpoint := fmt.Sprintf("%s/%s", c.BaseURL, strings.TrimLeft(path, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = opts.query().Encode()
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = "no response body"
		}
		return nil, fmt.Errorf("GET %s returned %s: %s", req.URL.Redacted(), resp.Status, message)
	}

	var collection Collection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return nil, fmt.Errorf("failed to decode collection from %s: %s", req.URL.Redacted(), err)
	}
	return &collection, nil
}

// ListAll follows continue tokens until the collection is exhausted
// and returns the merged pages.
func (c *Client) ListAll(ctx context.Context, path string, opts ListOptions) (*Collection, error) {
	merged, err := c.List(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	for merged.Continue != "" {
		if opts.Continue == merged.Continue {
			return nil, fmt.Errorf("continue token %q did not advance, giving up on %s", merged.Continue, path)
		}
		opts.Continue = merged.Continue
		page, err := c.List(ctx, path, opts)
		if err != nil {
			return nil, err
		}
		merged.Data = append(merged.Data, page.Data...)
		merged.Continue = page.Continue
	}
	return merged, nil
}
