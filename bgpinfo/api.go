// package bgpinfo scrapes search results and per-AS prefix tables from a bgp lookup site
package bgpinfo

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// const defaults
const (
	DefaultURL       = "https://bgp.he.net" // site base url
	DefaultUserAgent = "Chrome"             // the site only wants a browser-like agent
	DefaultTimeout   = 30 * time.Second     // per request
)

// ResultType ...
type ResultType uint8

// result types
const (
	AS ResultType = iota + 1
	NET
	DNS
	IP
)

// String ...
func (t ResultType) String() string {
	switch t {
	case AS:
		return "AS"
	case NET:
		return "NET"
	case DNS:
		return "DNS"
	case IP:
		return "IP"
	}
	return "UNKNOWN"
}

// QueryResult is one row of a result table
type QueryResult struct {
	Type        ResultType // classified by Path
	Result      string     // link text [eg AS13335|173.245.48.0/20]
	Path        string     // link target
	Description string     // description cell text
	Region      string     // title of the description icon, if any
}

// AutonomousSystem ...
type AutonomousSystem struct {
	Name       string        // eg AS13335
	Region     string        // filled by callers that know it, the AS page does not carry it
	PrefixesV4 []QueryResult // table_prefixes4 rows, all NET
	PrefixesV6 []QueryResult // table_prefixes6 rows, all NET
}

// Config ...
type Config struct {
	URL       string        // site base url, DefaultURL if empty
	UserAgent string        // DefaultUserAgent if empty
	Timeout   time.Duration // DefaultTimeout if zero
}

// Client holds one site session [cookies, headers]
type Client struct {
	base      *url.URL
	userAgent string
	http      *http.Client
	ready     bool
}

// NewClient sets up a client, Bootstrap must be called before any query
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.URL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("[bgpinfo] invalid site url [%s]", cfg.URL)
	}
	client, err := getClient(getTransport(getTlsConf()), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{
		base:      base,
		userAgent: cfg.UserAgent,
		http:      client,
	}, nil
}

// Open returns a bootstrapped client
func Open(ctx context.Context, cfg Config) (*Client, error) {
	c, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Bootstrap(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// endpoint ...
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// mustBeReady ...
func (c *Client) mustBeReady() error {
	if !c.ready {
		return errors.Wrap(ErrPrecondition, "session not bootstrapped")
	}
	return nil
}
