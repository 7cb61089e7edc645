// package bgpinfo ...
package bgpinfo

// import
import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
)

const _acceptEncoding = "gzip, zstd"

// getTlsConf ...
func getTlsConf() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify:     false,
		SessionTicketsDisabled: true,
		Renegotiation:          0,
		MinVersion:             tls.VersionTLS12,
	}
}

// getTransport ...
func getTransport(tlsconf *tls.Config) *http.Transport {
	return &http.Transport{
		Proxy:              http.ProxyFromEnvironment,
		TLSClientConfig:    tlsconf,
		DisableCompression: true, // we ask for [gzip|zstd] ourself, see decodeBody
		ForceAttemptHTTP2:  true,
	}
}

// getClient ...
func getClient(transport *http.Transport, timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "[bgpinfo] unable to create cookie jar")
	}
	return &http.Client{
		Jar:       jar,
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

// newRequest ...
func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrapf(err, "[bgpinfo] [%s] invalid request", target)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Encoding", _acceptEncoding)
	return req, nil
}

// do sends req and returns the status and the decoded body
func (c *Client) do(req *http.Request) (int, []byte, error) {
	status, data, _, err := c.roundTrip(req)
	return status, data, err
}

// roundTrip ...
func (c *Client) roundTrip(req *http.Request) (int, []byte, string, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, "", errors.Wrapf(err, "[bgpinfo] [%s %s] request failed", req.Method, req.URL)
	}
	defer resp.Body.Close()
	r, err := decodeBody(resp)
	if err != nil {
		return resp.StatusCode, nil, "", errors.Wrapf(err, "[bgpinfo] [%s %s] undecodable body", req.Method, req.URL)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return resp.StatusCode, nil, "", errors.Wrapf(err, "[bgpinfo] [%s %s] unable to read body", req.Method, req.URL)
	}
	return resp.StatusCode, data, resp.Header.Get("Content-Type"), nil
}

// get ...
func (c *Client) get(ctx context.Context, target string) (int, []byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, err
	}
	return c.do(req)
}

// postForm ...
func (c *Client) postForm(ctx context.Context, target string, form url.Values) (int, []byte, error) {
	req, err := c.newRequest(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// getHTML fetches target and returns the body as utf-8 html
func (c *Client) getHTML(ctx context.Context, target string) (io.Reader, error) {
	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	status, data, contentType, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, errors.Errorf("[bgpinfo] [GET %s] status %d", target, status)
	}
	utf8, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		return nil, errors.Wrapf(err, "[bgpinfo] [GET %s] unknown charset", target)
	}
	return utf8, nil
}

// decodeBody unwraps the content-encoding
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))); enc {
	case "", "identity":
		return io.NopCloser(resp.Body), nil
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "zstd":
		d, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	default:
		return nil, errors.New("unsupported content-encoding [" + enc + "]")
	}
}
