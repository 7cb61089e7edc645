package bgpinfo

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// const site paths
const (
	_pathBootstrap = "/search" // sets the path cookie
	_pathIP        = "/i"      // echoes the callers public ip as text
	_pathChallenge = "/jc"     // takes md5(path cookie), md5(ip)
	_cookiePath    = "path"
)

// Bootstrap unlocks the session, the site tracks each step via cookies, so order matters
func (c *Client) Bootstrap(ctx context.Context) error {
	if c.ready {
		return errors.Wrap(ErrPrecondition, "session already bootstrapped")
	}

	// path cookie
	if _, _, err := c.get(ctx, c.endpoint(_pathBootstrap, nil)); err != nil {
		return err
	}
	cookie, err := c.pathCookie()
	if err != nil {
		return err
	}

	// public ip
	_, body, err := c.get(ctx, c.endpoint(_pathIP, nil))
	if err != nil {
		return err
	}
	ip := strings.TrimSpace(string(body))
	if ip == "" {
		return errors.Wrap(ErrBootstrap, "empty ip echo")
	}

	// challenge
	p, i := md5hex(cookie), md5hex(ip)
	status, body, err := c.postForm(ctx, c.endpoint(_pathChallenge, nil), url.Values{"p": {p}, "i": {i}})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return errors.Wrapf(ErrBootstrap, "p: %s, i: %s, status: %d, body: %q, ip: %s, path_cookie: %s", p, i, status, body, ip, cookie)
	}

	c.ready = true
	info("session ready [" + c.base.Host + "] [ip:" + ip + "]")
	return nil
}

// pathCookie returns the url-decoded path cookie
func (c *Client) pathCookie() (string, error) {
	u, err := url.Parse(c.endpoint(_pathBootstrap, nil))
	if err != nil {
		return "", errors.Wrap(err, "[bgpinfo] invalid bootstrap url")
	}
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name != _cookiePath {
			continue
		}
		v, err := url.PathUnescape(ck.Value)
		if err != nil {
			return "", errors.Wrapf(ErrBootstrap, "undecodable path cookie [%s]", ck.Value)
		}
		return v, nil
	}
	return "", errors.Wrapf(ErrBootstrap, "no %q cookie after GET %s", _cookiePath, _pathBootstrap)
}

// md5hex ...
func md5hex(in string) string {
	h := md5.Sum([]byte(in))
	return hex.EncodeToString(h[:])
}
