package bgpinfo

import (
	"context"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

// const page markers
const (
	_pathSearch   = "/search"
	_noResults    = "did not return any results"
	_classResults = "w100p"
	_idPrefixes4  = "table_prefixes4"
	_idPrefixes6  = "table_prefixes6"
)

var _asID = regexp.MustCompile(`^AS[0-9]+$`)

// Search runs a free text search, a search without hits returns an empty slice
func (c *Client) Search(ctx context.Context, text string) ([]QueryResult, error) {
	if err := c.mustBeReady(); err != nil {
		return nil, err
	}
	target := c.endpoint(_pathSearch, url.Values{
		"search[search]": {text},
		"commit":         {"Search"},
	})
	doc, err := c.document(ctx, target)
	if err != nil {
		return nil, err
	}
	if strings.Contains(strings.Join(strings.Fields(textOf(doc)), " "), _noResults) {
		info("search [" + text + "] no results")
		return []QueryResult{}, nil
	}
	table := findFirst(doc, func(n *html.Node) bool { return hasClass(n, _classResults) })
	if table == nil {
		return nil, errors.Wrapf(ErrShape, "search [%s]: no result table and no empty-result marker", text)
	}
	results, err := ParseTable(table)
	if err != nil {
		return nil, errors.WithMessagef(err, "search [%s]", text)
	}
	info("search [" + text + "] " + strconv.Itoa(len(results)) + " result(s)")
	return results, nil
}

// AutonomousSystem fetches the prefix tables of as [eg AS13335]
func (c *Client) AutonomousSystem(ctx context.Context, as string) (AutonomousSystem, error) {
	if !_asID.MatchString(as) {
		return AutonomousSystem{}, errors.Wrapf(ErrPrecondition, "invalid as id [%s]", as)
	}
	if err := c.mustBeReady(); err != nil {
		return AutonomousSystem{}, err
	}
	doc, err := c.document(ctx, c.endpoint("/"+as, nil))
	if err != nil {
		return AutonomousSystem{}, err
	}
	v4, err := prefixTable(doc, _idPrefixes4)
	if err != nil {
		return AutonomousSystem{}, errors.WithMessagef(err, "[%s] ipv4 prefixes", as)
	}
	v6, err := prefixTable(doc, _idPrefixes6)
	if err != nil {
		return AutonomousSystem{}, errors.WithMessagef(err, "[%s] ipv6 prefixes", as)
	}
	return AutonomousSystem{
		Name:       as,
		PrefixesV4: v4,
		PrefixesV6: v6,
	}, nil
}

// prefixTable parses the table with id, a missing table is an empty one
func prefixTable(doc *html.Node, id string) ([]QueryResult, error) {
	table := findFirst(doc, byID(id))
	if table == nil {
		return []QueryResult{}, nil
	}
	results, err := ParseTable(table)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.Type != NET {
			return nil, errors.Wrapf(ErrPrecondition, "%s row [%s] in prefix table", r.Type, r.Result)
		}
	}
	return results, nil
}

// document ...
func (c *Client) document(ctx context.Context, target string) (*html.Node, error) {
	r, err := c.getHTML(ctx, target)
	if err != nil {
		return nil, err
	}
	return parseHTML(r, target)
}

// parseHTML ...
func parseHTML(r io.Reader, target string) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrapf(err, "[bgpinfo] [%s] unparsable html", target)
	}
	return doc, nil
}
