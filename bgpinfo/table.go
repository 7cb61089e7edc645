package bgpinfo

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Classify maps a result link path to its type, unknown paths are an error
func Classify(path string) (ResultType, error) {
	switch {
	case strings.HasPrefix(path, "/dns/"):
		return DNS, nil
	case strings.HasPrefix(path, "/AS"):
		return AS, nil
	case strings.HasPrefix(path, "/net/"):
		return NET, nil
	}
	return 0, errors.Wrapf(ErrShape, "unrecognized result link [%s]", path)
}

// ParseTable turns every body row of a result table into one QueryResult, in document order.
// Rows need exactly two cells: a link cell and a description cell.
func ParseTable(table *html.Node) ([]QueryResult, error) {
	tbody := findFirst(table, func(n *html.Node) bool { return n.DataAtom == atom.Tbody })
	if tbody == nil {
		return nil, errors.Wrap(ErrShape, "result table without body")
	}
	var results []QueryResult
	for row := tbody.FirstChild; row != nil; row = row.NextSibling {
		if row.Type != html.ElementNode {
			continue
		}
		if row.DataAtom != atom.Tr {
			return nil, errors.Wrapf(ErrShape, "unexpected <%s> in result table body", row.Data)
		}
		r, err := parseRow(row)
		if err != nil {
			return nil, errors.WithMessagef(err, "row %d", len(results)+1)
		}
		results = append(results, r)
	}
	return results, nil
}

// parseRow ...
func parseRow(row *html.Node) (QueryResult, error) {
	var cells []*html.Node
	for td := row.FirstChild; td != nil; td = td.NextSibling {
		if td.Type == html.ElementNode && td.DataAtom == atom.Td {
			cells = append(cells, td)
		}
	}
	if len(cells) != 2 {
		return QueryResult{}, errors.Wrapf(ErrShape, "%d cells, want 2", len(cells))
	}
	link := findFirst(cells[0], func(n *html.Node) bool { return n.DataAtom == atom.A })
	if link == nil {
		return QueryResult{}, errors.Wrap(ErrShape, "no link in first cell")
	}
	href, ok := attr(link, "href")
	if !ok {
		return QueryResult{}, errors.Wrap(ErrShape, "link without href")
	}
	kind, err := Classify(href)
	if err != nil {
		return QueryResult{}, err
	}
	region := ""
	if img := findFirst(cells[1], func(n *html.Node) bool { return n.DataAtom == atom.Img }); img != nil {
		region, _ = attr(img, "title")
	}
	return QueryResult{
		Type:        kind,
		Result:      textOf(link),
		Path:        href,
		Description: strings.TrimSpace(textOf(cells[1])),
		Region:      region,
	}, nil
}

//
// LITTLE DOM HELPER SECTION
//

// findFirst returns the first element at or below n [depth first, document order] matching fn
func findFirst(n *html.Node, fn func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && fn(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, fn); found != nil {
			return found
		}
	}
	return nil
}

// attr ...
func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// hasClass ...
func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// byID ...
func byID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, ok := attr(n, "id")
		return ok && v == id
	}
}

// textOf concatenates all text below n
func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
