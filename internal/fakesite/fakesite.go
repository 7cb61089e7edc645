// package fakesite serves a minimal in-process copy of the bgp lookup site for tests
package fakesite

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// const
const (
	DefaultIP         = "203.0.113.7"
	DefaultPathCookie = "/search?x=1&y=a b" // stored url-encoded in the cookie
	_sessionCookie    = "c_session"
	_sessionValue     = "unlocked"
)

// Row is one result table row
type Row struct {
	Href        string
	Text        string
	Description string
	Region      string // rendered as <img title=...> when set
}

// Site ...
type Site struct {
	IP         string            // echoed on /i
	PathCookie string            // decoded value of the path cookie
	Searches   map[string]string // search term -> page
	ASPages    map[string]string // AS id -> page
	Encoding   string            // ""|gzip|zstd
	Reject     bool              // refuse every challenge

	mu   sync.Mutex
	hits map[string]int
}

// New ...
func New() *Site {
	return &Site{
		IP:         DefaultIP,
		PathCookie: DefaultPathCookie,
		Searches:   map[string]string{},
		ASPages:    map[string]string{},
		hits:       map[string]int{},
	}
}

// Start serves s until the returned server is closed
func (s *Site) Start() *httptest.Server {
	return httptest.NewServer(s)
}

// Hits returns how often path was requested
func (s *Site) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// ServeHTTP ...
func (s *Site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.mu.Unlock()

	switch {
	case r.URL.Path == "/search" && !r.URL.Query().Has("search[search]"):
		http.SetCookie(w, &http.Cookie{Name: "path", Value: url.PathEscape(s.PathCookie), Path: "/"})
		s.write(w, r, "text/html; charset=utf-8", "<html><body>search</body></html>")
	case r.URL.Path == "/i":
		s.write(w, r, "text/plain", s.IP+"\n")
	case r.URL.Path == "/jc" && r.Method == http.MethodPost:
		s.challenge(w, r)
	case r.URL.Path == "/search":
		if !s.unlocked(r) {
			http.Error(w, "locked", http.StatusForbidden)
			return
		}
		term := r.URL.Query().Get("search[search]")
		page, ok := s.Searches[term]
		if !ok {
			page = NoResultsPage(term)
		}
		s.write(w, r, "text/html; charset=utf-8", page)
	case strings.HasPrefix(r.URL.Path, "/AS"):
		if !s.unlocked(r) {
			http.Error(w, "locked", http.StatusForbidden)
			return
		}
		page, ok := s.ASPages[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		s.write(w, r, "text/html; charset=utf-8", page)
	default:
		http.NotFound(w, r)
	}
}

// challenge ...
func (s *Site) challenge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	_, err := r.Cookie("path")
	if s.Reject || err != nil || r.PostForm.Get("p") != md5hex(s.PathCookie) || r.PostForm.Get("i") != md5hex(s.IP) {
		http.Error(w, "nope", http.StatusForbidden)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: _sessionCookie, Value: _sessionValue, Path: "/"})
	w.WriteHeader(http.StatusOK)
}

// unlocked ...
func (s *Site) unlocked(r *http.Request) bool {
	ck, err := r.Cookie(_sessionCookie)
	return err == nil && ck.Value == _sessionValue
}

// write ...
func (s *Site) write(w http.ResponseWriter, r *http.Request, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	if s.Encoding == "" || !strings.Contains(r.Header.Get("Accept-Encoding"), s.Encoding) {
		w.Write([]byte(body))
		return
	}
	var buf bytes.Buffer
	switch s.Encoding {
	case "gzip":
		zw := gzip.NewWriter(&buf)
		zw.Write([]byte(body))
		zw.Close()
	case "zstd":
		zw, _ := zstd.NewWriter(&buf)
		zw.Write([]byte(body))
		zw.Close()
	}
	w.Header().Set("Content-Encoding", s.Encoding)
	w.Write(buf.Bytes())
}

// md5hex ...
func md5hex(in string) string {
	h := md5.Sum([]byte(in))
	return hex.EncodeToString(h[:])
}

//
// PAGE BUILDERS
//

// ResultTable renders rows as a two cell result table
func ResultTable(attrs string, rows ...Row) string {
	var b strings.Builder
	b.WriteString("<table " + attrs + "><thead><tr><th>Result</th><th>Description</th></tr></thead><tbody>\n")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("<tr>\n<td><a href=\"%s\">%s</a></td>\n<td>", html.EscapeString(r.Href), html.EscapeString(r.Text)))
		if r.Region != "" {
			b.WriteString(fmt.Sprintf("<div class=\"flag\"><img src=\"/flag.gif\" title=\"%s\"></div> ", html.EscapeString(r.Region)))
		}
		b.WriteString(html.EscapeString(r.Description) + "</td>\n</tr>\n")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

// SearchPage ...
func SearchPage(rows ...Row) string {
	return "<html><head><title>search</title></head><body><div id=\"search\">" +
		ResultTable(`class="w100p"`, rows...) + "</div></body></html>"
}

// NoResultsPage ...
func NoResultsPage(term string) string {
	return "<html><body><p>Your search for " + html.EscapeString(term) +
		" did not return any results.  You may go Back to the page that referred you.</p>" +
		"<table class=\"w100p\"><tbody></tbody></table></body></html>"
}

// ASPage renders an AS detail page, nil rows omit the table
func ASPage(v4, v6 []Row) string {
	var b strings.Builder
	b.WriteString("<html><body><div id=\"prefixes\">")
	if v4 != nil {
		b.WriteString(ResultTable(`id="table_prefixes4" class="w100p"`, v4...))
	}
	if v6 != nil {
		b.WriteString(ResultTable(`id="table_prefixes6" class="w100p"`, v6...))
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

// Net ...
func Net(cidr, description string) Row {
	return Row{Href: "/net/" + cidr, Text: cidr, Description: description}
}

// ASN ...
func ASN(as, description, region string) Row {
	return Row{Href: "/" + as, Text: as, Description: description, Region: region}
}
