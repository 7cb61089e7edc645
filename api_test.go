package cfprefix

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paepcke.de/cfprefix/bgpinfo"
	"paepcke.de/cfprefix/internal/fakesite"
)

func init() { SetOutput(io.Discard) }

func site() *fakesite.Site {
	s := fakesite.New()
	s.Searches["cloudflare"] = fakesite.SearchPage(
		fakesite.ASN("AS13335", "Cloudflare, Inc.", "United States"),
		fakesite.Net("104.16.0.0/13", "Cloudflare, Inc."),
		fakesite.Row{Href: "/dns/cloudflare.com", Text: "cloudflare.com", Description: "Cloudflare"},
	)
	s.ASPages["AS13335"] = fakesite.ASPage(
		[]fakesite.Row{
			fakesite.Net("173.245.48.0/20", "Cloudflare, Inc."),
			fakesite.Net("103.21.244.0/22", "Cloudflare, Inc."),
		},
		[]fakesite.Row{fakesite.Net("2400:cb00::/32", "Cloudflare, Inc.")},
	)
	return s
}

func options(t *testing.T, url string) Options {
	dir := t.TempDir()
	return Options{
		URL:    url,
		FileV4: filepath.Join(dir, "cf-v4.txt"),
		FileV6: filepath.Join(dir, "cf-v6.txt"),
	}
}

func readLines(t *testing.T, file string) []string {
	t.Helper()
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestGenerate(t *testing.T) {
	s := site()
	srv := s.Start()
	defer srv.Close()
	opts := options(t, srv.URL)

	sum, err := Generate(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"173.245.48.0/20", "103.21.244.0/22"}, readLines(t, opts.FileV4))
	assert.Equal(t, []string{"2400:cb00::/32"}, readLines(t, opts.FileV6))
	assert.Equal(t, 2, sum.V4)
	assert.Equal(t, 1, sum.V6)
	require.Len(t, sum.Systems, 1)
	assert.Equal(t, "AS13335", sum.Systems[0].Name)
	assert.Equal(t, "United States", sum.Systems[0].Region)

	// one search, one AS page
	assert.Equal(t, 1, s.Hits("/AS13335"))
	assert.Equal(t, 2, s.Hits("/search"), "bootstrap GET + one search")
}

func TestGenerateOverwrites(t *testing.T) {
	srv := site().Start()
	defer srv.Close()
	opts := options(t, srv.URL)
	require.NoError(t, os.WriteFile(opts.FileV4, []byte("10.0.0.0/8\n10.1.0.0/16\n10.2.0.0/16\n"), 0o644))

	_, err := Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"173.245.48.0/20", "103.21.244.0/22"}, readLines(t, opts.FileV4))
}

func TestGenerateSeveralSystems(t *testing.T) {
	s := site()
	s.Searches["cloudflare"] = fakesite.SearchPage(
		fakesite.ASN("AS209242", "Cloudflare London, LLC", ""),
		fakesite.ASN("AS13335", "Cloudflare, Inc.", "United States"),
		fakesite.ASN("AS209242", "Cloudflare London, LLC", ""),
	)
	s.ASPages["AS209242"] = fakesite.ASPage(nil, []fakesite.Row{fakesite.Net("2a06:98c0::/29", "Cloudflare London")})
	srv := s.Start()
	defer srv.Close()
	opts := options(t, srv.URL)

	sum, err := Generate(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, sum.Systems, 2)
	assert.Equal(t, 1, s.Hits("/AS209242"))
	assert.Equal(t, []string{"173.245.48.0/20", "103.21.244.0/22"}, readLines(t, opts.FileV4))
	assert.Equal(t, []string{"2a06:98c0::/29", "2400:cb00::/32"}, readLines(t, opts.FileV6))
}

func TestGenerateNoResults(t *testing.T) {
	srv := site().Start()
	defer srv.Close()
	opts := options(t, srv.URL)
	opts.Term = "no such org"

	sum, err := Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.Empty(t, sum.Systems)
	for _, f := range []string{opts.FileV4, opts.FileV6} {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.Empty(t, data)
	}
}

func TestGenerateBootstrapFailure(t *testing.T) {
	s := site()
	s.Reject = true
	srv := s.Start()
	defer srv.Close()
	opts := options(t, srv.URL)

	_, err := Generate(context.Background(), opts)
	assert.True(t, errors.Is(err, bgpinfo.ErrBootstrap))
	assert.NoFileExists(t, opts.FileV4)
	assert.NoFileExists(t, opts.FileV6)
}

func TestGenerateBadASPage(t *testing.T) {
	s := site()
	s.ASPages["AS13335"] = fakesite.ASPage([]fakesite.Row{{Href: "/exchange/x", Text: "x", Description: "ix"}}, nil)
	srv := s.Start()
	defer srv.Close()
	opts := options(t, srv.URL)

	_, err := Generate(context.Background(), opts)
	assert.True(t, errors.Is(err, bgpinfo.ErrShape))
	assert.NoFileExists(t, opts.FileV4)
}

func TestGenerateAggregateAndZstd(t *testing.T) {
	s := site()
	s.ASPages["AS13335"] = fakesite.ASPage(
		[]fakesite.Row{
			fakesite.Net("104.17.0.0/16", ""),
			fakesite.Net("104.16.0.0/16", ""),
			fakesite.Net("104.16.5.0/24", ""),
		},
		[]fakesite.Row{fakesite.Net("2400:cb00::/32", "")},
	)
	srv := s.Start()
	defer srv.Close()
	opts := options(t, srv.URL)
	opts.Aggregate = true
	opts.Zstd = true

	sum, err := Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.V4)
	assert.Equal(t, []string{"104.16.0.0/15"}, readLines(t, opts.FileV4))

	raw, err := os.ReadFile(opts.FileV4 + ".zst")
	require.NoError(t, err)
	d, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer d.Close()
	plain, err := d.DecodeAll(raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "104.16.0.0/15\n", string(plain))
}

func TestWriteListRejects(t *testing.T) {
	file := filepath.Join(t.TempDir(), "list.txt")
	testCases := []struct {
		name   string
		family Family
		entry  bgpinfo.QueryResult
	}{
		{name: "as entry", family: IPv4, entry: bgpinfo.QueryResult{Type: bgpinfo.AS, Result: "AS13335"}},
		{name: "dns entry", family: IPv4, entry: bgpinfo.QueryResult{Type: bgpinfo.DNS, Result: "cloudflare.com"}},
		{name: "v6 in v4 list", family: IPv4, entry: bgpinfo.QueryResult{Type: bgpinfo.NET, Result: "2400:cb00::/32"}},
		{name: "v4 in v6 list", family: IPv6, entry: bgpinfo.QueryResult{Type: bgpinfo.NET, Result: "1.1.1.0/24"}},
		{name: "no prefix", family: IPv4, entry: bgpinfo.QueryResult{Type: bgpinfo.NET, Result: "1.1.1.1"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := WriteList(file, tc.family, []bgpinfo.QueryResult{tc.entry}, false, false)
			assert.True(t, errors.Is(err, bgpinfo.ErrPrecondition), "%v", err)
			assert.NoFileExists(t, file)
		})
	}
}

func TestWriteListKeepsOrder(t *testing.T) {
	file := filepath.Join(t.TempDir(), "list.txt")
	entries := []bgpinfo.QueryResult{
		{Type: bgpinfo.NET, Result: "198.41.128.0/17"},
		{Type: bgpinfo.NET, Result: "103.21.244.0/22"},
		{Type: bgpinfo.NET, Result: "198.41.128.0/17"},
	}
	require.NoError(t, WriteList(file, IPv4, entries, false, false))
	assert.Equal(t, []string{"198.41.128.0/17", "103.21.244.0/22", "198.41.128.0/17"}, readLines(t, file))
}

func TestSetLogFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cfprefix.log")
	closer := SetLogFile(file)
	defer SetOutput(io.Discard)

	info("hello log")
	Fail(errors.New("boom"))
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[cfprefix] [info] hello log")
	assert.Contains(t, string(data), "[cfprefix] [error] boom")
}
