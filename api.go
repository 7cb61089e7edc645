// package cfprefix writes the ipv4|ipv6 prefixes of every autonomous system a bgp site search returns
package cfprefix

import (
	"context"
	"strconv"
	"time"

	"paepcke.de/cfprefix/bgpinfo"
)

// const defaults
const (
	DefaultTerm   = "cloudflare"
	DefaultFileV4 = "cf-v4.txt"
	DefaultFileV6 = "cf-v6.txt"
)

// Options ...
type Options struct {
	Term      string        // search term [DefaultTerm]
	FileV4    string        // ipv4 list [DefaultFileV4]
	FileV6    string        // ipv6 list [DefaultFileV6]
	URL       string        // site base url [bgpinfo.DefaultURL]
	UserAgent string        // [bgpinfo.DefaultUserAgent]
	Timeout   time.Duration // per request [bgpinfo.DefaultTimeout]
	Aggregate bool          // merge adjacent and overlapping prefixes
	Zstd      bool          // add a .zst copy of each list
}

// Summary ...
type Summary struct {
	Systems []bgpinfo.AutonomousSystem // resolved, in search order
	V4      int                        // lines written to FileV4
	V6      int                        // lines written to FileV6
}

// Generate runs one full session: bootstrap, search, resolve every AS hit, write both lists.
// Nothing is written unless every step succeeded.
func Generate(ctx context.Context, opts Options) (Summary, error) {
	// setup
	t0 := time.Now()
	opts = opts.withDefaults()

	// session
	client, err := bgpinfo.Open(ctx, bgpinfo.Config{
		URL:       opts.URL,
		UserAgent: opts.UserAgent,
		Timeout:   opts.Timeout,
	})
	if err != nil {
		return Summary{}, err
	}

	// search, resolve
	results, err := client.Search(ctx, opts.Term)
	if err != nil {
		return Summary{}, err
	}
	systems, err := resolve(ctx, client, results)
	if err != nil {
		return Summary{}, err
	}
	v4, v6 := flatten(systems)

	// validate both lists before touching any file
	lines4, err := prepare(IPv4, v4, opts.Aggregate)
	if err != nil {
		return Summary{}, err
	}
	lines6, err := prepare(IPv6, v6, opts.Aggregate)
	if err != nil {
		return Summary{}, err
	}

	// write
	if err := writeLines(opts.FileV4, lines4, opts.Zstd); err != nil {
		return Summary{}, err
	}
	if err := writeLines(opts.FileV6, lines6, opts.Zstd); err != nil {
		return Summary{}, err
	}

	// report
	info(pad("file ipv4", 30) + opts.FileV4 + " [" + strconv.Itoa(len(lines4)) + " prefix(es)]")
	info(pad("file ipv6", 30) + opts.FileV6 + " [" + strconv.Itoa(len(lines6)) + " prefix(es)]")
	info(pad("time needed", 30) + time.Since(t0).String())
	return Summary{Systems: systems, V4: len(lines4), V6: len(lines6)}, nil
}

// withDefaults ...
func (o Options) withDefaults() Options {
	if o.Term == "" {
		o.Term = DefaultTerm
	}
	if o.FileV4 == "" {
		o.FileV4 = DefaultFileV4
	}
	if o.FileV6 == "" {
		o.FileV6 = DefaultFileV6
	}
	return o
}
