package cfprefix

import (
	"bufio"
	"net/netip"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"go4.org/netipx"

	"paepcke.de/cfprefix/bgpinfo"
)

// Family ...
type Family int

// address families
const (
	IPv4 Family = 4
	IPv6 Family = 6
)

// String ...
func (f Family) String() string {
	if f == IPv6 {
		return "ipv6"
	}
	return "ipv4"
}

// WriteList writes one prefix per line to file
func WriteList(file string, family Family, prefixes []bgpinfo.QueryResult, aggregate, zst bool) error {
	lines, err := prepare(family, prefixes, aggregate)
	if err != nil {
		return err
	}
	return writeLines(file, lines, zst)
}

// prepare checks every entry is a NET result of family and returns the lines to write
func prepare(family Family, prefixes []bgpinfo.QueryResult, aggregate bool) ([]string, error) {
	lines := make([]string, 0, len(prefixes))
	var set netipx.IPSetBuilder
	for _, p := range prefixes {
		if p.Type != bgpinfo.NET {
			return nil, errors.Wrapf(bgpinfo.ErrPrecondition, "%s result [%s] in %s list", p.Type, p.Result, family)
		}
		pfx, err := netip.ParsePrefix(p.Result)
		if err != nil {
			return nil, errors.Wrapf(bgpinfo.ErrPrecondition, "no prefix [%s] in %s list", p.Result, family)
		}
		if pfx.Addr().Is4() != (family == IPv4) {
			return nil, errors.Wrapf(bgpinfo.ErrPrecondition, "prefix [%s] in %s list", p.Result, family)
		}
		lines = append(lines, p.Result)
		set.AddPrefix(pfx.Masked())
	}
	if !aggregate {
		return lines, nil
	}
	s, err := set.IPSet()
	if err != nil {
		return nil, errors.Wrapf(err, "[cfprefix] unable to aggregate %s list", family)
	}
	merged := s.Prefixes()
	lines = make([]string, len(merged))
	for i, pfx := range merged {
		lines[i] = pfx.String()
	}
	return lines, nil
}

// writeLines replaces file with lines, plus file.zst if zst
func writeLines(file string, lines []string, zst bool) error {
	if err := writeFile(file, lines); err != nil {
		return err
	}
	if !zst {
		return nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrapf(err, "[cfprefix] unable to read back [%s]", file)
	}
	if err := os.WriteFile(file+".zst", compress(data), 0o660); err != nil {
		return errors.Wrapf(err, "[cfprefix] unable to write [%s.zst]", file)
	}
	return nil
}

// writeFile ...
func writeFile(file string, lines []string) (err error) {
	f, err := os.Create(file)
	if err != nil {
		return errors.Wrapf(err, "[cfprefix] unable to create [%s]", file)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "[cfprefix] unable to close [%s]", file)
		}
	}()
	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line + _linefeed); err != nil {
			return errors.Wrapf(err, "[cfprefix] unable to write [%s]", file)
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "[cfprefix] unable to write [%s]", file)
	}
	return nil
}

// compress ...
func compress(data []byte) []byte {
	w, _ := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		zstd.WithEncoderCRC(true),
		zstd.WithZeroFrames(false),
		zstd.WithSingleSegment(true))
	defer w.Close()
	return w.EncodeAll(data, nil)
}
