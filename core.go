package cfprefix

import (
	"context"
	"strconv"

	"paepcke.de/cfprefix/bgpinfo"
)

// resolver is the part of bgpinfo.Client the driver needs
type resolver interface {
	AutonomousSystem(ctx context.Context, as string) (bgpinfo.AutonomousSystem, error)
}

// resolve fetches every AS search hit once, in search order
func resolve(ctx context.Context, client resolver, results []bgpinfo.QueryResult) ([]bgpinfo.AutonomousSystem, error) {
	seen := make(map[string]bool, len(results))
	var systems []bgpinfo.AutonomousSystem
	for _, r := range results {
		if r.Type != bgpinfo.AS || seen[r.Result] {
			continue
		}
		seen[r.Result] = true
		as, err := client.AutonomousSystem(ctx, r.Result)
		if err != nil {
			return nil, err
		}
		as.Region = r.Region
		info(pad(" + "+as.Name, 40) + pad(strconv.Itoa(len(as.PrefixesV4)), 7) + " ipv4 " + pad(strconv.Itoa(len(as.PrefixesV6)), 7) + " ipv6 " + r.Description)
		systems = append(systems, as)
	}
	return systems, nil
}

// flatten concatenates all prefixes per family, in AS order
func flatten(systems []bgpinfo.AutonomousSystem) (v4, v6 []bgpinfo.QueryResult) {
	for _, as := range systems {
		v4 = append(v4, as.PrefixesV4...)
		v6 = append(v6, as.PrefixesV6...)
	}
	return v4, v6
}
