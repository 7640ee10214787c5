package live

import (
	"net/url"
	"sort"
	"strings"
)

// OrderPolicy picks the candidate with the lowest platform order, skipping
// URLs served from hosts the operator has marked as unreliable. When every
// candidate is excluded the best-ordered one is used anyway: a flaky CDN
// beats no audio at all.
type OrderPolicy struct {
	AvoidHosts []string
}

// Select implements SourcePolicy.
func (p OrderPolicy) Select(candidates []PlayURL) (StreamSource, error) {
	usable := make([]PlayURL, 0, len(candidates))
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate.URL) != "" {
			usable = append(usable, candidate)
		}
	}
	if len(usable) == 0 {
		return StreamSource{}, ErrNoSource
	}

	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].Order < usable[j].Order
	})

	for _, candidate := range usable {
		if !p.avoided(candidate.URL) {
			return StreamSource{URL: candidate.URL}, nil
		}
	}
	return StreamSource{URL: usable[0].URL}, nil
}

func (p OrderPolicy) avoided(raw string) bool {
	if len(p.AvoidHosts) == 0 {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, avoid := range p.AvoidHosts {
		avoid = strings.ToLower(strings.TrimSpace(avoid))
		if avoid == "" {
			continue
		}
		if host == avoid || strings.HasSuffix(host, "."+avoid) {
			return true
		}
	}
	return false
}
