package live

import (
	"errors"
	"testing"
)

func TestOrderPolicyPrefersLowestOrder(t *testing.T) {
	policy := OrderPolicy{}
	source, err := policy.Select([]PlayURL{
		{URL: "https://b.cdn.example/live", Order: 2},
		{URL: "https://a.cdn.example/live", Order: 1},
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if source.URL != "https://a.cdn.example/live" {
		t.Fatalf("selected %q", source.URL)
	}
}

func TestOrderPolicySkipsAvoidedHosts(t *testing.T) {
	policy := OrderPolicy{AvoidHosts: []string{"bad.example"}}
	source, err := policy.Select([]PlayURL{
		{URL: "https://node1.bad.example/live", Order: 1},
		{URL: "https://good.example/live", Order: 2},
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if source.URL != "https://good.example/live" {
		t.Fatalf("selected %q", source.URL)
	}
}

func TestOrderPolicyFallsBackWhenAllAvoided(t *testing.T) {
	policy := OrderPolicy{AvoidHosts: []string{"bad.example"}}
	source, err := policy.Select([]PlayURL{
		{URL: "https://node2.bad.example/live", Order: 2},
		{URL: "https://node1.bad.example/live", Order: 1},
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if source.URL != "https://node1.bad.example/live" {
		t.Fatalf("fallback selected %q", source.URL)
	}
}

func TestOrderPolicyRejectsEmptyCandidates(t *testing.T) {
	policy := OrderPolicy{}
	if _, err := policy.Select(nil); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
	if _, err := policy.Select([]PlayURL{{URL: "   "}}); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource for blank URLs, got %v", err)
	}
}
