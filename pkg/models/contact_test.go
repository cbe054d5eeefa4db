package models

import (
	"reflect"
	"testing"
)

func TestNeedsDiscovery(t *testing.T) {
	websites := []string{"", "  ", "https://acme.test"}
	names := []string{"", "Acme"}
	methods := []ScrapeMethod{ScrapeMethodNone, ScrapeMethodDirectURL, ScrapeMethodEmailDomain, ScrapeMethodBusinessSearch}

	for _, website := range websites {
		for _, name := range names {
			for _, method := range methods {
				c := Contact{ID: 1, Website: website, BusinessName: name, ScrapeMethod: method}
				emptyWebsite := website == "" || website == "  "
				want := emptyWebsite && (name != "" || method == ScrapeMethodBusinessSearch)
				if got := NeedsDiscovery(c); got != want {
					t.Errorf("NeedsDiscovery(website=%q name=%q method=%q) = %v, want %v",
						website, name, method, got, want)
				}
				if c.NeedsDiscovery() != NeedsDiscovery(c) {
					t.Fatalf("method and function disagree")
				}
			}
		}
	}
}

func TestContactMatches(t *testing.T) {
	c := Contact{BusinessName: "Acme Plumbing", Website: "acme.test", Email: "ops@acme.test", State: "TX", ZipCode: "73301"}
	for _, term := range []string{"", "acme", "PLUMB", "tx", "733", "ops@"} {
		if !c.Matches(term) {
			t.Errorf("Matches(%q) = false", term)
		}
	}
	if c.Matches("zebra") {
		t.Fatalf("Matches(zebra) = true")
	}
}

func TestBatchDiscoveryFilter(t *testing.T) {
	batch := BatchDiscoveryResult{Results: []DiscoveryResult{
		{ContactID: 3, Success: true, DiscoveredWebsite: "c.test"},
		{ContactID: 9, Success: true, DiscoveredWebsite: "other.test"},
		{ContactID: 1, Success: true, DiscoveredWebsite: "a.test"},
		{ContactID: 2, Success: false},
		{ContactID: 1, Success: true, DiscoveredWebsite: "dup.test"},
		{ContactID: 4, Success: true, DiscoveredWebsite: " "},
	}}

	usable, uncovered := batch.Filter([]int64{1, 2, 3, 4, 5})
	var gotIDs []int64
	for _, r := range usable {
		gotIDs = append(gotIDs, r.ContactID)
	}
	if !reflect.DeepEqual(gotIDs, []int64{3, 1}) {
		t.Fatalf("usable ids = %v, want [3 1]", gotIDs)
	}
	if usable[1].DiscoveredWebsite != "a.test" {
		t.Fatalf("duplicate result replaced the first: %q", usable[1].DiscoveredWebsite)
	}
	if !reflect.DeepEqual(uncovered, []int64{2, 4, 5}) {
		t.Fatalf("uncovered = %v, want [2 4 5]", uncovered)
	}
}

func TestParseConfidence(t *testing.T) {
	cases := map[string]Confidence{"HIGH": ConfidenceHigh, "medium": ConfidenceMedium, " low ": ConfidenceLow, "": ConfidenceLow, "sure": ConfidenceLow}
	for in, want := range cases {
		if got := ParseConfidence(in); got != want {
			t.Errorf("ParseConfidence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]ScrapeOutcome{{Success: true}, {Success: false}, {Success: true}})
	if s != (ScrapeSummary{Total: 3, Succeeded: 2, Failed: 1}) {
		t.Fatalf("Summarize() = %+v", s)
	}
}
