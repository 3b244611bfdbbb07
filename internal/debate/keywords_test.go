package debate

import "testing"

func TestIsSpecificQueryAcceptsConcreteTerms(t *testing.T) {
	cases := []string{
		"某平台 2024年3月 通报",
		"acme battery recall august 2026",
		"weibo 声明 全文",
	}
	for _, q := range cases {
		if !IsSpecificQuery(q) {
			t.Errorf("expected %q to pass the specificity gate", q)
		}
	}
}

func TestIsSpecificQueryRejectsAbstractOrThinQueries(t *testing.T) {
	cases := []string{
		"",
		"策略 风险",
		"risk analysis",
		"应对 措施 建议",
		"acme 策略",
		"a b c",
	}
	for _, q := range cases {
		if IsSpecificQuery(q) {
			t.Errorf("expected %q to fail the specificity gate", q)
		}
	}
}

func TestTokenizeSplitsMixedScripts(t *testing.T) {
	got := tokenize("Acme-recall: 2024年3月 通报!")
	want := []string{"acme", "recall", "2024年3月", "通报"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestDedupeTokensKeepsFirstOccurrence(t *testing.T) {
	got := dedupeTokens([]string{"acme", "recall", "acme", "2026", "recall"}, 10)
	want := []string{"acme", "recall", "2026"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	capped := dedupeTokens([]string{"one", "two", "three"}, 2)
	if len(capped) != 2 {
		t.Errorf("expected cap of 2 honored, got %v", capped)
	}
}
