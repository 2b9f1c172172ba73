package drive

import "testing"

func TestLinkDeterministic(t *testing.T) {
	first := Link("Innovate Inc.", "req3", "Sales Ledger")
	second := Link("Innovate Inc.", "req3", "Sales Ledger")
	if first != second {
		t.Fatalf("link not deterministic: %q vs %q", first, second)
	}
	want := "https://drive.google.com/d/Innovate_Inc./req3/Sales_Ledger"
	if first != want {
		t.Errorf("Link = %q, want %q", first, want)
	}
}

func TestLinkUnknownClient(t *testing.T) {
	got := Link("", "req9", "Form 26AS")
	want := "https://drive.google.com/d/Unknown/req9/Form_26AS"
	if got != want {
		t.Errorf("Link = %q, want %q", got, want)
	}
}

func TestObjectKeyMatchesLinkPath(t *testing.T) {
	key := ObjectKey("Solutions Co.", "req2", "PAN Card Copy")
	want := "Solutions_Co./req2/PAN_Card_Copy"
	if key != want {
		t.Errorf("ObjectKey = %q, want %q", key, want)
	}
}
