package billing_test

import (
	"strings"
	"testing"

	"github.com/faturabot/faturabot/internal/faturabot/billing"
)

func TestFormat_QueryBillSummary(t *testing.T) {
	raw := `{"totalAmount": 120.5, "paidStatus": true}`
	params := map[string]any{"month": float64(5), "year": float64(2025)}

	got := billing.Format(billing.IntentQueryBill, raw, params)
	if !strings.Contains(got, "5/2025") {
		t.Errorf("reply should state the requested month/year: %q", got)
	}
	if !strings.Contains(got, "120.5 TL") {
		t.Errorf("reply should state the total: %q", got)
	}
	if !strings.Contains(got, "Paid ✅") {
		t.Errorf("reply should carry the paid marker: %q", got)
	}
}

func TestFormat_QueryBillUnpaid(t *testing.T) {
	raw := `{"totalAmount": 200, "paidStatus": false}`
	params := map[string]any{"month": float64(5), "year": float64(2025)}

	got := billing.Format(billing.IntentQueryBill, raw, params)
	want := "Your bill for 5/2025 amounts to 200 TL. Payment status: Unpaid ❌."
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}

func TestFormat_NonJSONPassesThrough(t *testing.T) {
	raw := "API call failed: connection refused"
	if got := billing.Format(billing.IntentQueryBill, raw, nil); got != raw {
		t.Errorf("non-JSON body must pass through unchanged, got %q", got)
	}
}

func TestFormat_DetailedEmptyItems(t *testing.T) {
	got := billing.Format(billing.IntentQueryBillDetailed, `{"items": []}`, nil)
	if !strings.Contains(got, "No detailed billing information") {
		t.Errorf("empty items should produce the no-information message, got %q", got)
	}
}

func TestFormat_DetailedItems(t *testing.T) {
	raw := `{"items": [
		{"month": 1, "phoneCharge": 50, "internetCharge": 30, "totalAmount": 80, "paidStatus": true},
		{"month": 2, "phoneCharge": 55, "internetCharge": 35, "totalAmount": 90, "paidStatus": false}
	]}`
	got := billing.Format(billing.IntentQueryBillDetailed, raw, nil)

	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected one line per item, got %d: %q", len(lines), got)
	}
	if !strings.Contains(lines[0], "Month 1") || !strings.Contains(lines[0], "Paid ✅") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Total 90 TL") || !strings.Contains(lines[1], "Unpaid ❌") {
		t.Errorf("second line = %q", lines[1])
	}
}

func TestFormat_DetailedMissingFieldsRenderUnknown(t *testing.T) {
	raw := `{"items": [{"month": 3}]}`
	got := billing.Format(billing.IntentQueryBillDetailed, raw, nil)
	if !strings.Contains(got, "Phone charge unknown TL") {
		t.Errorf("absent fields should render as unknown: %q", got)
	}
}

func TestFormat_PayBillClassification(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    string
	}{
		{"success", "Payment successful", "Payment completed successfully. ✅ Thank you!"},
		{"already paid", "Bill already paid", "This bill was already paid. ✅ No further action needed."},
		{"insufficient", "Insufficient amount provided", "Payment failed due to insufficient amount. ❌ Please check and try again."},
		{"unrecognized", "Subscriber is suspended", "Subscriber is suspended"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := `{"message": "` + tc.message + `"}`
			if got := billing.Format(billing.IntentPayBill, raw, nil); got != tc.want {
				t.Errorf("Format(%q) = %q, want %q", tc.message, got, tc.want)
			}
		})
	}
}

func TestFormat_UnknownIntentPassesThrough(t *testing.T) {
	raw := `{"some": "payload"}`
	if got := billing.Format(billing.Intent("Refund"), raw, nil); got != raw {
		t.Errorf("unknown intent should pass the body through, got %q", got)
	}
}
