package billing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Format renders a raw gateway response body into the reply sent to the
// user. Bodies that do not parse as JSON are passed through unchanged; they
// are already human-readable error strings by the time they reach here.
// Formatting never fails: absent fields render as the literal "unknown".
//
// Month and year for the single-bill summary come from the request
// parameters, not the payload, because the gateway omits them there.
func Format(intent Intent, raw string, params map[string]any) string {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return raw
	}

	switch intent {
	case IntentQueryBillDetailed:
		return formatDetailed(data)
	case IntentQueryBill:
		return formatSummary(data, params)
	case IntentPayBill:
		return formatPayment(data)
	}
	return raw
}

func formatDetailed(data map[string]any) string {
	items, _ := data["items"].([]any)
	if len(items) == 0 {
		return "No detailed billing information found for your account."
	}

	lines := make([]string, 0, len(items))
	for _, it := range items {
		item, _ := it.(map[string]any)
		lines = append(lines, fmt.Sprintf(
			"Month %s: Phone charge %s TL, Internet charge %s TL, Total %s TL — Status: %s",
			fieldOr(item, "month"),
			fieldOr(item, "phoneCharge"),
			fieldOr(item, "internetCharge"),
			fieldOr(item, "totalAmount"),
			paidMarker(item["paidStatus"]),
		))
	}
	return strings.Join(lines, "\n")
}

func formatSummary(data, params map[string]any) string {
	return fmt.Sprintf("Your bill for %s/%s amounts to %s TL. Payment status: %s.",
		fieldOr(params, "month"),
		fieldOr(params, "year"),
		fieldOr(data, "totalAmount"),
		paidMarker(data["paidStatus"]),
	)
}

func formatPayment(data map[string]any) string {
	message, _ := data["message"].(string)
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "successful"):
		return "Payment completed successfully. ✅ Thank you!"
	case strings.Contains(lower, "already paid"):
		return "This bill was already paid. ✅ No further action needed."
	case strings.Contains(lower, "insufficient"):
		return "Payment failed due to insufficient amount. ❌ Please check and try again."
	default:
		return message
	}
}

func paidMarker(v any) string {
	if paid, _ := v.(bool); paid {
		return "Paid ✅"
	}
	return "Unpaid ❌"
}

// fieldOr renders a field for display. JSON numbers print without a
// trailing fractional part when they are whole (5, not 5.000000).
func fieldOr(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return "unknown"
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
