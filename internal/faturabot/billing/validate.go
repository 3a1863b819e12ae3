package billing

import (
	"sort"
	"strings"
)

// Default pagination injected into QueryBillDetailed requests when the
// extractor did not supply explicit values.
const (
	DefaultPage     = 1
	DefaultPageSize = 50
)

// Outcome is the result of validating one action.
//
// Exactly one of the three shapes applies:
//   - Missing non-empty: the action must not be dispatched; the user is
//     prompted for the listed fields.
//   - SkipReason non-empty: the action is skipped with a warning.
//   - otherwise: Parameters holds the normalized parameter set to dispatch.
type Outcome struct {
	Missing    []string
	SkipReason string
	Parameters map[string]any
}

// OK reports whether the action may be dispatched.
func (o Outcome) OK() bool {
	return len(o.Missing) == 0 && o.SkipReason == ""
}

// payGuardWarning is sent when the extractor proposed a payment the user
// never asked for in so many words.
const payGuardWarning = "⚠️ You didn't ask to pay. Skipping payment."

// Validate checks a single action against the user's original message and
// returns a normalized parameter set.
//
// A nil parameter value counts as missing, as does the outright absence of a
// required key. QueryBillDetailed gets default pagination injected. PayBill
// is only allowed when the originating message itself contains "pay"
// (case-insensitive); the extractor proposing a payment is not enough.
// A failed validation affects this action only; callers continue with the
// remaining actions of the turn.
func Validate(action Action, userText string) Outcome {
	required := requiredParams
	if action.Intent == IntentPayBill {
		required = append(append([]string{}, requiredParams...), "paymentAmount")
	}

	missing := make([]string, 0, len(required))
	for _, key := range required {
		if v, ok := action.Parameters[key]; !ok || v == nil {
			missing = append(missing, key)
		}
	}
	// Null values of any extra keys the extractor volunteered count too.
	var extra []string
	for key, v := range action.Parameters {
		if v == nil && !contains(required, key) {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	missing = append(missing, extra...)
	if len(missing) > 0 {
		return Outcome{Missing: missing}
	}

	params := make(map[string]any, len(action.Parameters)+2)
	for k, v := range action.Parameters {
		params[k] = v
	}

	if action.Intent == IntentQueryBillDetailed {
		if _, ok := params["page"]; !ok {
			params["page"] = DefaultPage
		}
		if _, ok := params["pageSize"]; !ok {
			params["pageSize"] = DefaultPageSize
		}
	}

	if action.Intent == IntentPayBill && !strings.Contains(strings.ToLower(userText), "pay") {
		return Outcome{SkipReason: payGuardWarning}
	}

	return Outcome{Parameters: params}
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
