package nlp

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/faturabot/faturabot/internal/faturabot/billing"
)

// actionSchema shape-checks one normalized action before it is handed to
// validation and dispatch. It deliberately does not constrain the intent to
// the known names: an unknown intent must reach the dispatcher, which
// answers with a textual error instead of contacting the gateway.
const actionSchema = `{
	"type": "object",
	"required": ["intent"],
	"properties": {
		"intent": {"type": "string"},
		"parameters": {
			"type": "object",
			"additionalProperties": {"type": ["string", "number", "null"]}
		}
	}
}`

var compiledActionSchema = jsonschema.MustCompileString("action.schema.json", actionSchema)

// Extraction is the canonical result of parsing one completion. Exactly one
// of the two fields is meaningful:
//   - Missing non-nil: the extractor needs more information; nothing is
//     dispatched this turn.
//   - Actions non-empty: the proposals to validate and dispatch, in order.
type Extraction struct {
	Missing []string
	Actions []billing.Action
}

// ParseExtraction interprets the completion engine's raw reply.
//
// The engine historically produced two shapes for a single action: a bare
// {"intent": ..., "parameters": {...}} object (sometimes with the parameters
// spread across the top level) and the newer {"actions": [...]} array. Both
// are normalized here, in one place, into a canonical action list so the
// rest of the pipeline only ever sees one representation.
//
// Errors: ErrMalformedOutput when the reply is not a JSON object or an
// action fails the shape check; ErrNotUnderstood when the object carries
// neither "actions" nor "intent".
func ParseExtraction(raw string) (*Extraction, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("%w: %v (raw content: %.200s)", ErrMalformedOutput, err, raw)
	}

	// Top-level missing_info short-circuits the whole turn. Missing is
	// non-nil even when the engine forgot to list the fields, so callers
	// can tell "needs info" from "no actions".
	if intent, _ := data["intent"].(string); intent == string(billing.IntentMissingInfo) {
		missing := []string{}
		if list, ok := data["missing"].([]any); ok {
			for _, m := range list {
				if s, ok := m.(string); ok {
					missing = append(missing, s)
				}
			}
		}
		return &Extraction{Missing: missing}, nil
	}

	rawActions, ok := data["actions"].([]any)
	if !ok {
		if _, hasIntent := data["intent"]; !hasIntent {
			return nil, ErrNotUnderstood
		}
		rawActions = []any{wrapBareIntent(data)}
	}

	actions := make([]billing.Action, 0, len(rawActions))
	for i, ra := range rawActions {
		if err := compiledActionSchema.Validate(ra); err != nil {
			return nil, fmt.Errorf("%w: actions[%d]: %v", ErrMalformedOutput, i, err)
		}
		obj := ra.(map[string]any)
		params, _ := obj["parameters"].(map[string]any)
		if params == nil {
			params = map[string]any{}
		}
		actions = append(actions, billing.Action{
			Intent:     billing.Intent(obj["intent"].(string)),
			Parameters: params,
		})
	}

	return &Extraction{Actions: actions}, nil
}

// wrapBareIntent converts the single-action reply shape into an actions
// element. Parameters come from the "parameters" field when present,
// otherwise from every other top-level key.
func wrapBareIntent(data map[string]any) map[string]any {
	params, ok := data["parameters"].(map[string]any)
	if !ok {
		params = make(map[string]any, len(data))
		for k, v := range data {
			if k != "intent" {
				params[k] = v
			}
		}
	}
	return map[string]any{
		"intent":     data["intent"],
		"parameters": params,
	}
}
