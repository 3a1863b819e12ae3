// Package billing defines the billing action model and the pure functions
// around it: parameter validation and reply formatting. Nothing here talks
// to the network; the gateway client consumes these types.
package billing

// Intent names a billing operation the user wants performed, or the
// missing_info sentinel produced by the extractor when it could not fill in
// all parameters.
type Intent string

const (
	// IntentQueryBill asks for the bill total of a single month/year.
	IntentQueryBill Intent = "QueryBill"
	// IntentQueryBillDetailed asks for a paginated multi-month breakdown.
	IntentQueryBillDetailed Intent = "QueryBillDetailed"
	// IntentPayBill pays a bill.
	IntentPayBill Intent = "PayBill"
	// IntentMissingInfo signals the extractor needs more information.
	IntentMissingInfo Intent = "missing_info"
)

// Action is the unit of dispatch: an intent paired with the parameters the
// extractor pulled out of the user's message. Parameter values are the
// decoded JSON types: string, float64, or nil.
type Action struct {
	Intent     Intent
	Parameters map[string]any
}

// requiredParams lists the parameters every dispatchable intent needs.
// paymentAmount is additionally required for PayBill.
var requiredParams = []string{"subscriberNo", "month", "year"}
