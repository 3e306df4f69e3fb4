package models

// User represents one allow-listed group member.
//
// NOTE: Password is a placeholder credential written at store initialization.
// Login never compares it; any allow-listed username is accepted. This
// mirrors the deployed behavior and is deliberately not "fixed" here.
type User struct {
	// Password is the placeholder credential. Never verified.
	Password string `json:"password"`

	// Balance is the running total this member has paid on behalf of the
	// group, counting expenses with IsCalculate set. Reset by settling.
	Balance float64 `json:"balance"`
}
