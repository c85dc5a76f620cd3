package dto

// MessageResponse is the generic success envelope for operations that only
// need to acknowledge.
type MessageResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// ResolveDateResponse reports a payroll date resolution.
type ResolveDateResponse struct {
	Nominal  string `json:"nominal"`
	Resolved string `json:"resolved"`
	Shifted  bool   `json:"shifted"`
}
