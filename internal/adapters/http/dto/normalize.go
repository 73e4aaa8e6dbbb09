package dto

// NormalizeRequest is the body of POST /api/v1/normalize. Text may be empty,
// but must be present.
type NormalizeRequest struct {
	Text *string `json:"text" validate:"required,max=65536"`
}

// NormalizeResponse is the result of POST /api/v1/normalize.
type NormalizeResponse struct {
	Text string `json:"text"`
}

// Response headers of POST /api/v1/records/clean carrying the run summary.
const (
	HeaderRecordsTotal   = "X-Records-Total"
	HeaderRecordsEmitted = "X-Records-Emitted"
	HeaderRecordsDropped = "X-Records-Dropped"
	HeaderRunID          = "X-Run-ID"
)

// CleanQuery holds the optional query parameters of POST /api/v1/records/clean.
type CleanQuery struct {
	// Delimiter overrides the configured field delimiter.
	Delimiter string `form:"delimiter" json:"delimiter" validate:"omitempty,len=1,delimiter"`

	// CRLF terminates output rows with \r\n.
	CRLF bool `form:"crlf" json:"crlf"`
}
