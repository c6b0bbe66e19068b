package dto

type TranscribeResponse struct {
	Text string `json:"text"`
}

// TranscribeErrorResponse always carries FallbackText so the caller has a
// usable placeholder transcript even on total failure.
type TranscribeErrorResponse struct {
	Error        string `json:"error"`
	Message      string `json:"message,omitempty"`
	FallbackText string `json:"fallbackText"`
}
