package entity

// RequestKind selects the analysis a request asks for
type RequestKind string

const (
	RequestBundle  RequestKind = "bundle"
	RequestRefresh RequestKind = "refresh"
	RequestPlan    RequestKind = "plan"
)

// AnalysisRequest is an analysis job received from the message bus
type AnalysisRequest struct {
	RequestID   string      `json:"request_id"`
	Kind        RequestKind `json:"kind,omitempty"`
	Addresses   []string    `json:"addresses"`
	TargetScore int         `json:"target_score,omitempty"`
}

// AnalysisResponse carries the outcome of one AnalysisRequest
type AnalysisResponse struct {
	RequestID string            `json:"request_id"`
	Kind      RequestKind       `json:"kind"`
	Bundle    *BundleReport     `json:"bundle,omitempty"`
	Wallet    *WalletReport     `json:"wallet,omitempty"`
	Plan      *OptimizationPlan `json:"plan,omitempty"`
	Error     string            `json:"error,omitempty"`
	ErrorKind ErrorKind         `json:"error_kind,omitempty"`
}
