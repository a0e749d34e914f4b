package client

type SubmitTaskRequest struct {
	Task              string `json:"task"`
	OutputDescription string `json:"output_description,omitempty"`
}

type SubmitTaskResponse struct {
	OK     bool   `json:"ok"`
	Queued bool   `json:"queued,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type EnhanceRequest struct {
	Text string `json:"text"`
}

type EnhanceResponse struct {
	OK       bool   `json:"ok"`
	Enhanced string `json:"enhanced,omitempty"`
	Error    string `json:"error,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
