package types

type DataResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type AskResponse struct {
	Answer  string          `json:"answer"`
	Sources []ScoredPassage `json:"sources"`
}

type KBStatusResponse struct {
	Ready    bool   `json:"ready"`
	Passages int    `json:"passages"`
	Model    string `json:"model,omitempty"`
}

type UploadResponse struct {
	OriginalName string     `json:"original_name,omitempty"`
	Stats        BuildStats `json:"stats"`
}

type ProcessingDocumentStatus struct {
	Status   string        `json:"status"`
	Message  string        `json:"message"`
	Progress BuildProgress `json:"progress"`
}
