package types

type AskRequest struct {
	Question string `json:"question" binding:"required"`
	K        int    `json:"k,omitempty"`
}

type UploadRequest struct {
	Title string `json:"title"`
}
