package types

const (
	TypeWebsocketPing     = "ping"
	TypeWebsocketPong     = "pong"
	TypeWebsocketQuestion = "question"
	TypeWebsocketAnswer   = "answer"
	TypeWebsocketError    = "error"
)

type WebsocketRequest struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebsocketQuestionPayload struct {
	Text string `json:"text"`
}

type WebsocketResponse struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebsocketAnswerPayload struct {
	Text    string          `json:"text"`
	Sources []ScoredPassage `json:"sources,omitempty"`
}

type WebsocketErrorPayload struct {
	Message string `json:"message"`
}

// GenerateOptions configures a single generation call.
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
}

// GenerationResultKind discriminates the variants of GenerationResult.
type GenerationResultKind int

const (
	// GenerationText means the backend returned a recognizable text field.
	GenerationText GenerationResultKind = iota
	// GenerationRaw means no text field was found and Raw holds the whole
	// response.
	GenerationRaw
)

// GenerationResult is the tagged result of a generation backend call.
// Backends return Text when the response has a primary text field and Raw
// otherwise; the answer synthesizer switches on Kind.
type GenerationResult struct {
	Kind GenerationResultKind
	Text string
	Raw  interface{}
}
