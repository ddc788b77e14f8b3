package types

// Message is one role-tagged entry in a conversation transcript.
// Order within a transcript is significant: it is the context the model sees.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type UsageSummary struct {
	TotalCalls        int `json:"total_calls"`
	TotalInputTokens  int `json:"total_input_tokens"`
	TotalOutputTokens int `json:"total_output_tokens"`
}

// Round is one generation+critique pair. Step is 1-based and strictly
// increasing within a run.
type Round struct {
	Step           int    `json:"step"`
	GenerationText string `json:"generation_text"`
	CritiqueText   string `json:"critique_text"`
}

// RunResult is the outcome of one reflection run. FinalAssistant always
// equals the generation text of the last round recorded, including runs
// stopped early by the approval marker.
type RunResult struct {
	RunID          string       `json:"run_id"`
	Model          string       `json:"model"`
	FinalAssistant string       `json:"final_assistant"`
	Rounds         []Round      `json:"rounds"`
	Transcript     []Message    `json:"transcript"`
	UsageSummary   UsageSummary `json:"usage_summary"`
	ExecutionTime  float64      `json:"execution_time"`
}

// ChatCompletion is the normalized OpenAI-style reply shape. Vendor clients
// that can produce it do; the response adapters also accept the equivalent
// nested-map shape and fall back to string coercion for anything else.
type ChatCompletion struct {
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Message Message `json:"message"`
}

// VerificationResult describes one verification pass over one code payload.
type VerificationResult struct {
	SyntaxOK       bool     `json:"syntax_ok"`
	TestsRun       int      `json:"tests_run"`
	TestsPassed    int      `json:"tests_passed"`
	Errors         []string `json:"errors"`
	FunctionTested string   `json:"function_tested,omitempty"`
}

// GenerationVerification is the result of verifying raw generation text:
// whether a fenced code block was found, and the verification of the first one.
type GenerationVerification struct {
	FoundCode    bool               `json:"found_code"`
	Verification VerificationResult `json:"verification"`
}
