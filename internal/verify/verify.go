// Package verify performs a best-effort check of one generated Python
// payload: a static parse, then a small heuristic test battery against the
// first declared function when its name suggests sorting.
//
// Security: verification executes the payload. The python3 child process is
// the only boundary; there is no resource limiting or filesystem isolation.
// This is unsafe for adversarial input and intended for controlled, trusted
// environments only. Production use requires a real sandbox around the
// evaluator (container, restricted subprocess, or a dedicated service).
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/autocritique/reflect-go/internal/observability"
	"github.com/autocritique/reflect-go/internal/pyeval"
	"github.com/autocritique/reflect-go/internal/types"
	"github.com/autocritique/reflect-go/internal/utils"
)

// sortVectors is the fixed battery for functions whose name contains "sort".
// Deliberately narrow: anything else gets a syntax-only pass.
var sortVectors = []struct {
	input    []int
	expected []int
}{
	{[]int{}, []int{}},
	{[]int{1}, []int{1}},
	{[]int{3, 1, 2}, []int{1, 2, 3}},
	{[]int{5, 4, 3, 2, 1}, []int{1, 2, 3, 4, 5}},
}

type Verifier struct {
	pythonBin string
	timeout   time.Duration
}

func New(pythonBin string, timeout time.Duration) *Verifier {
	return &Verifier{pythonBin: pythonBin, timeout: timeout}
}

// Verify checks one code payload and always returns a structured result;
// the error return is reserved for evaluator failures (python missing,
// child process died, deadline expired), never for findings about the code.
func (v *Verifier) Verify(ctx context.Context, code string) (types.VerificationResult, error) {
	result := types.VerificationResult{Errors: []string{}}

	ev, err := pyeval.New(ctx, v.pythonBin, v.timeout)
	if err != nil {
		return result, fmt.Errorf("start evaluator: %w", err)
	}
	defer ev.Close()

	parsed, err := ev.Parse(code)
	if err != nil {
		return result, err
	}
	if !parsed.OK {
		result.Errors = append(result.Errors, parsed.Error)
		observability.Verifications.WithLabelValues("syntax_error").Inc()
		return result, nil
	}
	result.SyntaxOK = true

	if len(parsed.Functions) == 0 {
		observability.Verifications.WithLabelValues("syntax_only").Inc()
		return result, nil
	}

	// First declared function only; a narrow heuristic kept on purpose.
	fn := parsed.Functions[0]
	result.FunctionTested = fn

	vectors := sortVectors
	if !strings.Contains(strings.ToLower(fn), "sort") {
		vectors = nil
	}

	loaded, err := ev.Load(code, fn)
	if err != nil {
		return result, err
	}
	if !loaded.OK {
		result.Errors = append(result.Errors, loaded.Error)
		observability.Verifications.WithLabelValues("exec_error").Inc()
		return result, nil
	}
	if !loaded.Callable {
		result.Errors = append(result.Errors, fmt.Sprintf("Function %s not found after exec.", fn))
		observability.Verifications.WithLabelValues("missing_function").Inc()
		return result, nil
	}

	for _, tc := range vectors {
		result.TestsRun++
		call, err := ev.Call(fn, tc.input)
		if err != nil {
			return result, err
		}
		if !call.OK {
			result.Errors = append(result.Errors, fmt.Sprintf("Exception when testing input %v: %s", tc.input, call.Error))
			continue
		}
		if jsonEqual(call.Result, tc.expected) {
			result.TestsPassed++
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("Test failed for input %v: got %s, expected %v", tc.input, call.Result, tc.expected))
		}
	}

	observability.Verifications.WithLabelValues("tested").Inc()
	observability.VerificationTests.WithLabelValues("passed").Add(float64(result.TestsPassed))
	observability.VerificationTests.WithLabelValues("failed").Add(float64(result.TestsRun - result.TestsPassed))
	return result, nil
}

// VerifyGenerationText extracts fenced code from raw generation text and
// verifies the first block found.
func (v *Verifier) VerifyGenerationText(ctx context.Context, text string) (types.GenerationVerification, error) {
	blocks := utils.ExtractCodeBlocks(text)
	if len(blocks) == 0 {
		return types.GenerationVerification{
			FoundCode:    false,
			Verification: types.VerificationResult{Errors: []string{"No code block found"}},
		}, nil
	}

	result, err := v.Verify(ctx, blocks[0])
	if err != nil {
		return types.GenerationVerification{}, err
	}
	return types.GenerationVerification{FoundCode: true, Verification: result}, nil
}

// jsonEqual compares the evaluator's JSON-encoded return value against the
// expected vector through a common decoding, so 1 and 1.0 compare equal.
func jsonEqual(got json.RawMessage, expected []int) bool {
	var gotVal any
	if err := json.Unmarshal(got, &gotVal); err != nil {
		return false
	}
	data, err := json.Marshal(expected)
	if err != nil {
		return false
	}
	var wantVal any
	if err := json.Unmarshal(data, &wantVal); err != nil {
		return false
	}
	return reflect.DeepEqual(gotVal, wantVal)
}
