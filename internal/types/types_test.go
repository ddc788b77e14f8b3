package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestVerificationResultJSONKeys(t *testing.T) {
	// The wire keys are part of the API surface.
	data, err := json.Marshal(VerificationResult{SyntaxOK: true, Errors: []string{}})
	if err != nil {
		t.Fatalf("Failed to marshal VerificationResult: %v", err)
	}

	for _, key := range []string{`"syntax_ok"`, `"tests_run"`, `"tests_passed"`, `"errors"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("Expected key %s in %s", key, data)
		}
	}
	if strings.Contains(string(data), "function_tested") {
		t.Error("Expected function_tested to be omitted when empty")
	}
}

func TestRunResultJSON(t *testing.T) {
	result := RunResult{
		RunID:          "r1",
		FinalAssistant: "done",
		Rounds:         []Round{{Step: 1, GenerationText: "done", CritiqueText: "<OK>"}},
		Transcript: []Message{
			{Role: RoleSystem, Content: "sys"},
			{Role: RoleUser, Content: "task"},
		},
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Failed to marshal RunResult: %v", err)
	}

	var decoded RunResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal RunResult: %v", err)
	}
	if decoded.FinalAssistant != result.FinalAssistant || len(decoded.Rounds) != 1 {
		t.Errorf("Mismatch after round trip: %+v", decoded)
	}
}
