package pyeval

import (
	"context"
	"os/exec"
	"reflect"
	"strings"
	"testing"
	"time"
)

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not found")
	}
}

func TestParseReportsTopLevelFunctions(t *testing.T) {
	requirePython(t)

	ev, err := New(context.Background(), "python3", 10*time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer ev.Close()

	reply, err := ev.Parse("def first(a):\n    def inner(b):\n        return b\n    return inner\n\ndef second(c):\n    return c")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !reply.OK {
		t.Fatalf("Expected parse to succeed: %s", reply.Error)
	}
	// Declaration order, nested definitions excluded.
	if want := []string{"first", "second"}; !reflect.DeepEqual(reply.Functions, want) {
		t.Errorf("Functions = %v, want %v", reply.Functions, want)
	}
}

func TestLoadAndCall(t *testing.T) {
	requirePython(t)

	ev, err := New(context.Background(), "python3", 10*time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer ev.Close()

	loaded, err := ev.Load("def double(xs):\n    return [x * 2 for x in xs]", "double")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.OK || !loaded.Callable {
		t.Fatalf("Expected callable function, got %+v", loaded)
	}

	call, err := ev.Call("double", []int{1, 2})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if !call.OK {
		t.Fatalf("Expected call to succeed: %s", call.Error)
	}
	if got := strings.TrimSpace(string(call.Result)); got != "[2, 4]" {
		t.Errorf("Result = %s, want [2, 4]", got)
	}
}

func TestCallWithoutLoad(t *testing.T) {
	requirePython(t)

	ev, err := New(context.Background(), "python3", 10*time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer ev.Close()

	call, err := ev.Call("ghost", []int{})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if call.OK || !strings.Contains(call.Error, "not found") {
		t.Errorf("Expected not-found error, got %+v", call)
	}
}

func TestCallDeadlineKillsChild(t *testing.T) {
	requirePython(t)

	ev, err := New(context.Background(), "python3", 500*time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer ev.Close()

	if _, err := ev.Load("import time\n\ndef slow_sort(arr):\n    time.sleep(30)\n    return arr", "slow_sort"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := ev.Call("slow_sort", []int{1}); err == nil {
		t.Fatal("Expected timeout error")
	}
}

func TestCloseIsSafeOnZeroValue(t *testing.T) {
	e := &Evaluator{}
	e.Close() // Should not panic on nil fields
}
