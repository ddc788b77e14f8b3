// Package pyeval runs Python source out of process behind a narrow contract:
// parse a payload, load it into a fresh namespace, call one function with one
// input. The child process speaks JSON lines over stdin/stdout and every call
// carries a deadline; on expiry the child is killed.
package pyeval

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// driverScript keeps interpreter state between requests. Each "load" resets
// the namespace, so one Evaluator verifies exactly one payload at a time.
const driverScript = `
import ast
import json
import sys
import traceback

_ns = {}

def handle(req):
    global _ns
    op = req.get("op")
    if op == "parse":
        try:
            tree = ast.parse(req["code"])
        except Exception as e:
            return {"ok": False, "error": "SyntaxError: %s" % e}
        funcs = [n.name for n in tree.body if isinstance(n, ast.FunctionDef)]
        return {"ok": True, "functions": funcs}
    if op == "load":
        _ns = {}
        try:
            exec(compile(req["code"], "<generated>", "exec"), _ns, _ns)
        except Exception as e:
            return {"ok": False, "error": "RuntimeError on exec: %s\n%s" % (e, traceback.format_exc())}
        fn = req.get("function", "")
        return {"ok": True, "callable": callable(_ns.get(fn))}
    if op == "call":
        fn = _ns.get(req["function"])
        if not callable(fn):
            return {"ok": False, "error": "Function %s not found after exec." % req["function"]}
        try:
            out = fn(req["input"])
        except Exception as e:
            return {"ok": False, "error": "%s\n%s" % (e, traceback.format_exc())}
        return {"ok": True, "result": out}
    return {"ok": False, "error": "unknown op %r" % op}

while True:
    line = sys.stdin.readline()
    if not line:
        break
    try:
        resp = handle(json.loads(line))
        encoded = json.dumps(resp)
    except Exception as e:
        encoded = json.dumps({"ok": False, "error": "driver error: %s" % e})
    sys.stdout.write(encoded + "\n")
    sys.stdout.flush()
`

// Reply is the driver's answer to any request. Unused fields stay zero.
type Reply struct {
	OK        bool            `json:"ok"`
	Error     string          `json:"error"`
	Functions []string        `json:"functions"`
	Callable  bool            `json:"callable"`
	Result    json.RawMessage `json:"result"`
}

type Evaluator struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	tempDir string
	timeout time.Duration
	mu      sync.Mutex
}

func New(ctx context.Context, pythonBin string, timeout time.Duration) (*Evaluator, error) {
	if pythonBin == "" {
		pythonBin = "python3"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	tempDir, err := os.MkdirTemp("", "reflect-pyeval-*")
	if err != nil {
		return nil, err
	}

	driverPath := tempDir + "/driver.py"
	if err := os.WriteFile(driverPath, []byte(driverScript), 0644); err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	cmd := exec.CommandContext(ctx, pythonBin, driverPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	return &Evaluator{
		cmd:     cmd,
		stdin:   stdin,
		stdout:  bufio.NewReader(stdoutPipe),
		tempDir: tempDir,
		timeout: timeout,
	}, nil
}

// Parse checks the payload for syntactic validity without executing it and
// reports top-level function names in declaration order.
func (e *Evaluator) Parse(code string) (*Reply, error) {
	return e.roundTrip(map[string]string{"op": "parse", "code": code})
}

// Load executes the payload once in a fresh namespace and reports whether the
// named function is callable afterwards.
func (e *Evaluator) Load(code, function string) (*Reply, error) {
	return e.roundTrip(map[string]string{"op": "load", "code": code, "function": function})
}

// Call invokes the named function with a single input value.
func (e *Evaluator) Call(function string, input any) (*Reply, error) {
	return e.roundTrip(map[string]any{"op": "call", "function": function, "input": input})
}

func (e *Evaluator) roundTrip(req any) (*Reply, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if _, err := e.stdin.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("write to evaluator: %w", err)
	}

	type readResult struct {
		line string
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		line, err := e.stdout.ReadString('\n')
		ch <- readResult{line, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("read from evaluator: %w", r.err)
		}
		var reply Reply
		if err := json.Unmarshal([]byte(r.line), &reply); err != nil {
			return nil, fmt.Errorf("parse evaluator reply: %w", err)
		}
		return &reply, nil
	case <-time.After(e.timeout):
		e.cmd.Process.Kill()
		return nil, fmt.Errorf("evaluator call timed out after %s", e.timeout)
	}
}

func (e *Evaluator) Close() {
	if e.stdin != nil {
		e.stdin.Close()
	}
	if e.cmd != nil && e.cmd.Process != nil {
		e.cmd.Process.Kill()
	}
	os.RemoveAll(e.tempDir)
}
