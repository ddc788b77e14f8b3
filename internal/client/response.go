package client

import (
	"fmt"

	"github.com/autocritique/reflect-go/internal/types"
)

// A shapeAdapter probes one reply shape and reports whether it matched.
// New client shapes are supported by appending an adapter, nothing else.
type shapeAdapter func(resp any) (text string, ok bool)

var shapeAdapters = []shapeAdapter{completionShape, mapShape, textShape}

// ResponseText resolves a ChatClient reply to assistant text. It tries the
// known shapes in order and degrades to a string coercion of the whole reply
// rather than failing, so a malformed reply never aborts a caller.
func ResponseText(resp any) string {
	for _, probe := range shapeAdapters {
		if text, ok := probe(resp); ok {
			return text
		}
	}
	return fmt.Sprintf("%v", resp)
}

// completionShape matches the normalized typed reply.
func completionShape(resp any) (string, bool) {
	var cc *types.ChatCompletion
	switch v := resp.(type) {
	case *types.ChatCompletion:
		cc = v
	case types.ChatCompletion:
		cc = &v
	default:
		return "", false
	}
	if cc == nil || len(cc.Choices) == 0 {
		return "", false
	}
	return cc.Choices[0].Message.Content, true
}

// mapShape matches the decoded-JSON form: choices[0].message.content.
func mapShape(resp any) (string, bool) {
	m, ok := resp.(map[string]any)
	if !ok {
		return "", false
	}
	choices, ok := m["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return "", false
	}
	message, ok := choice["message"].(map[string]any)
	if !ok {
		return "", false
	}
	content, ok := message["content"].(string)
	return content, ok
}

// textShape matches anything that can already speak for itself.
func textShape(resp any) (string, bool) {
	if t, ok := resp.(interface{ Text() string }); ok {
		return t.Text(), true
	}
	return "", false
}
