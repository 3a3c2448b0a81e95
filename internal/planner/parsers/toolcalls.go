package parsers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// embeddedCall is the shape some models emit inside content instead of using
// the native tool-call channel: arguments may be a JSON object or a string.
type embeddedCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ExtractToolCalls returns the tool calls carried by an assistant message.
// Native ToolCalls win; otherwise the content is inspected for an embedded
// `{"tool_calls":[...]}` array or a single `{"name","arguments"}` object.
// Calls missing an ID get one synthesized (call_1, call_2, ...) so tool
// result messages can always reference their request.
func ExtractToolCalls(msg *schema.Message) []schema.ToolCall {
	if msg == nil {
		return nil
	}

	if len(msg.ToolCalls) > 0 {
		calls := make([]schema.ToolCall, len(msg.ToolCalls))
		copy(calls, msg.ToolCalls)
		fillIDs(calls)
		return calls
	}

	obj, err := ExtractJSONObject(msg.Content)
	if err != nil {
		return nil
	}

	var calls []schema.ToolCall
	if raw, ok := obj["tool_calls"]; ok {
		arr, ok := raw.([]any)
		if !ok {
			return nil
		}
		for _, item := range arr {
			if call, ok := embeddedToCall(item); ok {
				calls = append(calls, call)
			}
		}
	} else if call, ok := embeddedToCall(obj); ok {
		calls = append(calls, call)
	}

	fillIDs(calls)
	return calls
}

func embeddedToCall(v any) (schema.ToolCall, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		return schema.ToolCall{}, false
	}
	var embedded embeddedCall
	if err := json.Unmarshal(b, &embedded); err != nil || strings.TrimSpace(embedded.Name) == "" {
		return schema.ToolCall{}, false
	}

	arguments := "{}"
	if len(embedded.Arguments) > 0 {
		var asString string
		if err := json.Unmarshal(embedded.Arguments, &asString); err == nil {
			arguments = asString
		} else {
			arguments = string(embedded.Arguments)
		}
	}

	return schema.ToolCall{
		Type: "function",
		Function: schema.FunctionCall{
			Name:      embedded.Name,
			Arguments: arguments,
		},
	}, true
}

func fillIDs(calls []schema.ToolCall) {
	seq := 0
	for i := range calls {
		if strings.TrimSpace(calls[i].ID) == "" {
			seq++
			calls[i].ID = fmt.Sprintf("call_%d", seq)
		}
	}
}
