// Package tools implements the planner's tool surface. The set is closed:
// every tool is a Kind with one Handler, and the executor dispatches over that
// enumeration only. Adding a tool means adding a Kind, a handler and its
// registration, nowhere else.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"

	errx "github.com/Tripmate-core-poc-v1/server/internal/core/error"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

// Kind names a tool the conversational model may call.
type Kind string

const (
	KindUpdateItinerary Kind = "update_itinerary"
	KindPlanRoute       Kind = "plan_route"
)

// Handler executes one tool kind against the per-turn context.
type Handler interface {
	Kind() Kind
	// Info describes the tool to the model.
	Info() *schema.ToolInfo
	// Execute runs the tool. Returned errors are recoverable: the loop feeds
	// them back to the model as a tool result. Version counters on tc move
	// only on success.
	Execute(ctx context.Context, args json.RawMessage, tc *model.TurnContext) (any, error)
}

// Executor dispatches tool calls by kind.
type Executor struct {
	order    []Kind
	handlers map[Kind]Handler
}

func NewExecutor(handlers ...Handler) *Executor {
	e := &Executor{handlers: make(map[Kind]Handler, len(handlers))}
	for _, h := range handlers {
		if _, dup := e.handlers[h.Kind()]; dup {
			continue
		}
		e.order = append(e.order, h.Kind())
		e.handlers[h.Kind()] = h
	}
	return e
}

// Execute runs the named tool. Unknown names are argument errors so the model
// gets told instead of the turn dying.
func (e *Executor) Execute(ctx context.Context, name string, args string, tc *model.TurnContext) (any, error) {
	handler, ok := e.handlers[Kind(name)]
	if !ok {
		return nil, errx.ToolArgument(fmt.Sprintf("未知工具：%s", name))
	}
	return handler.Execute(ctx, json.RawMessage(args), tc)
}

// ToolInfos returns the advertised tool schemas in registration order.
func (e *Executor) ToolInfos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(e.order))
	for _, kind := range e.order {
		infos = append(infos, e.handlers[kind].Info())
	}
	return infos
}
