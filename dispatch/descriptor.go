package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Convention is the closed set of ways a capability is invoked.
type Convention int

const (
	// ContextBound capabilities receive the session and the arguments.
	ContextBound Convention = iota + 1
	// ArgumentOnly capabilities receive only the arguments.
	ArgumentOnly
	// ContextAndPromptMutating capabilities receive a PromptSession and may
	// change its prompt.
	ContextAndPromptMutating
)

func (c Convention) String() string {
	switch c {
	case ContextBound:
		return "context-bound"
	case ArgumentOnly:
		return "argument-only"
	case ContextAndPromptMutating:
		return "context-and-prompt-mutating"
	default:
		return "unknown"
	}
}

// Action tells the orchestration layer what to do with a Response.
type Action string

const (
	// ActionReqLLM hands the result back to the language model.
	ActionReqLLM Action = "continue-with-llm"
	// ActionResponse is a final answer spoken to the user as is.
	ActionResponse Action = "success-terminal"
	// ActionNotFound reports an unknown capability.
	ActionNotFound Action = "not-found"
)

// Response is the uniform result of a dispatched call.
type Response struct {
	Action   Action `json:"action"`
	Result   string `json:"result,omitempty"`
	Response string `json:"response,omitempty"`
}

// ReqLLM builds a response whose result is fed back to the model.
func ReqLLM(result string) *Response {
	return &Response{Action: ActionReqLLM, Result: result}
}

// Terminal builds a final response for the user.
func Terminal(text string) *Response {
	return &Response{Action: ActionResponse, Result: text, Response: text}
}

// NotFound is the response for an unregistered capability.
func NotFound() *Response {
	return &Response{Action: ActionNotFound, Result: "capability not found"}
}

// Session is the execution context handed to context-bound capabilities.
type Session interface {
	ID() string
}

// PromptSession is a Session with mutable prompt state.
type PromptSession interface {
	Session
	Prompt() string
	SetPrompt(prompt string)
}

// BoundFunc implements ContextBound and ContextAndPromptMutating capabilities.
type BoundFunc func(ctx context.Context, s Session, args Arguments) (*Response, error)

// PlainFunc implements ArgumentOnly capabilities.
type PlainFunc func(ctx context.Context, args Arguments) (*Response, error)

// Definition is the function-calling blob advertised upstream. Its JSON
// shape is consumed verbatim by the model's tool interface.
type Definition struct {
	Type     string       `json:"type"`
	Function FunctionSpec `json:"function"`
}

// FunctionSpec is the function part of a Definition.
type FunctionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Descriptor binds a capability name to its convention and callable.
type Descriptor struct {
	Name       string
	Convention Convention
	Definition Definition

	// Bound is used for ContextBound and ContextAndPromptMutating.
	Bound BoundFunc
	// Plain is used for ArgumentOnly.
	Plain PlainFunc

	// Meta marks the capability whose description lists the other
	// registered capabilities through PluginsPlaceholder.
	Meta bool
}

// Arguments is a decoded argument object.
type Arguments map[string]any

// Text returns the value for key rendered as a string. Numbers and
// booleans are formatted; missing or null keys report false.
func (a Arguments) Text(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprint(t), true
	}
}

// TextOr returns the trimmed text for key, or def when it is missing or blank.
func (a Arguments) TextOr(key, def string) string {
	s, ok := a.Text(key)
	if !ok || strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}

// Bool reads a boolean, accepting JSON booleans and "true"/"false" strings.
func (a Arguments) Bool(key string) bool {
	switch t := a[key].(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	default:
		return false
	}
}

// Int reads an integer, accepting JSON numbers and numeric strings.
func (a Arguments) Int(key string, def int) int {
	switch t := a[key].(type) {
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return def
}
