package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ParamsKind tags which of the three parameter shapes a call carries.
type ParamsKind int

const (
	// ParamsNone means the call carries no parameters; the handler gets zero arguments.
	ParamsNone ParamsKind = iota
	// ParamsList means the call carries an ordered sequence spread as positional arguments.
	ParamsList
	// ParamsValue means the call carries one structured value passed as the sole argument.
	ParamsValue
)

func (k ParamsKind) String() string {
	switch k {
	case ParamsNone:
		return "none"
	case ParamsList:
		return "list"
	case ParamsValue:
		return "value"
	default:
		return fmt.Sprintf("ParamsKind(%d)", int(k))
	}
}

// Params is the tagged union of call parameters. The zero value is ParamsNone.
type Params struct {
	kind   ParamsKind
	list   []any
	single any
}

// NoParams returns an empty parameter set.
func NoParams() Params {
	return Params{kind: ParamsNone}
}

// ListParams returns positional parameters. An empty list is still a list and invokes the
// handler with zero arguments.
func ListParams(values ...any) Params {
	list := make([]any, len(values))
	copy(list, values)
	return Params{kind: ParamsList, list: list}
}

// ValueParams returns a single structured parameter.
func ValueParams(value any) Params {
	return Params{kind: ParamsValue, single: value}
}

// Kind returns the shape tag.
func (p Params) Kind() ParamsKind {
	return p.kind
}

// Args returns the positional arguments the handler is invoked with.
func (p Params) Args() []any {
	switch p.kind {
	case ParamsList:
		args := make([]any, len(p.list))
		copy(args, p.list)
		return args
	case ParamsValue:
		return []any{p.single}
	default:
		return nil
	}
}

// Summary renders the parameters for diagnostics.
func (p Params) Summary() string {
	switch p.kind {
	case ParamsList:
		parts := make([]string, len(p.list))
		for i, v := range p.list {
			parts[i] = fmt.Sprint(v)
		}
		return "...params: " + strings.Join(parts, ",")
	case ParamsValue:
		return fmt.Sprintf("params: %v", p.single)
	default:
		return "no params"
	}
}

// UnmarshalJSON decodes the wire shape: null becomes none, an array becomes a list and
// any other JSON value becomes a single value.
func (p *Params) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = NoParams()
		return nil
	}

	if trimmed[0] == '[' {
		var list []any
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("%w: params: %v", ErrInvalidRequest, err)
		}
		*p = ListParams(list...)
		return nil
	}

	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return fmt.Errorf("%w: params: %v", ErrInvalidRequest, err)
	}
	*p = ValueParams(value)
	return nil
}

// MarshalJSON encodes the parameters in their wire shape.
func (p Params) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case ParamsList:
		if p.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(p.list)
	case ParamsValue:
		return json.Marshal(p.single)
	default:
		return []byte("null"), nil
	}
}

// Request is one call from the front-end.
type Request struct {
	Method string `json:"method"`
	Params Params `json:"params"`
}

// Validate checks the request envelope. It does not check that the method exists.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Method) == "" {
		return fmt.Errorf("%w: method is required", ErrInvalidRequest)
	}
	return nil
}
