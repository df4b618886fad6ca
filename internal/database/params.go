package database

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strconv"
)

// ValueKind identifies which variant a Value holds.
type ValueKind int

const (
	NullValue ValueKind = iota
	IntValue
	BoolValue
	TextValue
)

func (k ValueKind) String() string {
	switch k {
	case IntValue:
		return "int"
	case BoolValue:
		return "bool"
	case TextValue:
		return "text"
	default:
		return "null"
	}
}

// Value is a statement parameter. Its type is fixed by the constructor the
// caller picks, so the driver never has to guess it from the Go value.
//
// The zero Value is Null.
type Value struct {
	kind ValueKind
	i    int64
	b    bool
	s    string
}

// Int returns an integer parameter.
func Int(v int64) Value { return Value{kind: IntValue, i: v} }

// Bool returns a boolean parameter.
func Bool(v bool) Value { return Value{kind: BoolValue, b: v} }

// Null returns a NULL parameter.
func Null() Value { return Value{kind: NullValue} }

// Text returns a string parameter.
func Text(v string) Value { return Value{kind: TextValue, s: v} }

// Kind reports the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// Value implements driver.Valuer.
func (v Value) Value() (driver.Value, error) {
	switch v.kind {
	case IntValue:
		return v.i, nil
	case BoolValue:
		return v.b, nil
	case TextValue:
		return v.s, nil
	case NullValue:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown parameter kind %d", v.kind)
	}
}

func (v Value) String() string {
	switch v.kind {
	case IntValue:
		return strconv.FormatInt(v.i, 10)
	case BoolValue:
		return strconv.FormatBool(v.b)
	case TextValue:
		return strconv.Quote(v.s)
	default:
		return "NULL"
	}
}

// Params maps placeholder names, without the leading colon, to values.
type Params map[string]Value

// names returns the parameter names in sorted order.
func (p Params) names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BoundParameter is a placeholder (":name") paired with its value.
type BoundParameter struct {
	Name  string
	Value Value
}

// BindParameter queues a value for the named placeholder of the next Query.
//
// Queued parameters take precedence over the Params passed to Query and are
// cleared once that Query returns, whatever its outcome.
func (c *Connector) BindParameter(name string, value Value) {
	c.params = append(c.params, BoundParameter{Name: ":" + name, Value: value})
}

// PendingParameters returns a copy of the queued parameters.
func (c *Connector) PendingParameters() []BoundParameter {
	out := make([]BoundParameter, len(c.params))
	copy(out, c.params)
	return out
}

// takeParams returns the parameters for the current statement and resets the
// pending sequence. params is only used when nothing was queued.
func (c *Connector) takeParams(params Params) []BoundParameter {
	if len(c.params) == 0 {
		for _, name := range params.names() {
			c.BindParameter(name, params[name])
		}
	}

	bound := c.params
	c.params = []BoundParameter{}
	return bound
}
