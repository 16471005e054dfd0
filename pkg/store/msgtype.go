package store

import (
	"fmt"
	"reflect"
)

// TypeNamer lets a message declare its own stable type label for logging
// and metrics, independent of its Go type name.
type TypeNamer interface {
	MsgType() string
}

// MsgType returns a stable, low-cardinality label for a message: the
// message's own MsgType() if it implements TypeNamer, the string itself
// for string messages, otherwise the reflected type name.
func MsgType(msg any) string {
	switch m := msg.(type) {
	case TypeNamer:
		return m.MsgType()
	case string:
		return m
	case fmt.Stringer:
		return m.String()
	}

	t := reflect.TypeOf(msg)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}
