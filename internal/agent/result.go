package agent

import (
	"fmt"
	"reflect"
	"strings"
)

type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindStructured
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindStructured:
		return "structured"
	default:
		return "empty"
	}
}

// Result is what an agent run produced: free text, an arbitrary value, or nothing.
type Result struct {
	Kind  Kind
	Text  string
	Value any
}

func Text(text string) Result {
	return Result{Kind: KindText, Text: text}
}

func Structured(value any) Result {
	return Result{Kind: KindStructured, Value: value}
}

func Empty() Result {
	return Result{Kind: KindEmpty}
}

// String renders the result for diagnostics.
func (r Result) String() string {
	switch r.Kind {
	case KindText:
		return fmt.Sprintf("Text(%q)", r.Text)
	case KindStructured:
		return fmt.Sprintf("Structured(%s)", safeSprint(r.Value))
	default:
		return "Empty"
	}
}

// ExtractOutput returns the text an agent result carries. Structured values are
// searched for an "output" key, then an Output field or method, and otherwise
// stringified. It never panics; an empty string means nothing usable was found.
func ExtractOutput(r Result) string {
	switch r.Kind {
	case KindText:
		return r.Text
	case KindStructured:
		return extractValue(r.Value)
	default:
		return ""
	}
}

func extractValue(value any) (out string) {
	defer func() {
		if recover() != nil {
			out = safeSprint(value)
		}
	}()
	if value == nil {
		return ""
	}
	if output, ok := lookupOutput(reflect.ValueOf(value)); ok {
		return stringify(output)
	}
	return fmt.Sprint(value)
}

// lookupOutput finds the output carried by a mapping, a struct field or an
// Output method, in that order. A string-keyed mapping without the key still
// counts as found with a nil output.
func lookupOutput(value reflect.Value) (any, bool) {
	v := value
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			break
		}
		entry := v.MapIndex(reflect.ValueOf("output").Convert(v.Type().Key()))
		if !entry.IsValid() {
			return nil, true
		}
		return entry.Interface(), true
	case reflect.Struct:
		if field := v.FieldByName("Output"); field.IsValid() && field.CanInterface() {
			return field.Interface(), true
		}
	}
	if method := value.MethodByName("Output"); method.IsValid() && method.Type().NumIn() == 0 && method.Type().NumOut() >= 1 {
		return method.Call(nil)[0].Interface(), true
	}
	return nil, false
}

func stringify(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []byte:
		return string(typed)
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

func safeSprint(value any) (out string) {
	defer func() {
		if recover() != nil {
			out = fmt.Sprintf("<%T>", value)
		}
	}()
	return fmt.Sprint(value)
}

// HasOutput reports whether extracted text is usable. Whitespace-only text
// counts as no output, the same as an empty or missing value.
func HasOutput(text string) bool {
	return strings.TrimSpace(text) != ""
}
