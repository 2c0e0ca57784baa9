package interpolation

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
)

// Tag marks a field for expansion: `env_interpolation:"yes"`.
const Tag = "env_interpolation"

// Struct expands tagged fields of the struct v points to, in place, using
// the process environment. See StructWith.
func Struct(v any) error {
	return StructWith(v, nil)
}

// StructWith expands tagged fields with lookup (nil means the process
// environment). A tagged field may be a string, a []string, a
// map[string]string, or a map[string]any whose string leaves are expanded
// at any depth. Untagged struct fields, pointers to structs and slices of
// structs are searched for tagged fields.
func StructWith(v any, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Pointer || val.IsNil() {
		return fmt.Errorf("expected a non-nil pointer to a struct, got %T", v)
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("expected a pointer to a struct, got %T", v)
	}

	w := walker{lookup: lookup}
	w.structFields(val, "")
	return errors.Join(w.errs...)
}

type walker struct {
	lookup LookupFunc
	errs   []error
}

func (w *walker) fail(path string, err error) {
	w.errs = append(w.errs, fmt.Errorf("%s: %w", path, err))
}

func (w *walker) expand(path, s string) string {
	out, err := Expand(s, w.lookup)
	if err != nil {
		w.fail(path, err)
	}
	return out
}

func (w *walker) structFields(val reflect.Value, prefix string) {
	typ := val.Type()
	for i := range val.NumField() {
		field := val.Field(i)
		info := typ.Field(i)
		if !field.CanSet() {
			continue
		}

		path := info.Name
		if prefix != "" {
			path = prefix + "." + info.Name
		}

		if strings.EqualFold(info.Tag.Get(Tag), "yes") {
			w.tagged(field, path)
			continue
		}
		w.nested(field, path)
	}
}

// nested descends into untagged containers of structs.
func (w *walker) nested(field reflect.Value, path string) {
	switch field.Kind() {
	case reflect.Struct:
		w.structFields(field, path)
	case reflect.Pointer:
		if !field.IsNil() && field.Elem().Kind() == reflect.Struct {
			w.structFields(field.Elem(), path)
		}
	case reflect.Slice:
		for j := range field.Len() {
			w.nested(field.Index(j), fmt.Sprintf("%s[%d]", path, j))
		}
	}
}

func (w *walker) tagged(field reflect.Value, path string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(w.expand(path, field.String()))

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return
		}
		for j := range field.Len() {
			elem := field.Index(j)
			elem.SetString(w.expand(fmt.Sprintf("%s[%d]", path, j), elem.String()))
		}

	case reflect.Map:
		if field.IsNil() || field.Type().Key().Kind() != reflect.String {
			return
		}
		switch field.Type().Elem().Kind() {
		case reflect.String:
			for _, key := range field.MapKeys() {
				expanded := w.expand(path+"["+key.String()+"]", field.MapIndex(key).String())
				field.SetMapIndex(key, reflect.ValueOf(expanded).Convert(field.Type().Elem()))
			}
		case reflect.Interface:
			if m, ok := field.Interface().(map[string]any); ok {
				for k, v := range m {
					m[k] = w.value(path+"["+k+"]", v)
				}
			}
		}
	}
}

// value expands string leaves of decoded data.
func (w *walker) value(path string, v any) any {
	switch t := v.(type) {
	case string:
		return w.expand(path, t)
	case map[string]any:
		for k, inner := range t {
			t[k] = w.value(path+"."+k, inner)
		}
		return t
	case []any:
		for j, inner := range t {
			t[j] = w.value(fmt.Sprintf("%s[%d]", path, j), inner)
		}
		return t
	default:
		return v
	}
}
