package console

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/scanwf/scanwf/pkg/logger"
)

var renderLog = logger.New("console:render")

// RenderStruct renders a struct as a markdown-like summary: scalar fields
// become aligned "name: value" lines, slices of structs become tables,
// other slices become bullet lists, and maps become sorted key lists.
//
// Struct tags:
//   - `console:"title:My Title"` sets the section title of a nested value
//   - `console:"header:Column Name"` names a field or table column
//   - `console:"omitempty"` skips zero values
//   - `console:"default:n/a"` replaces zero values
//   - `console:"label"` humanizes string values with HumanizeKey
//   - `console:"-"` skips the field
func RenderStruct(v any) string {
	renderLog.Printf("Rendering struct: type=%T", v)
	var output strings.Builder
	renderValue(reflect.ValueOf(v), "", &output, 0)
	return output.String()
}

func renderValue(val reflect.Value, title string, output *strings.Builder, depth int) {
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Struct:
		renderStruct(val, title, output, depth)
	case reflect.Slice, reflect.Array:
		renderSlice(val, title, output, depth)
	case reflect.Map:
		renderMap(val, title, output, depth)
	}
}

func writeTitle(output *strings.Builder, title string, depth int) {
	if title == "" {
		return
	}
	fmt.Fprintf(output, "%s %s\n\n", strings.Repeat("#", depth+1), title)
}

func renderStruct(val reflect.Value, title string, output *strings.Builder, depth int) {
	typ := val.Type()
	writeTitle(output, title, depth)

	type scalar struct {
		name  string
		value string
	}
	var scalars []scalar
	var nested []func()
	width := 0

	for i := range val.NumField() {
		fieldType := typ.Field(i)
		if !fieldType.IsExported() {
			continue
		}
		field := val.Field(i)
		tag := parseConsoleTag(fieldType.Tag.Get("console"))
		if tag.skip || (tag.omitempty && isZeroValue(field)) {
			continue
		}

		name := fieldType.Name
		if tag.header != "" {
			name = tag.header
		}

		inner := field
		if inner.Kind() == reflect.Pointer && !inner.IsNil() {
			inner = inner.Elem()
		}
		switch inner.Kind() {
		case reflect.Struct, reflect.Slice, reflect.Array, reflect.Map:
			sub := tag.title
			if sub == "" {
				sub = name
			}
			nested = append(nested, func() { renderValue(field, sub, output, depth+1) })
		default:
			scalars = append(scalars, scalar{name: name, value: formatFieldValueWithTag(field, tag)})
			width = max(width, len(name))
		}
	}

	for _, s := range scalars {
		fmt.Fprintf(output, "  %-*s  %s\n", width+1, s.name+":", s.value)
	}
	if len(scalars) > 0 {
		output.WriteString("\n")
	}
	for _, render := range nested {
		render()
	}
}

func renderSlice(val reflect.Value, title string, output *strings.Builder, depth int) {
	if val.Len() == 0 {
		return
	}
	writeTitle(output, title, depth)

	elemType := val.Type().Elem()
	for elemType.Kind() == reflect.Pointer {
		elemType = elemType.Elem()
	}
	if elemType.Kind() == reflect.Struct {
		output.WriteString(RenderTable(buildTableConfig(val)))
		output.WriteString("\n")
		return
	}

	for i := range val.Len() {
		output.WriteString(FormatListItem(formatFieldValue(val.Index(i))))
		output.WriteString("\n")
	}
	output.WriteString("\n")
}

func renderMap(val reflect.Value, title string, output *strings.Builder, depth int) {
	if val.Len() == 0 {
		return
	}
	writeTitle(output, title, depth)

	keys := make([]string, 0, val.Len())
	values := make(map[string]string, val.Len())
	for _, k := range val.MapKeys() {
		key := fmt.Sprint(k.Interface())
		keys = append(keys, key)
		values[key] = formatFieldValue(val.MapIndex(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(output, "  %s: %s\n", k, values[k])
	}
	output.WriteString("\n")
}

// buildTableConfig builds a table from a slice of structs, one column per
// exported field that is not skipped.
func buildTableConfig(val reflect.Value) TableConfig {
	var config TableConfig
	elemType := val.Type().Elem()
	for elemType.Kind() == reflect.Pointer {
		elemType = elemType.Elem()
	}

	var indices []int
	var tags []consoleTag
	for i := range elemType.NumField() {
		field := elemType.Field(i)
		tag := parseConsoleTag(field.Tag.Get("console"))
		if tag.skip || !field.IsExported() {
			continue
		}
		header := field.Name
		if tag.header != "" {
			header = tag.header
		}
		config.Headers = append(config.Headers, header)
		indices = append(indices, i)
		tags = append(tags, tag)
	}

	for i := range val.Len() {
		elem := val.Index(i)
		for elem.Kind() == reflect.Pointer && !elem.IsNil() {
			elem = elem.Elem()
		}
		if elem.Kind() != reflect.Struct {
			continue
		}
		row := make([]string, len(indices))
		for j, idx := range indices {
			row[j] = formatFieldValueWithTag(elem.Field(idx), tags[j])
		}
		config.Rows = append(config.Rows, row)
	}
	return config
}

type consoleTag struct {
	title      string
	header     string
	defaultVal string
	omitempty  bool
	label      bool
	skip       bool
}

func parseConsoleTag(tag string) consoleTag {
	var result consoleTag
	if tag == "-" {
		result.skip = true
		return result
	}
	for part := range strings.SplitSeq(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "omitempty":
			result.omitempty = true
		case part == "label":
			result.label = true
		default:
			if after, ok := strings.CutPrefix(part, "title:"); ok {
				result.title = after
			} else if after, ok := strings.CutPrefix(part, "header:"); ok {
				result.header = after
			} else if after, ok := strings.CutPrefix(part, "default:"); ok {
				result.defaultVal = after
			}
		}
	}
	return result
}

func isZeroValue(val reflect.Value) bool {
	if !val.IsValid() {
		return true
	}
	switch val.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return val.Len() == 0
	case reflect.Interface, reflect.Pointer:
		return val.IsNil()
	default:
		return val.IsZero()
	}
}

func formatFieldValue(val reflect.Value) string {
	for val.Kind() == reflect.Pointer || val.Kind() == reflect.Interface {
		if val.IsNil() {
			return "-"
		}
		val = val.Elem()
	}
	switch val.Kind() {
	case reflect.String:
		return val.String()
	case reflect.Bool:
		if val.Bool() {
			return "yes"
		}
		return "no"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(val.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(val.Uint(), 10)
	case reflect.Slice, reflect.Array:
		parts := make([]string, val.Len())
		for i := range val.Len() {
			parts[i] = formatFieldValue(val.Index(i))
		}
		return strings.Join(parts, ", ")
	default:
		if val.CanInterface() {
			return fmt.Sprint(val.Interface())
		}
		return val.String()
	}
}

func formatFieldValueWithTag(val reflect.Value, tag consoleTag) string {
	if tag.defaultVal != "" && isZeroValue(val) {
		return tag.defaultVal
	}
	s := formatFieldValue(val)
	if tag.label && val.Kind() == reflect.String {
		return HumanizeKey(s)
	}
	return s
}
