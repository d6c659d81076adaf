package template

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Engine substitutes {{ name }} placeholders in session hook commands
type Engine struct {
	// Pattern to match template variables like {{ variableName }}
	templatePattern *regexp.Regexp
}

// New creates a new template engine
func New() *Engine {
	return &Engine{
		templatePattern: regexp.MustCompile(`\{\{\s*\.?([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`),
	}
}

// Render replaces every placeholder in template with its value from vars.
// All placeholders must be present; the error lists the missing ones.
func (e *Engine) Render(template string, vars map[string]any) (string, error) {
	var missing []string
	result := e.templatePattern.ReplaceAllStringFunc(template, func(match string) string {
		name := e.templatePattern.FindStringSubmatch(match)[1]
		value, ok := vars[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return FormatValue(value)
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("missing template variables: %s", strings.Join(dedupe(missing), ", "))
	}
	return result, nil
}

// RenderArgs splits a command template on whitespace and renders each
// field, so a value containing spaces stays a single argument. Placeholders
// are compacted first so "{{ name }}" is never split apart.
func (e *Engine) RenderArgs(template string, vars map[string]any) ([]string, error) {
	compact := e.templatePattern.ReplaceAllStringFunc(template, func(match string) string {
		return "{{" + e.templatePattern.FindStringSubmatch(match)[1] + "}}"
	})
	fields := strings.Fields(compact)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	args := make([]string, len(fields))
	for i, f := range fields {
		arg, err := e.Render(f, vars)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return args, nil
}

// Replace renders strings nested in maps and slices; other values are
// returned as-is.
func (e *Engine) Replace(value any, vars map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		return e.Render(v, vars)
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			replaced, err := e.Replace(val, vars)
			if err != nil {
				return nil, fmt.Errorf("error in key '%s': %w", key, err)
			}
			result[key] = replaced
		}
		return result, nil
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			replaced, err := e.Replace(val, vars)
			if err != nil {
				return nil, fmt.Errorf("error at index %d: %w", i, err)
			}
			result[i] = replaced
		}
		return result, nil
	default:
		return value, nil
	}
}

// ExtractVariables returns the sorted placeholder names used in template.
func (e *Engine) ExtractVariables(template string) []string {
	var names []string
	for _, match := range e.templatePattern.FindAllStringSubmatch(template, -1) {
		names = append(names, match[1])
	}
	names = dedupe(names)
	sort.Strings(names)
	return names
}

// ValidateContext ensures all required variables are present in vars
func (e *Engine) ValidateContext(template string, vars map[string]any) error {
	var missing []string
	for _, name := range e.ExtractVariables(template) {
		if _, exists := vars[name]; !exists {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// FormatValue renders a setting value the way configuration tools expect:
// integers without decimals, floats in shortest form, bools as true/false.
func FormatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
