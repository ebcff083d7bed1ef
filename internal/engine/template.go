package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"
)

// Context: данные для рендеринга параметризованного task-файла.
//
// Используется в Go templates:
//   - {{ .Vars.radius }}: значения из --set key=value
//   - {{ .Env.REJOIN_TIMEOUT }}: переменные окружения процесса
type Context struct {
	// Vars: переменные, переданные вызывающей стороной.
	Vars map[string]string `json:"vars"`

	// Env: переменные окружения.
	Env map[string]string `json:"env"`
}

// NewContext создаёт контекст с переменными и снимком окружения процесса.
func NewContext(vars map[string]string) *Context {
	if vars == nil {
		vars = make(map[string]string)
	}
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return &Context{Vars: vars, Env: env}
}

// SetVar устанавливает переменную шаблона.
func (c *Context) SetVar(key, value string) {
	c.Vars[key] = value
}

// ParseVars разбирает список "key=value" (флаги --set).
func ParseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid variable %q, want key=value", pair)
		}
		vars[k] = v
	}
	return vars, nil
}

// templateFuncs: дополнительные функции для шаблонов.
var templateFuncs = template.FuncMap{
	// json: сериализует значение в JSON строку (удобно для списков в YAML)
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return string(b)
	},

	// default: возвращает значение по умолчанию, если первый аргумент пустой
	"default": func(def, val any) any {
		if val == nil {
			return def
		}
		if s, ok := val.(string); ok && s == "" {
			return def
		}
		return val
	},

	// coalesce: возвращает первое непустое значение
	"coalesce": func(values ...any) any {
		for _, v := range values {
			if v != nil {
				if s, ok := v.(string); ok && s == "" {
					continue
				}
				return v
			}
		}
		return nil
	},

	"lower": strings.ToLower,
	"upper": strings.ToUpper,
	"trim":  strings.TrimSpace,
}

// Render рендерит task-файл с контекстом.
//
// Файл без шаблонных выражений возвращается как есть. Отсутствующая
// переменная даёт пустую строку, поэтому значения по умолчанию
// задаются явно: {{ .Vars.radius | default "150" }}.
func Render(data []byte, ctx *Context) ([]byte, error) {
	if !bytes.Contains(data, []byte("{{")) {
		return data, nil
	}

	t, err := template.New("task").Option("missingkey=zero").Funcs(templateFuncs).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	return buf.Bytes(), nil
}
