package processors

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/engine"
)

// Config: типизированный доступ к конфигурации процессора.
//
// Ошибка "липкая": после первой ошибки остальные вызовы возвращают
// нулевые значения, а фабрика проверяет Done() один раз в конце.
// Done также отвергает ключи, которые фабрика ни разу не прочитала:
// опечатка в необязательном ключе не должна молча давать значение
// по умолчанию.
//
//	cfg := NewConfig(def)
//	object := cfg.RequireString("object")
//	region := cfg.RequireString("region")
//	if err := cfg.Done(); err != nil {
//	    return nil, err
//	}
type Config struct {
	proc     string
	prefix   string
	raw      map[string]any
	read     map[string]bool
	children []*Config
	err      error
}

// NewConfig создаёт читатель конфигурации процессора.
func NewConfig(def domain.ProcessorDef) *Config {
	raw := def.Config
	if raw == nil {
		raw = make(map[string]any)
	}
	return &Config{proc: def.Name, raw: raw, read: make(map[string]bool)}
}

// Err возвращает первую ошибку чтения.
func (c *Config) Err() error {
	return c.err
}

// Done завершает чтение: первая ошибка чтения или первый
// непрочитанный ключ (включая ключи вложенных списков).
func (c *Config) Done() error {
	if c.err == nil {
		c.checkUnread()
	}
	return c.err
}

func (c *Config) checkUnread() {
	keys := make([]string, 0, len(c.raw))
	for k := range c.raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if !c.read[k] {
			c.fail(k, "unknown key", engine.ErrInvalidConfig)
			return
		}
	}
	for _, child := range c.children {
		child.checkUnread()
		c.Merge(child)
		if c.err != nil {
			return
		}
	}
}

func (c *Config) field(key string) string {
	return c.prefix + key
}

func (c *Config) fail(key, msg string, base error) {
	if c.err == nil {
		c.err = engine.NewValidationError(c.proc, c.field(key), c.field(key)+": "+msg, base)
	}
}

func (c *Config) lookup(key string) (any, bool) {
	c.read[key] = true
	if c.err != nil {
		return nil, false
	}
	v, ok := c.raw[key]
	return v, ok && v != nil
}

// RequireString читает обязательную непустую строку.
func (c *Config) RequireString(key string) string {
	v, ok := c.lookup(key)
	if !ok {
		c.fail(key, "is required", engine.ErrMissingConfig)
		return ""
	}
	s, isStr := v.(string)
	if !isStr || s == "" {
		c.fail(key, fmt.Sprintf("must be a non-empty string, got %v", v), engine.ErrInvalidConfig)
		return ""
	}
	return s
}

// OptionalString читает строку или возвращает def.
func (c *Config) OptionalString(key, def string) string {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	s, isStr := v.(string)
	if !isStr {
		c.fail(key, fmt.Sprintf("must be a string, got %T", v), engine.ErrInvalidConfig)
		return def
	}
	return s
}

// RequireEnum читает обязательную строку из допустимого набора.
func (c *Config) RequireEnum(key string, allowed ...string) string {
	s := c.RequireString(key)
	if c.err != nil {
		return ""
	}
	return c.checkEnum(key, s, allowed)
}

// OptionalEnum читает строку из допустимого набора или возвращает def.
func (c *Config) OptionalEnum(key, def string, allowed ...string) string {
	s := c.OptionalString(key, def)
	if c.err != nil {
		return def
	}
	return c.checkEnum(key, s, allowed)
}

func (c *Config) checkEnum(key, s string, allowed []string) string {
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	c.fail(key, fmt.Sprintf("unknown value %q (want one of %s)", s, strings.Join(allowed, ", ")), engine.ErrInvalidConfig)
	return ""
}

// RequireFloat читает обязательное конечное число.
func (c *Config) RequireFloat(key string) float64 {
	v, ok := c.lookup(key)
	if !ok {
		c.fail(key, "is required", engine.ErrMissingConfig)
		return 0
	}
	return c.toFloat(key, v)
}

// OptionalFloat читает число или возвращает def.
func (c *Config) OptionalFloat(key string, def float64) float64 {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	return c.toFloat(key, v)
}

// LookupFloat читает необязательное число и сообщает, задано ли оно.
func (c *Config) LookupFloat(key string) (float64, bool) {
	v, ok := c.lookup(key)
	if !ok {
		return 0, false
	}
	f := c.toFloat(key, v)
	return f, c.err == nil
}

// RequireNorm читает константу нормализации: конечное ненулевое число.
func (c *Config) RequireNorm(key string) float64 {
	f := c.RequireFloat(key)
	if c.err == nil && f == 0 {
		c.fail(key, "normalization constant must be non-zero", engine.ErrInvalidConfig)
	}
	return f
}

func (c *Config) toFloat(key string, v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		c.fail(key, fmt.Sprintf("must be a number, got %T", v), engine.ErrInvalidConfig)
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		c.fail(key, fmt.Sprintf("must be finite, got %v", f), engine.ErrInvalidConfig)
		return 0
	}
	return f
}

// OptionalInt читает целое число или возвращает def.
func (c *Config) OptionalInt(key string, def int) int {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
	}
	c.fail(key, fmt.Sprintf("must be an integer, got %v", v), engine.ErrInvalidConfig)
	return def
}

// OptionalBool читает булево значение или возвращает def.
func (c *Config) OptionalBool(key string, def bool) bool {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	b, isBool := v.(bool)
	if !isBool {
		c.fail(key, fmt.Sprintf("must be a boolean, got %T", v), engine.ErrInvalidConfig)
		return def
	}
	return b
}

// RequireFloatMap читает обязательную таблицу строка → число.
func (c *Config) RequireFloatMap(key string) map[string]float64 {
	v, ok := c.lookup(key)
	if !ok {
		c.fail(key, "is required", engine.ErrMissingConfig)
		return nil
	}
	m, isMap := v.(map[string]any)
	if !isMap {
		c.fail(key, fmt.Sprintf("must be a mapping, got %T", v), engine.ErrInvalidConfig)
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, val := range m {
		out[k] = c.toFloat(key+"."+k, val)
	}
	return out
}

// OptionalList читает список вложенных конфигураций (может отсутствовать).
// Ошибки вложенных конфигураций попадают в этот Config.
func (c *Config) OptionalList(key string) []*Config {
	v, ok := c.lookup(key)
	if !ok {
		return nil
	}
	items, isList := v.([]any)
	if !isList {
		c.fail(key, fmt.Sprintf("must be a list, got %T", v), engine.ErrInvalidConfig)
		return nil
	}
	out := make([]*Config, 0, len(items))
	for i, item := range items {
		m, isMap := item.(map[string]any)
		if !isMap {
			c.fail(fmt.Sprintf("%s[%d]", key, i), fmt.Sprintf("must be a mapping, got %T", item), engine.ErrInvalidConfig)
			return nil
		}
		out = append(out, &Config{
			proc:   c.proc,
			prefix: fmt.Sprintf("%s%s[%d].", c.prefix, key, i),
			raw:    m,
			read:   make(map[string]bool),
		})
	}
	c.children = append(c.children, out...)
	return out
}

// RequireList читает непустой список вложенных конфигураций.
func (c *Config) RequireList(key string) []*Config {
	if _, ok := c.lookup(key); !ok {
		c.fail(key, "is required", engine.ErrMissingConfig)
		return nil
	}
	items := c.OptionalList(key)
	if c.err == nil && len(items) == 0 {
		c.fail(key, "must not be empty", engine.ErrInvalidConfig)
	}
	return items
}

// Merge переносит ошибку вложенной конфигурации.
func (c *Config) Merge(sub *Config) {
	if c.err == nil && sub.err != nil {
		c.err = sub.err
	}
}
