package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ключи терминальных статусов, которые пайплайн читает после каждого шага.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Status: упорядоченный status mapping одного шага.
//
// Ключи уникальны и сохраняют порядок первой записи. Значения бывают
// трёх типов (bool, float64, FailureCode). Mapping пересобирается на каждом
// шаге; процессоры получают его только для чтения.
type Status struct {
	keys   []string
	values map[string]any
}

// NewStatus создаёт пустой mapping.
func NewStatus() *Status {
	return &Status{values: make(map[string]any)}
}

// Set записывает значение статуса.
func (s *Status) Set(key string, value any) {
	if _, exists := s.values[key]; !exists {
		s.keys = append(s.keys, key)
	}
	if f, ok := value.(float32); ok {
		value = float64(f)
	}
	s.values[key] = value
}

// Has проверяет, вычислен ли статус.
func (s *Status) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Get возвращает значение статуса или ErrStatusNotProduced.
func (s *Status) Get(key string) (any, error) {
	v, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStatusNotProduced, key)
	}
	return v, nil
}

// Bool возвращает булев статус.
func (s *Status) Bool(key string) (bool, error) {
	v, err := s.Get(key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is %T, want bool", ErrStatusType, key, v)
	}
	return b, nil
}

// Float возвращает числовой статус.
func (s *Status) Float(key string) (float64, error) {
	v, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s is %T, want float64", ErrStatusType, key, v)
	}
	return f, nil
}

// Failure возвращает категориальный статус отказа.
func (s *Status) Failure(key string) (FailureCode, error) {
	v, err := s.Get(key)
	if err != nil {
		return FailureNone, err
	}
	c, ok := v.(FailureCode)
	if !ok {
		return FailureNone, fmt.Errorf("%w: %s is %T, want FailureCode", ErrStatusType, key, v)
	}
	return c, nil
}

// Keys возвращает ключи в порядке вычисления.
func (s *Status) Keys() []string {
	keys := make([]string, len(s.keys))
	copy(keys, s.keys)
	return keys
}

// Len возвращает количество статусов.
func (s *Status) Len() int {
	return len(s.keys)
}

// Clone возвращает независимую копию.
func (s *Status) Clone() *Status {
	c := &Status{
		keys:   make([]string, len(s.keys)),
		values: make(map[string]any, len(s.values)),
	}
	copy(c.keys, s.keys)
	for k, v := range s.values {
		c.values[k] = v
	}
	return c
}

// Map возвращает копию значений без порядка.
func (s *Status) Map() map[string]any {
	m := make(map[string]any, len(s.values))
	for k, v := range s.values {
		m[k] = v
	}
	return m
}

// MarshalJSON сериализует mapping как JSON-объект с сохранением порядка ключей.
func (s *Status) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal status %s: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
