package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Rendezvous/internal/domain"
)

// TypeSet сообщает, какие типы процессоров известны для стадии.
// Реализуется реестром процессоров.
type TypeSet interface {
	HasType(stage Stage, typ string) bool
}

// LoadTaskSpec читает task-файл, рендерит шаблон и парсит TaskSpec.
func LoadTaskSpec(path string, vars map[string]string) (*domain.TaskSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task spec: %w", err)
	}

	rendered, err := Render(data, NewContext(vars))
	if err != nil {
		return nil, fmt.Errorf("render task spec %s: %w", path, err)
	}

	return ParseTaskSpec(rendered)
}

// ParseTaskSpec парсит TaskSpec из YAML (JSON тоже принимается).
// Неизвестные поля считаются ошибкой: опечатка в конфиге не должна молча
// превращаться в значение по умолчанию.
func ParseTaskSpec(data []byte) (*domain.TaskSpec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var spec domain.TaskSpec
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyTask
		}
		return nil, fmt.Errorf("parse task spec: %w", err)
	}
	return &spec, nil
}

// Validate выполняет структурную валидацию TaskSpec.
//
// Проверяет:
// - Имя задачи
// - Наличие процессоров и процессора наблюдения
// - Непустые и уникальные имена процессоров (общие для всех стадий)
// - Известность типов (если передан types)
//
// Зависимости между статусами проверяет BuildDAG: для этого нужны
// уже собранные процессоры с их списками прочитанных ключей.
func Validate(spec *domain.TaskSpec, types TypeSet) error {
	if spec == nil {
		return ErrEmptyTask
	}
	if spec.Name == "" {
		return NewValidationError("", "name", "task spec has empty name", ErrEmptyTaskName)
	}

	procs := spec.Processors
	if len(procs.Status) == 0 && len(procs.Reward) == 0 && procs.Observation == nil {
		return ErrEmptyTask
	}
	if procs.Observation == nil {
		return NewValidationError("", "processors.observation",
			"task spec has no observation processor", ErrMissingObservation)
	}

	names := make(map[string]bool)
	check := func(stage Stage, def *domain.ProcessorDef) error {
		return validateProcessor(stage, def, names, types)
	}

	for i := range procs.Status {
		if err := check(StageStatus, &procs.Status[i]); err != nil {
			return err
		}
	}
	for i := range procs.Reward {
		if err := check(StageReward, &procs.Reward[i]); err != nil {
			return err
		}
	}
	return check(StageObservation, procs.Observation)
}

// validateProcessor валидирует одно определение процессора.
// names: уже встреченные имена (для проверки уникальности).
func validateProcessor(stage Stage, def *domain.ProcessorDef, names map[string]bool, types TypeSet) error {
	if def.Name == "" {
		return NewValidationError("", "name",
			fmt.Sprintf("%s processor of type %q has empty name", stage, def.Type), ErrEmptyProcessorName)
	}

	if names[def.Name] {
		return NewValidationError(def.Name, "name",
			fmt.Sprintf("duplicate processor name: %s", def.Name), ErrDuplicateProcessorName)
	}
	names[def.Name] = true

	if def.Type == "" {
		return NewValidationError(def.Name, "type",
			"processor has empty type", ErrUnknownProcessorType)
	}

	if types != nil && !types.HasType(stage, def.Type) {
		return NewValidationError(def.Name, "type",
			fmt.Sprintf("unknown %s processor type: %s", stage, def.Type), ErrUnknownProcessorType)
	}

	return nil
}
