package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Stage: стадия вычисления процессора внутри шага.
type Stage int

const (
	// StageStatus: статусы вычисляются первыми.
	StageStatus Stage = iota

	// StageReward: награды читают готовый status mapping.
	StageReward

	// StageObservation: наблюдение вычисляется последним.
	StageObservation
)

// String возвращает имя стадии.
func (s Stage) String() string {
	switch s {
	case StageStatus:
		return "status"
	case StageReward:
		return "reward"
	case StageObservation:
		return "observation"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Decl: объявление процессора для построения графа.
type Decl struct {
	// Name: уникальное имя; для статусов это ключ в status mapping.
	Name string

	// Stage: стадия вычисления.
	Stage Stage

	// Reads: ключи статусов, которые процессор читает в том же шаге.
	Reads []string
}

// Node: узел в DAG.
type Node struct {
	Decl Decl

	// Index: позиция в объявлении; определяет порядок среди равноправных узлов.
	Index int

	// InDegree: количество входящих рёбер (зависимостей).
	InDegree int

	// DependsOn: статусы, которые читает этот узел.
	DependsOn []*Node

	// Dependents: узлы, которые читают этот статус.
	Dependents []*Node
}

// ID возвращает имя процессора.
func (n *Node) ID() string {
	return n.Decl.Name
}

// DAG: граф зависимостей процессоров одной задачи.
type DAG struct {
	// Nodes: все узлы графа (name → Node).
	Nodes map[string]*Node

	// RootNodes: узлы без зависимостей.
	RootNodes []*Node

	// Order: порядок вычисления.
	Order []*Node
}

// BuildDAG строит граф и порядок вычисления.
//
// Рёбра идут от статуса к каждому процессору, который его читает.
// Порядок: алгоритм Кана, где среди готовых узлов первым берётся
// узел с меньшей стадией, затем с меньшим индексом объявления. Поэтому
// все статусы идут раньше наград и наблюдения, а корректный порядок
// объявления сохраняется без изменений.
func BuildDAG(decls []Decl) (*DAG, error) {
	dag := &DAG{
		Nodes:     make(map[string]*Node, len(decls)),
		RootNodes: make([]*Node, 0),
	}

	// Первый проход: создаём все узлы
	for i, decl := range decls {
		if decl.Name == "" {
			return nil, NewValidationError("", "name",
				fmt.Sprintf("%s processor %d has empty name", decl.Stage, i), ErrEmptyProcessorName)
		}
		if _, exists := dag.Nodes[decl.Name]; exists {
			return nil, NewValidationError(decl.Name, "name",
				fmt.Sprintf("duplicate processor name: %s", decl.Name), ErrDuplicateProcessorName)
		}
		dag.Nodes[decl.Name] = &Node{
			Decl:       decl,
			Index:      i,
			DependsOn:  make([]*Node, 0),
			Dependents: make([]*Node, 0),
		}
	}

	// Второй проход: связываем узлы по прочитанным статусам
	for _, decl := range decls {
		if err := dag.linkDependencies(dag.Nodes[decl.Name]); err != nil {
			return nil, err
		}
	}

	dag.findRootNodes()

	order, err := dag.topologicalSort()
	if err != nil {
		return nil, err
	}
	dag.Order = order

	return dag, nil
}

// linkDependencies связывает узел со статусами, которые он читает.
func (d *DAG) linkDependencies(node *Node) error {
	for _, key := range node.Decl.Reads {
		if key == node.ID() {
			return NewValidationError(node.ID(), "config",
				"processor reads its own status", ErrSelfDependency)
		}

		dep, exists := d.Nodes[key]
		if !exists || dep.Decl.Stage != StageStatus {
			return NewValidationError(node.ID(), "config",
				fmt.Sprintf("reads status %q which no status processor produces", key), ErrMissingDependency)
		}

		d.addEdge(dep, node)
	}
	return nil
}

// addEdge добавляет ребро между узлами.
// Дополнительно проверяет на дубликаты, чтобы избежать двойного учета InDegree.
func (d *DAG) addEdge(from, to *Node) {
	for _, dep := range to.DependsOn {
		if dep.ID() == from.ID() {
			return
		}
	}
	from.Dependents = append(from.Dependents, to)
	to.DependsOn = append(to.DependsOn, from)
	to.InDegree++
}

// findRootNodes находит узлы без входящих рёбер в порядке объявления.
func (d *DAG) findRootNodes() {
	d.RootNodes = make([]*Node, 0)
	for _, node := range d.Nodes {
		if node.InDegree == 0 {
			d.RootNodes = append(d.RootNodes, node)
		}
	}
	sortNodes(d.RootNodes)
}

// topologicalSort выполняет топологическую сортировку (алгоритм Кана).
// Возвращает ошибку, если обнаружен цикл.
func (d *DAG) topologicalSort() ([]*Node, error) {
	inDegree := make(map[string]int, len(d.Nodes))
	for id, node := range d.Nodes {
		inDegree[id] = node.InDegree
	}

	ready := make([]*Node, len(d.RootNodes))
	copy(ready, d.RootNodes)

	order := make([]*Node, 0, len(d.Nodes))

	for len(ready) > 0 {
		sortNodes(ready)
		node := ready[0]
		ready = ready[1:]
		order = append(order, node)

		for _, dependent := range node.Dependents {
			inDegree[dependent.ID()]--
			if inDegree[dependent.ID()] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(d.Nodes) {
		stuck := make([]string, 0)
		for id, deg := range inDegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, NewValidationError("", "config",
			fmt.Sprintf("cyclic status dependency between: %s", strings.Join(stuck, ", ")), ErrCyclicDependency)
	}

	return order, nil
}

// sortNodes упорядочивает узлы по (стадия, индекс объявления).
func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Decl.Stage != nodes[j].Decl.Stage {
			return nodes[i].Decl.Stage < nodes[j].Decl.Stage
		}
		return nodes[i].Index < nodes[j].Index
	})
}

// GetNode возвращает узел по имени.
func (d *DAG) GetNode(name string) *Node {
	return d.Nodes[name]
}

// Size возвращает количество узлов в DAG.
func (d *DAG) Size() int {
	return len(d.Nodes)
}

// Names возвращает имена процессоров в порядке вычисления.
func (d *DAG) Names() []string {
	names := make([]string, len(d.Order))
	for i, node := range d.Order {
		names[i] = node.ID()
	}
	return names
}

// StageOrder возвращает узлы одной стадии в порядке вычисления.
func (d *DAG) StageOrder(stage Stage) []*Node {
	nodes := make([]*Node, 0)
	for _, node := range d.Order {
		if node.Decl.Stage == stage {
			nodes = append(nodes, node)
		}
	}
	return nodes
}
