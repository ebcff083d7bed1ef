package domain

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Object: именованный объект симуляции (wingman, lead, deputy, chief, регионы).
//
// Объектами владеет окружение: оно же продвигает их во времени.
// Процессоры получают объекты только для чтения.
type Object interface {
	// Position: текущее положение.
	Position() r3.Vec

	// Velocity: текущая скорость.
	Velocity() r3.Vec

	// Orientation: ориентация объекта относительно мировой системы координат.
	Orientation() r3.Rotation

	// Attr возвращает скалярный атрибут (roll, gamma, heading, ...),
	// если объект его поддерживает.
	Attr(name string) (float64, bool)
}

// Region: объект-область с предикатом принадлежности.
type Region interface {
	Object

	// Contains проверяет, лежит ли положение o внутри области.
	Contains(o Object) bool
}

// Identity: нулевой поворот.
var Identity = r3.Rotation{Real: 1}

// Objects: набор объектов эпизода по имени.
type Objects map[string]Object

// Get возвращает объект или ErrUnknownObject.
func (o Objects) Get(name string) (Object, error) {
	obj, ok := o[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, name)
	}
	return obj, nil
}

// Region возвращает объект-область или ErrNotRegion.
func (o Objects) Region(name string) (Region, error) {
	obj, err := o.Get(name)
	if err != nil {
		return nil, err
	}
	region, ok := obj.(Region)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegion, name)
	}
	return region, nil
}

// Names возвращает отсортированные имена объектов.
func (o Objects) Names() []string {
	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ObjectInfo: снимок объекта для info/телеметрии.
type ObjectInfo struct {
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
}

// Snapshot снимает положения и скорости всех объектов.
func (o Objects) Snapshot() map[string]ObjectInfo {
	out := make(map[string]ObjectInfo, len(o))
	for name, obj := range o {
		p, v := obj.Position(), obj.Velocity()
		out[name] = ObjectInfo{
			Position: [3]float64{p.X, p.Y, p.Z},
			Velocity: [3]float64{v.X, v.Y, v.Z},
		}
	}
	return out
}
