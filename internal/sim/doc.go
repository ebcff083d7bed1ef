// Package sim: модели движения объектов, которые продвигает окружение.
//
// Включает:
//   - point.go: точка с постоянной скоростью
//   - cwh.go: космический аппарат в уравнениях Clohessy–Wiltshire–Hill (2d/3d)
//   - dubins.go: самолёт Dubins (2d/3d)
//   - env.go: сборка сценариев rejoin и docking из EnvSpec
//   - policy.go: простые политики управления агентом (zero, random)
//
// Пайплайн задачи не зависит от этого пакета: он читает только
// domain.Objects. Модели здесь минимальны и детерминированы.
package sim
