package lifecycle

import (
	"github.com/aknarbekov/task-planner-api/internal/model"
)

// CanComplete решает, можно ли перевести задачу в Completed.
// Проверяются только прямые зависимости по их текущему статусу,
// без транзитивного обхода — поэтому циклы в графе безопасны.
// Если снапшотов меньше, чем объявленных зависимостей (запись удалена),
// зависимость считается невыполненной.
func CanComplete(t model.Task, deps []model.Task) bool {
	if len(t.Dependencies) == 0 {
		return true
	}
	if len(deps) < len(t.Dependencies) {
		return false
	}
	for _, dep := range deps {
		if dep.Status != model.StatusCompleted {
			return false
		}
	}
	return true
}
