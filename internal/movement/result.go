package movement

import (
	"github.com/annel0/rts-pathing/internal/pathfind"
	"github.com/annel0/rts-pathing/internal/vec"
)

// Result - сохранённое начало маршрута объекта.
// Шаги лежат во встроенном массиве, поэтому обновление не выделяет память.
type Result struct {
	steps  [pathfind.MaxPathSteps]vec.Direction
	head   uint8
	length uint8

	// Сколько циклов объект ждёт на текущем маршруте
	Cycles int
	// Маршрут - одиночный шаг без полного поиска
	Fast bool
	// Итог последнего решения планировщика
	Outcome pathfind.Outcome
}

// Set заменяет маршрут. Лишние шаги отбрасываются.
func (r *Result) Set(steps []vec.Direction) {
	n := copy(r.steps[:], steps)
	for i := n; i < len(r.steps); i++ {
		r.steps[i] = vec.DirNone
	}
	r.head = 0
	r.length = uint8(n)
	r.Cycles = 0
	r.Fast = false
}

// SetSingle заменяет маршрут одним шагом
func (r *Result) SetSingle(d vec.Direction) {
	r.steps[0] = d
	for i := 1; i < len(r.steps); i++ {
		r.steps[i] = vec.DirNone
	}
	r.head = 0
	r.length = 1
	r.Cycles = 0
	r.Fast = true
}

// Clear очищает маршрут
func (r *Result) Clear() {
	r.Set(nil)
}

// Len возвращает число оставшихся шагов
func (r *Result) Len() int {
	return int(r.length) - int(r.head)
}

func (r *Result) Empty() bool {
	return r.head >= r.length
}

// Peek возвращает следующий шаг, не снимая его
func (r *Result) Peek() vec.Direction {
	if r.Empty() {
		return vec.DirNone
	}
	return r.steps[r.head]
}

// Pop снимает следующий шаг
func (r *Result) Pop() vec.Direction {
	if r.Empty() {
		return vec.DirNone
	}
	d := r.steps[r.head]
	r.head++
	return d
}

// Steps возвращает оставшиеся шаги. Срез указывает во внутренний буфер.
func (r *Result) Steps() []vec.Direction {
	return r.steps[r.head:r.length]
}
