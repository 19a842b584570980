package domain

// Optional трёхзначное значение для частичных обновлений:
// поле не передано (оставить как есть), передан null (очистить), передано значение.
type Optional[T any] struct {
	set   bool
	null  bool
	value T
}

// Absent поле не передано
func Absent[T any]() Optional[T] {
	return Optional[T]{}
}

// Null поле явно очищено
func Null[T any]() Optional[T] {
	return Optional[T]{set: true, null: true}
}

// Some поле установлено в значение
func Some[T any](v T) Optional[T] {
	return Optional[T]{set: true, value: v}
}

func (o Optional[T]) IsSet() bool {
	return o.set
}

func (o Optional[T]) IsNull() bool {
	return o.set && o.null
}

// Get возвращает значение и признак его наличия
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set && !o.null
}

// Ptr значение для nullable колонки: nil если не задано или null
func (o Optional[T]) Ptr() *T {
	if !o.set || o.null {
		return nil
	}
	v := o.value
	return &v
}

// Apply применяет изменение к текущему значению nullable поля
func (o Optional[T]) Apply(current *T) *T {
	if !o.set {
		return current
	}
	return o.Ptr()
}
