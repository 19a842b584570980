package persistence

import (
	"context"
)

// Querier запросы, которые используют репозитории
type Querier interface {
	// Get сканирует одну строку в dest; sql.ErrNoRows если строк нет
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Exec(ctx context.Context, query string, args ...interface{}) error
	// ExecWithResult возвращает количество затронутых строк
	ExecWithResult(ctx context.Context, query string, args ...interface{}) (int64, error)
}

// Persistence подключение к БД
type Persistence interface {
	Querier
	Ping(ctx context.Context) error
}
