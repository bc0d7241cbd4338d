package chat

import "fmt"

// RateLimitError транзиентный сигнал бекенда об исчерпании квоты.
// Единственный класс ошибок, который диспетчер повторяет.
type RateLimitError struct {
	Provider string
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// BadRequestError бекенд отверг запрос как некорректный.
// Не повторяется; пользователю показывается локализованное сообщение.
type BadRequestError struct {
	Provider string
	Err      error
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("%s rejected request: %v", e.Provider, e.Err)
}

func (e *BadRequestError) Unwrap() error {
	return e.Err
}
