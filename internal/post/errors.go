package post

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("post not found")
	ErrStorage      = errors.New("storage error")
	ErrLockPoisoned = errors.New("lock poisoned")
)

type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s cannot be empty", e.Field)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError - поста нет, либо (для удаления) он уже удален
type NotFoundError struct {
	ID uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown post ID: %d", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StorageError оборачивает ошибку хранилища
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// LockError - мьютекс соединения "отравлен" паникой предыдущего владельца
type LockError struct {
	Cause string
}

func (e *LockError) Error() string {
	return fmt.Sprintf("lock poisoned: %s", e.Cause)
}

func (e *LockError) Is(target error) bool {
	return target == ErrLockPoisoned
}

// IsClientError сообщает, вызвана ли ошибка некорректным запросом клиента
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
}
