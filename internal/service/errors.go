// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrBadRequest — некорректные входные данные запроса.
	ErrBadRequest = errors.New("некорректный запрос")
	// ErrAlreadyExists — конфликт (дублирующийся ресурс).
	ErrAlreadyExists = errors.New("ресурс уже существует")
	// ErrMultipleFilesMatch — под имя попадает более одного файла,
	// замена по имени невозможна.
	ErrMultipleFilesMatch = errors.New("имени соответствует более одного файла")
	// ErrIllegalOperation — операция запрещена (противоречивые флаги,
	// изменение дефолтного пространства имён).
	ErrIllegalOperation = errors.New("недопустимая операция")
	// ErrPartialContent — поток загружен не полностью: вычисленная
	// контрольная сумма не совпала с trailer.
	ErrPartialContent = errors.New("контрольная сумма не совпала — файл принят не полностью")
	// ErrAlreadyPublic — файл уже опубликован.
	ErrAlreadyPublic = errors.New("файл уже опубликован")
	// ErrNotPublic — файл не опубликован.
	ErrNotPublic = errors.New("файл не опубликован")
	// ErrUnauthorized — аутентификация не пройдена.
	ErrUnauthorized = errors.New("аутентификация не пройдена")
	// ErrUserDisabled — учётная запись заблокирована.
	ErrUserDisabled = errors.New("учётная запись заблокирована")
	// ErrUnknownIO — ошибка ввода-вывода локального хранилища.
	ErrUnknownIO = errors.New("ошибка ввода-вывода хранилища")
)
