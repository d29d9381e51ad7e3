package model

// User — учётная запись. Владеет пространствами имён, файлами
// и атрибутами.
type User struct {
	// ID — суррогатный идентификатор
	ID int64
	// Username — уникальное имя пользователя
	Username string
	// Password — солёный хэш пароля (sha-512 от username+password)
	Password string
	// Disabled — заблокированная учётная запись не проходит аутентификацию
	Disabled bool
}

// Session — активная сессия пользователя, идентифицируется токеном.
type Session struct {
	// ID — суррогатный идентификатор
	ID int64
	// UserID — владелец сессии
	UserID int64
	// Token — bearer-токен
	Token string
	// Requests — счётчик запросов, выполненных с этим токеном
	Requests int64
	// MachineID — идентификатор клиентской машины (nil, если не передан)
	MachineID *string
}

// UserStats — агрегированная статистика по данным пользователя.
type UserStats struct {
	// FileCount — количество файлов
	FileCount int64
	// TotalFileSize — суммарный размер файлов в байтах
	TotalFileSize int64
	// NamespaceCount — количество пространств имён
	NamespaceCount int64
	// TagCount — количество тегов
	TagCount int64
	// GroupCount — количество групп
	GroupCount int64
}
