package model

// DefaultNamespace — имя пространства имён, которое создаётся
// атомарно вместе с учётной записью пользователя. Его нельзя
// переименовать или удалить.
const DefaultNamespace = "default"

// Namespace — именованный контейнер файлов одного пользователя.
// Имя уникально в пределах владельца.
type Namespace struct {
	// ID — суррогатный идентификатор
	ID int64
	// Name — имя пространства, уникальное per-user
	Name string
	// UserID — владелец
	UserID int64
}

// IsDefault сообщает, является ли пространство дефолтным.
func (n *Namespace) IsDefault() bool {
	return n.Name == DefaultNamespace
}

// IsDefaultName сообщает, ссылается ли имя на дефолтное пространство.
// Пустое имя трактуется как запрос дефолтного пространства.
func IsDefaultName(name string) bool {
	return name == "" || name == DefaultNamespace
}
