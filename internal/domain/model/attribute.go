package model

import "fmt"

// AttributeType — закрытый двухвариантный тип атрибута.
// В БД хранится как SMALLINT: 1 = tag, 2 = group.
type AttributeType int16

const (
	// AttributeTag — тег файла
	AttributeTag AttributeType = 1
	// AttributeGroup — группа файлов
	AttributeGroup AttributeType = 2
)

// Valid проверяет, что значение входит в закрытое множество вариантов.
func (t AttributeType) Valid() bool {
	return t == AttributeTag || t == AttributeGroup
}

// String возвращает строковое имя типа для API и логов.
func (t AttributeType) String() string {
	switch t {
	case AttributeTag:
		return "tag"
	case AttributeGroup:
		return "group"
	default:
		return fmt.Sprintf("attribute(%d)", int16(t))
	}
}

// ParseAttributeType разбирает строковое имя типа атрибута.
func ParseAttributeType(s string) (AttributeType, error) {
	switch s {
	case "tag":
		return AttributeTag, nil
	case "group":
		return AttributeGroup, nil
	default:
		return 0, fmt.Errorf("неизвестный тип атрибута: %q", s)
	}
}

// Attribute — пользовательская метка (тег или группа), привязываемая
// к файлам. Уникальна по ключу (name, type, user_id, namespace_id).
// Создаётся лениво при первом использовании и удаляется автоматически,
// когда исчезает последняя ассоциация с файлом.
type Attribute struct {
	// ID — суррогатный идентификатор
	ID int64
	// Type — tag или group
	Type AttributeType
	// Name — имя атрибута
	Name string
	// UserID — владелец
	UserID int64
	// NamespaceID — пространство имён, в котором действует атрибут
	NamespaceID int64
}
