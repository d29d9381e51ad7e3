// Пакет model — доменные модели файлового хранилища.
package model

import (
	"time"
)

// File — запись каталога об одном загруженном файле.
// Поле LocalName — случайное имя объекта в локальном хранилище,
// уникально, неизменяемо после назначения и никогда не отдаётся клиенту.
// Checksum, FileSize и FileType заполняются только после успешного
// завершения загрузки (ингест с проверкой trailer-контрольной суммы).
type File struct {
	// ID — суррогатный идентификатор записи
	ID int64
	// Name — пользовательское имя файла (не уникально)
	Name string
	// UserID — владелец файла
	UserID int64
	// LocalName — имя объекта в локальном хранилище
	LocalName string
	// UploadedAt — время загрузки
	UploadedAt time.Time
	// FileSize — размер полезной нагрузки в байтах (без trailer)
	FileSize int64
	// FileType — MIME-тип, определённый по первому чанку
	FileType string
	// IsPublic — доступен ли файл по публичной ссылке
	IsPublic bool
	// PublicFilename — публичное имя (nil, если файл не публиковался)
	PublicFilename *string
	// NamespaceID — пространство имён, в котором живёт файл
	NamespaceID int64
	// Encryption — зарезервированная метка шифрования (не применяется)
	Encryption int32
	// Checksum — CRC-32 полезной нагрузки, hex в нижнем регистре
	Checksum string
}

// PublicName возвращает публичное имя файла или пустую строку.
func (f *File) PublicName() string {
	if f.PublicFilename == nil {
		return ""
	}
	return *f.PublicFilename
}
