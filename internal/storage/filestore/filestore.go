// Пакет filestore — операции с физическими объектами файлового
// хранилища на диске. Объекты именуются по local_name — случайному
// идентификатору уровня хранилища, который никогда не показывается
// клиенту.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store — управление физическими объектами в выходной директории.
type Store struct {
	// dataDir — корневая директория хранения (VAULT_DATA_DIR)
	dataDir string
}

// New создаёт Store. Директория создаётся, если не существует.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dataDir, err)
	}
	return &Store{dataDir: dataDir}, nil
}

// ObjectWriter — потоковая запись объекта.
// Паттерн: temp файл → запись → fsync → atomic rename при Commit.
// При ошибке вызывается Abort, temp файл удаляется.
type ObjectWriter struct {
	f         *os.File
	tmpPath   string
	finalPath string
}

// NewWriter открывает запись объекта localName.
// Существующий объект с тем же именем будет замещён при Commit.
func (s *Store) NewWriter(localName string) (*ObjectWriter, error) {
	finalPath := filepath.Join(s.dataDir, localName)
	tmpPath := finalPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	return &ObjectWriter{
		f:         f,
		tmpPath:   tmpPath,
		finalPath: finalPath,
	}, nil
}

// Write записывает очередную порцию данных.
func (w *ObjectWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// Commit выполняет fsync, закрывает temp файл и атомарно
// переименовывает его в финальный объект.
func (w *ObjectWriter) Commit() error {
	if err := w.f.Sync(); err != nil {
		w.Abort()
		return fmt.Errorf("ошибка fsync: %w", err)
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(w.tmpPath, w.finalPath); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}
	return nil
}

// Abort прерывает запись и удаляет temp файл.
// Возвращает nil, если файл уже закрыт или удалён.
func (w *ObjectWriter) Abort() error {
	_ = w.f.Close()
	err := os.Remove(w.tmpPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления временного файла: %w", err)
	}
	return nil
}

// Open открывает объект для чтения. Вызывающий код обязан закрыть файл.
func (s *Store) Open(localName string) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.dataDir, localName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("объект не найден: %s", localName)
		}
		return nil, fmt.Errorf("ошибка открытия объекта %s: %w", localName, err)
	}
	return f, nil
}

// Delete удаляет объект с диска.
// Возвращает nil, если объект уже не существует.
func (s *Store) Delete(localName string) error {
	err := os.Remove(filepath.Join(s.dataDir, localName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления объекта %s: %w", localName, err)
	}
	return nil
}

// Exists проверяет наличие объекта на диске.
func (s *Store) Exists(localName string) bool {
	_, err := os.Stat(filepath.Join(s.dataDir, localName))
	return err == nil
}

// Size возвращает размер объекта на диске.
func (s *Store) Size(localName string) (int64, error) {
	info, err := os.Stat(filepath.Join(s.dataDir, localName))
	if err != nil {
		return 0, fmt.Errorf("ошибка получения информации об объекте %s: %w", localName, err)
	}
	return info.Size(), nil
}

// DataDir возвращает путь к директории данных.
func (s *Store) DataDir() string {
	return s.dataDir
}

// CheckReady проверяет, что директория данных существует и доступна
// для записи. Используется readiness probe.
func (s *Store) CheckReady() (status, message string) {
	info, err := os.Stat(s.dataDir)
	if err != nil {
		return "fail", fmt.Sprintf("директория данных недоступна: %v", err)
	}
	if !info.IsDir() {
		return "fail", fmt.Sprintf("%s не является директорией", s.dataDir)
	}

	probe, err := os.CreateTemp(s.dataDir, ".readyz-*")
	if err != nil {
		return "fail", fmt.Sprintf("директория данных не доступна для записи: %v", err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	return "ok", "директория данных доступна"
}
