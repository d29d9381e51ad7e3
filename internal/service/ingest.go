// ingest.go — сервис потокового приёма файлов.
// Пишет полезную нагрузку на диск, считает CRC-32 на лету,
// определяет MIME-тип по первому чанку и сверяет контрольную
// сумму из trailer-а потока.
package service

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/semaphore"

	"github.com/bigkaa/govault/internal/storage/filestore"
	"github.com/bigkaa/govault/internal/storage/trailer"
)

// trailerSize — ширина trailer-а: CRC-32 в hex-тексте.
const trailerSize = crc32.Size * 2

// ingestChunkSize — размер чанка чтения входного потока.
const ingestChunkSize = 64 * 1024

// IngestResult — результат успешного приёма потока.
type IngestResult struct {
	// Checksum — CRC-32 полезной нагрузки, hex в нижнем регистре
	Checksum string
	// Size — размер полезной нагрузки без trailer-а
	Size int64
	// MimeType — тип, определённый по первому непустому чанку
	// (пустая строка для пустого потока)
	MimeType string
}

// Ingestor — сервис приёма байтовых потоков в локальное хранилище.
// Число одновременных приёмов ограничено семафором, чтобы блокирующие
// дисковые операции не исчерпали ресурсы процесса.
type Ingestor struct {
	store       *filestore.Store
	sem         *semaphore.Weighted
	maxFileSize int64
	logger      *slog.Logger
}

// NewIngestor создаёт сервис приёма файлов.
// maxFileSize == 0 отключает ограничение размера.
func NewIngestor(store *filestore.Store, maxConcurrent, maxFileSize int64, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		store:       store,
		sem:         semaphore.NewWeighted(maxConcurrent),
		maxFileSize: maxFileSize,
		logger:      logger.With(slog.String("component", "ingestor")),
	}
}

// Ingest принимает поток с trailer-контрольной суммой и сохраняет
// полезную нагрузку под именем localName. Последние 8 байт потока —
// заявленная клиентом CRC-32 в hex-тексте; они не попадают ни на диск,
// ни в вычисляемую сумму. При несовпадении сумм или некорректном
// trailer-е возвращает ErrPartialContent, частично записанный объект
// удаляется.
func (s *Ingestor) Ingest(ctx context.Context, localName string, stream io.Reader, compressed bool) (*IngestResult, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("ожидание слота загрузки: %w", err)
	}
	defer s.sem.Release(1)

	if compressed {
		gz, err := gzip.NewReader(stream)
		if err != nil {
			return nil, fmt.Errorf("%w: поток не является gzip", ErrBadRequest)
		}
		defer gz.Close() //nolint:errcheck // поток уже вычитан
		stream = gz
	}

	writer, err := s.store.NewWriter(localName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownIO, err)
	}

	result, err := s.consume(ctx, writer, stream)
	if err != nil {
		// Частично записанный объект не должен остаться на диске
		if abortErr := writer.Abort(); abortErr != nil {
			s.logger.Warn("Не удалось удалить частично записанный объект",
				slog.String("local_name", localName),
				slog.String("error", abortErr.Error()),
			)
		}
		return nil, err
	}

	if err := writer.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownIO, err)
	}

	s.logger.Debug("Поток принят",
		slog.String("local_name", localName),
		slog.Int64("size", result.Size),
		slog.String("checksum", result.Checksum),
		slog.String("mime", result.MimeType),
	)
	return result, nil
}

// consume вычитывает поток: последние trailerSize байт удерживаются
// в кольцевом буфере, вытесненные байты пишутся на диск и в хэш
// строго в порядке исходного потока.
func (s *Ingestor) consume(ctx context.Context, writer *filestore.ObjectWriter, stream io.Reader) (*IngestResult, error) {
	var (
		buf      = trailer.NewBuffer(trailerSize)
		hash     = crc32.NewIEEE()
		chunk    = make([]byte, ingestChunkSize)
		size     int64
		mimeType string
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("приём прерван: %w", err)
		}

		n, readErr := stream.Read(chunk)
		if n > 0 {
			data := chunk[:n]
			if mimeType == "" {
				mimeType = mimetype.Detect(data).String()
			}

			payload := buf.Push(data)
			if len(payload) > 0 {
				if _, err := writer.Write(payload); err != nil {
					return nil, fmt.Errorf("%w: %w", ErrUnknownIO, err)
				}
				hash.Write(payload) //nolint:errcheck // hash.Write не возвращает ошибок
				size += int64(len(payload))
			}

			if s.maxFileSize > 0 && size > s.maxFileSize {
				return nil, fmt.Errorf("%w: размер файла превышает лимит %d байт",
					ErrBadRequest, s.maxFileSize)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("%w: ошибка чтения потока: %w", ErrUnknownIO, readErr)
		}
	}

	// В буфере должен остаться ровно trailer
	if buf.Len() < trailerSize {
		return nil, fmt.Errorf("%w: поток короче trailer-а", ErrPartialContent)
	}

	claimed := buf.Get()
	if !utf8.Valid(claimed) {
		return nil, fmt.Errorf("%w: trailer не является текстом", ErrPartialContent)
	}

	computed := fmt.Sprintf("%08x", hash.Sum32())
	if strings.ToLower(string(claimed)) != computed {
		return nil, fmt.Errorf("%w: заявлено %q, вычислено %q",
			ErrPartialContent, string(claimed), computed)
	}

	return &IngestResult{
		Checksum: computed,
		Size:     size,
		MimeType: mimeType,
	}, nil
}
