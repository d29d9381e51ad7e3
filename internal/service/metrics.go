// metrics.go — Prometheus метрики доменных операций хранилища.
package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// uploadsTotal — количество загрузок по результату (ok, rejected, error).
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_uploads_total",
			Help: "Количество загрузок файлов по результату",
		},
		[]string{"result"},
	)

	// uploadBytesTotal — суммарный объём принятой полезной нагрузки.
	uploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vault_upload_bytes_total",
			Help: "Суммарный объём принятых файлов в байтах (без trailer)",
		},
	)

	// searchesTotal — количество поисковых запросов по каталогу.
	searchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vault_searches_total",
			Help: "Количество поисковых запросов по каталогу",
		},
	)
)

// uploadOutcome сводит ошибку загрузки к значению метки result.
func uploadOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrPartialContent),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrMultipleFilesMatch),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrIllegalOperation):
		return "rejected"
	default:
		return "error"
	}
}
