package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bigkaa/govault/internal/domain/model"
)

// Registrar — атомарное заведение учётной записи: пользователь и его
// дефолтное пространство имён создаются в одной транзакции.
type Registrar struct {
	tx *TxRunner
}

// NewRegistrar создаёт Registrar.
func NewRegistrar(pool *pgxpool.Pool) *Registrar {
	return &Registrar{tx: NewTxRunner(pool)}
}

// CreateUserWithNamespace создаёт пользователя и пространство в одной
// транзакции. Пространству проставляется id созданного пользователя.
func (r *Registrar) CreateUserWithNamespace(ctx context.Context, user *model.User, ns *model.Namespace) error {
	return r.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := NewUserRepository(tx).Create(ctx, user); err != nil {
			return err
		}
		ns.UserID = user.ID
		return NewNamespaceRepository(tx).Create(ctx, ns)
	})
}
