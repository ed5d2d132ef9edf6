package postgres

import (
	"context"

	"kinwatch/internal/domain/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

type gormTransactionManager struct {
	db *gorm.DB
}

// gormRepositoryFactory hands out repositories bound to one transaction.
type gormRepositoryFactory struct {
	tx *gorm.DB
}

func (f *gormRepositoryFactory) NewFamilyRepository() repository.FamilyRepository {
	return NewFamilyRepository(f.tx)
}

func (f *gormRepositoryFactory) NewPreferenceRepository() repository.PreferenceRepository {
	return NewPreferenceRepository(f.tx)
}

func (f *gormRepositoryFactory) NewAdminAuditRepository() repository.AdminAuditRepository {
	return NewAdminAuditRepository(f.tx)
}

func (f *gormRepositoryFactory) NewStealthQueueRepository() repository.StealthQueueRepository {
	return NewStealthQueueRepository(f.tx)
}

// NewTransactionManager is the constructor for gormTransactionManager.
func NewTransactionManager(db *gorm.DB) repository.TransactionManager {
	return &gormTransactionManager{db: db}
}

// Execute runs fn inside one transaction on the primary. gorm rolls back when
// fn returns an error or panics.
func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	err := tm.db.WithContext(ctx).Clauses(dbresolver.Write).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositoryFactory{tx: tx})
	})
	if err != nil {
		return errors.Wrap(err, "transaction failed")
	}

	return nil
}
