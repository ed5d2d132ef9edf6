package repository

import "context"

// TransactionManager defines the interface for managing database transactions.
// This allows the use case layer to handle transactions without depending on a specific DB driver like GORM.
type TransactionManager interface {
	// Execute runs a function within a database transaction.
	// If the function returns an error, the transaction is rolled back. Otherwise, it's committed.
	// All repository operations within the function will use the same database transaction.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory provides repository instances bound to a specific transaction.
type RepositoryFactory interface {
	// NewFamilyRepository returns a FamilyRepository bound to the current transaction.
	NewFamilyRepository() FamilyRepository

	// NewPreferenceRepository returns a PreferenceRepository bound to the current transaction.
	NewPreferenceRepository() PreferenceRepository

	// NewAdminAuditRepository returns an AdminAuditRepository bound to the current transaction.
	NewAdminAuditRepository() AdminAuditRepository

	// NewStealthQueueRepository returns a StealthQueueRepository bound to the current transaction.
	NewStealthQueueRepository() StealthQueueRepository
}
