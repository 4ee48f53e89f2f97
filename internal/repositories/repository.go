package repositories

import "context"

// Repository aggregates every repository the quiz service uses
type Repository interface {
	// Question bank
	Test() TestRepository
	Question() QuestionRepository

	// Outcomes
	Result() ResultRepository
	BotResult() BotResultRepository

	// Recruiting
	Invitation() InvitationRepository

	// Local user settings
	Profile() ProfileRepository

	// Directory (read-only, backed by casdoor)
	User() UserRepository

	// Aggregates for staff
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
