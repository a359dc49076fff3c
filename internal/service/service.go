package service

import (
	"context"

	"github.com/google/uuid"

	"maktaba-backend/internal/domain"
)

// CirculationService is the loan lifecycle engine: issue, return, renew,
// fine collection and the read paths over circulation records. Every
// operation takes the authenticated actor and enforces its own permission
// and ownership rules.
type CirculationService interface {
	Issue(ctx context.Context, actor *domain.Actor, p domain.IssueParams) (*domain.LoanView, error)
	Return(ctx context.Context, actor *domain.Actor, recordID uuid.UUID, p domain.ReturnParams) (*domain.LoanView, error)
	Renew(ctx context.Context, actor *domain.Actor, recordID uuid.UUID) (*domain.RenewalResult, error)
	CollectFines(ctx context.Context, actor *domain.Actor, userID uuid.UUID) (*domain.FineCollection, error)
	Get(ctx context.Context, actor *domain.Actor, recordID uuid.UUID) (*domain.LoanView, error)
	List(ctx context.Context, actor *domain.Actor, f domain.LoanFilter) (*domain.LoanPage, error)
	Update(ctx context.Context, actor *domain.Actor, recordID uuid.UUID, p domain.LoanUpdateParams) (*domain.LoanView, error)
	Delete(ctx context.Context, actor *domain.Actor, recordID uuid.UUID) error
}

// ReportsService aggregates circulation records into dashboard numbers.
type ReportsService interface {
	Stats(ctx context.Context, actor *domain.Actor) (*domain.CirculationStats, error)
	Trends(ctx context.Context, actor *domain.Actor, days int) ([]domain.TrendPoint, error)
	Summary(ctx context.Context, actor *domain.Actor) (*domain.ReportSummary, error)
}

// AuthService authenticates credentials and resolves tokens back to actors.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ActorFromUserID(ctx context.Context, userID uuid.UUID) (*domain.Actor, error)
}

type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        domain.User  `json:"user"`
	Role        domain.Role  `json:"role"`
}

// EmailService sends circulation notifications. Implementations must be
// safe to call concurrently; failures are logged by callers, never fatal.
type EmailService interface {
	SendIssueReceipt(ctx context.Context, loan *domain.LoanDetail) error
	SendOverdueReminder(ctx context.Context, loan *domain.LoanDetail, fineSoFar float64) error
}
