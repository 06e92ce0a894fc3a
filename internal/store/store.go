package store

import (
	"context"
	"errors"

	"laundryops/internal/domain"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidOrder        = errors.New("invalid order")
	ErrOrderNotProcessable = errors.New("order is not awaiting processing")
)

type Repository interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	// SaveProcessedOrder persists pricing results and the new status, but only
	// while the stored order is still in expectedStatus.
	SaveProcessedOrder(ctx context.Context, order domain.Order, expectedStatus domain.PipelineStage) (*domain.Order, error)
	GetOutlet(ctx context.Context, id string) (*domain.Outlet, error)
	ListCatalogItems(ctx context.Context) ([]domain.CatalogItem, error)
	ListWorkProcesses(ctx context.Context, orderID string) ([]domain.WorkProcessRecord, error)
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
