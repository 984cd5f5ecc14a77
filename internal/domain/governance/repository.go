package governance

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the storage port for governance rules
type Repository interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*Rule, error)
	FindActive(ctx context.Context, orgID uuid.UUID) ([]Rule, error)
	FindAll(ctx context.Context, orgID uuid.UUID) ([]Rule, error)
	Create(ctx context.Context, rule *Rule) error
	Save(ctx context.Context, rule *Rule) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}
