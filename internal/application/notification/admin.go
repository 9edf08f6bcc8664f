package notification

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-rental-api/internal/domain"
)

// AdminResolver names the operator that receives admin notifications.
type AdminResolver interface {
	AdminID(ctx context.Context) (string, error)
}

type adminLister interface {
	ListByRole(ctx context.Context, role string) ([]domain.User, error)
}

// StaticAdmin always resolves to the configured user.
type StaticAdmin string

func (s StaticAdmin) AdminID(context.Context) (string, error) { return string(s), nil }

// RoleAdmin resolves to the earliest registered enabled admin on each call.
type RoleAdmin struct {
	users adminLister
}

func NewRoleAdmin(users adminLister) *RoleAdmin {
	return &RoleAdmin{users: users}
}

func (r *RoleAdmin) AdminID(ctx context.Context) (string, error) {
	admins, err := r.users.ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return "", err
	}
	if len(admins) == 0 {
		return "", fmt.Errorf("no admin user: %w", domain.ErrNotFound)
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].CreatedAt.Before(admins[j].CreatedAt) })
	return admins[0].UserID, nil
}

// NewAdminResolver pins adminID when set and falls back to the role lookup otherwise.
func NewAdminResolver(adminID string, users adminLister) AdminResolver {
	if adminID != "" {
		return StaticAdmin(adminID)
	}
	return NewRoleAdmin(users)
}
