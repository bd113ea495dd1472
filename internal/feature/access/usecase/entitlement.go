package usecase

import (
	"context"
	"fmt"

	"bookstore_backend/internal/shared/identity"
)

// EntitlementPolicy decides whether an identity may read a book.
type EntitlementPolicy interface {
	Check(ctx context.Context, entitlements EntitlementRepository, id identity.Identity, bookID uint) error
}

// PolicyFor is the only place where a role changes the entitlement rule.
func PolicyFor(role identity.Role) EntitlementPolicy {
	if role == identity.RoleSuperAdmin {
		return bypassPolicy{}
	}
	return ownershipPolicy{}
}

// bypassPolicy allows every book.
type bypassPolicy struct{}

func (bypassPolicy) Check(context.Context, EntitlementRepository, identity.Identity, uint) error {
	return nil
}

// ownershipPolicy requires an order item for (user, book).
type ownershipPolicy struct{}

func (ownershipPolicy) Check(ctx context.Context, entitlements EntitlementRepository, id identity.Identity, bookID uint) error {
	ok, err := entitlements.HasPurchased(ctx, id.UserID, bookID)
	if err != nil {
		return fmt.Errorf("check purchase: %w", err)
	}
	if !ok {
		return ErrNotEntitled
	}
	return nil
}
