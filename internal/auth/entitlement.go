package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
)

// Entitlement decides which question categories a learner may study.
// Signal questions are open to everyone, guests included; operational
// questions require an account.
type Entitlement struct {
	openCategories map[domain.Category]bool
}

// NewEntitlement creates the entitlement gate. openCategories lists the
// categories guests may study; blank entries are ignored, and a list
// without a single usable entry falls back to SIGNAL only.
func NewEntitlement(openCategories []string) *Entitlement {
	open := make(map[domain.Category]bool, len(openCategories))
	for _, c := range openCategories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		open[domain.Category(c)] = true
	}
	if len(open) == 0 {
		open[domain.CategorySignal] = true
	}
	return &Entitlement{openCategories: open}
}

// CanAccess reports whether the learner may study the given category.
// The zero learner ID means guest.
func (e *Entitlement) CanAccess(_ context.Context, learnerID uuid.UUID, category domain.Category) (bool, error) {
	if learnerID != uuid.Nil {
		return true, nil
	}
	return e.openCategories[category], nil
}
