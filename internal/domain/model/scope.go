package model

import (
	"strings"

	"course-access-platform/internal/domain"
)

type ScopeKind string

const (
	ScopeSingle ScopeKind = "single"
	ScopeBundle ScopeKind = "bundle"
)

// PurchaseScope is either one course of a category or a whole category.
type PurchaseScope struct {
	Kind     ScopeKind
	CourseID string // set only for ScopeSingle
	Category Category
}

func SingleScope(courseID string, category Category) PurchaseScope {
	return PurchaseScope{Kind: ScopeSingle, CourseID: strings.TrimSpace(courseID), Category: category}
}

func BundleScope(category Category) PurchaseScope {
	return PurchaseScope{Kind: ScopeBundle, Category: category}
}

func (s PurchaseScope) Validate() error {
	if !s.Category.Valid() {
		return domain.ErrInvalidCategory
	}
	switch s.Kind {
	case ScopeSingle:
		if s.CourseID == "" {
			return domain.NewValidationError("course_id", "required")
		}
	case ScopeBundle:
		if s.CourseID != "" {
			return domain.NewValidationError("course_id", "must be empty for bundle purchases")
		}
	default:
		return domain.NewValidationError("scope", "unknown scope")
	}
	return nil
}
