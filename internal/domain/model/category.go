package model

import (
	"strings"

	"course-access-platform/internal/domain"
)

// Category is the audience segment a course belongs to. The set is closed;
// every lookup goes through (Category, course id).
type Category string

const (
	CategoryAspirants            Category = "aspirants"
	CategoryWorkingProfessionals Category = "working_professionals"
	CategorySeniorCitizen        Category = "seniorcitizen"
)

// Categories lists every known category in display order.
var Categories = []Category{CategoryAspirants, CategoryWorkingProfessionals, CategorySeniorCitizen}

// ParseCategory accepts the canonical keys and a few legacy spellings.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "aspirants", "aspirant":
		return CategoryAspirants, nil
	case "working_professionals", "working-professionals", "working_professional":
		return CategoryWorkingProfessionals, nil
	case "seniorcitizen", "senior_citizen", "senior_citizens", "seniorcitizens":
		return CategorySeniorCitizen, nil
	default:
		return "", domain.ErrInvalidCategory
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryAspirants, CategoryWorkingProfessionals, CategorySeniorCitizen:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// ReceiptCode is the short code used in single-course receipts: the first
// three letters of the category key ("asp", "wor", "sen").
func (c Category) ReceiptCode() string {
	if len(c) < 3 {
		return string(c)
	}
	return string(c)[:3]
}

// BundleCode is the short code used in bundle receipts.
func (c Category) BundleCode() string {
	switch c {
	case CategoryWorkingProfessionals:
		return "wp"
	case CategorySeniorCitizen:
		return "sc"
	default:
		return "asp"
	}
}
