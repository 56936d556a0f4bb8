package model

import (
	"time"

	"course-access-platform/internal/domain"
)

// Course is a catalog entry. Price is in whole currency units; zero means
// "unset" and the pricing policy falls back to its default minimum.
type Course struct {
	ID          string
	Category    Category
	Name        string
	Description string
	Price       int64
	CreatedAt   time.Time
}

func (c *Course) IsZero() bool { return c == nil || c.ID == "" }

// NewCourse validates and constructs a catalog course.
func NewCourse(id string, category Category, name string, price int64) (*Course, error) {
	if id == "" || name == "" || !category.Valid() || price < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Course{
		ID:        id,
		Category:  category,
		Name:      name,
		Price:     price,
		CreatedAt: time.Now(),
	}, nil
}
