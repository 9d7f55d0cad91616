package models

import (
	"gorm.io/gorm"
)

// SavedMeal is a reusable snapshot of a day's totals, unique per
// user+name so /eat can reference it unambiguously.
type SavedMeal struct {
	gorm.Model
	UserID        uint   `gorm:"uniqueIndex:idx_saved_meals_user_name;not null"`
	MealName      string `gorm:"uniqueIndex:idx_saved_meals_user_name;not null"`
	TotalCalories float64
	TotalProtein  float64
	TotalCarbs    float64
	TotalFat      float64
}
