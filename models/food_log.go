package models

import (
	"time"

	"gorm.io/gorm"
)

// FoodLog is one consumed food entry. Calories and macros are totals
// for the logged quantity, not per-100g rates.
type FoodLog struct {
	gorm.Model
	UserID        uint   `gorm:"index:idx_food_logs_user_time;not null"`
	FoodName      string `gorm:"not null"`
	QuantityGrams float64
	Calories      float64
	Protein       float64
	Carbs         float64
	Fat           float64
	Source        string
	Barcode       string
	LoggedAt      time.Time `gorm:"index:idx_food_logs_user_time"`
}
