package models

import (
	"gorm.io/gorm"
)

// User is keyed by the chat platform's numeric identity, which is
// trusted as-is. Daily goals are used for the summary percentages.
type User struct {
	gorm.Model
	ExternalID       int64  `gorm:"uniqueIndex;not null"`
	Name             string `gorm:"not null"`
	DailyCalorieGoal float64
	DailyProteinGoal float64
	DailyCarbsGoal   float64
	DailyFatGoal     float64
}
