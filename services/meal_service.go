package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Txauuuul/nutrition-bot/models"
)

// ErrMealNameTaken is returned when a user saves a second meal under
// an existing name.
var ErrMealNameTaken = errors.New("a saved meal with that name already exists")

// ErrMealNotFound is returned for lookups of names the user never saved.
var ErrMealNotFound = errors.New("saved meal not found")

// MealService manages reusable named meals: a snapshot of a day's
// totals that can be re-logged in one step.
type MealService struct {
	db     *gorm.DB
	intake *IntakeService
	logger *zap.Logger
}

func NewMealService(db *gorm.DB, intake *IntakeService, logger *zap.Logger) *MealService {
	return &MealService{db: db, intake: intake, logger: logger}
}

// SaveFromDay stores the totals of the logical day containing `at`
// under the given name. Names are unique per user.
func (s *MealService) SaveFromDay(user *models.User, name string, at time.Time) (*models.SavedMeal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("meal name cannot be empty")
	}

	summary, err := s.intake.Summary(user, at)
	if err != nil {
		return nil, err
	}
	if len(summary.Entries) == 0 {
		return nil, fmt.Errorf("nothing logged today to save as %q", name)
	}

	meal := models.SavedMeal{
		UserID:        user.ID,
		MealName:      name,
		TotalCalories: summary.Totals.Calories,
		TotalProtein:  summary.Totals.Protein,
		TotalCarbs:    summary.Totals.Carbs,
		TotalFat:      summary.Totals.Fat,
	}
	if err := s.db.Create(&meal).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrMealNameTaken
		}
		return nil, fmt.Errorf("failed to save meal: %w", err)
	}
	s.logger.Info("meal saved",
		zap.Uint("user_id", user.ID),
		zap.String("meal", name),
		zap.Float64("calories", meal.TotalCalories))
	return &meal, nil
}

// Eat re-logs a saved meal's totals as a single entry of the current
// day.
func (s *MealService) Eat(user *models.User, name string, at time.Time) (*models.FoodLog, error) {
	var meal models.SavedMeal
	err := s.db.Where("user_id = ? AND meal_name = ?", user.ID, strings.TrimSpace(name)).First(&meal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load saved meal: %w", err)
	}

	log := models.FoodLog{
		UserID:        user.ID,
		FoodName:      "Plato: " + meal.MealName,
		QuantityGrams: 100,
		Calories:      meal.TotalCalories,
		Protein:       meal.TotalProtein,
		Carbs:         meal.TotalCarbs,
		Fat:           meal.TotalFat,
		Source:        "saved_meal",
		LoggedAt:      at,
	}
	if err := s.db.Create(&log).Error; err != nil {
		return nil, fmt.Errorf("failed to log saved meal: %w", err)
	}
	return &log, nil
}

// List returns the user's saved meals, newest first.
func (s *MealService) List(userID uint) ([]models.SavedMeal, error) {
	var meals []models.SavedMeal
	if err := s.db.Where("user_id = ?", userID).Order("created_at desc").Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("failed to list saved meals: %w", err)
	}
	return meals, nil
}

// Delete removes a saved meal by name.
func (s *MealService) Delete(userID uint, name string) error {
	res := s.db.Where("user_id = ? AND meal_name = ?", userID, strings.TrimSpace(name)).Delete(&models.SavedMeal{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete saved meal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMealNotFound
	}
	return nil
}
