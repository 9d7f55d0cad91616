package services

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Txauuuul/nutrition-bot/models"
	"github.com/Txauuuul/nutrition-bot/utils"
)

// Default daily goals assigned to new users.
const (
	DefaultCalorieGoal = 2500
	DefaultProteinGoal = 150
	DefaultCarbsGoal   = 300
	DefaultFatGoal     = 80
)

// IntakeService persists food logs and aggregates them over logical
// days.
type IntakeService struct {
	db     *gorm.DB
	clock  utils.DayClock
	logger *zap.Logger
}

func NewIntakeService(db *gorm.DB, clock utils.DayClock, logger *zap.Logger) *IntakeService {
	return &IntakeService{db: db, clock: clock, logger: logger}
}

// GetOrCreateUser looks up a user by external identity, creating it
// with default goals on first contact.
func (s *IntakeService) GetOrCreateUser(externalID int64, name string) (*models.User, error) {
	var user models.User
	err := s.db.Where("external_id = ?", externalID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user = models.User{
		ExternalID:       externalID,
		Name:             name,
		DailyCalorieGoal: DefaultCalorieGoal,
		DailyProteinGoal: DefaultProteinGoal,
		DailyCarbsGoal:   DefaultCarbsGoal,
		DailyFatGoal:     DefaultFatGoal,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("new user registered", zap.Int64("external_id", externalID))
	return &user, nil
}

// UpdateGoals overwrites the user's daily targets.
func (s *IntakeService) UpdateGoals(userID uint, calories, protein, carbs, fat float64) error {
	updates := map[string]interface{}{
		"daily_calorie_goal": calories,
		"daily_protein_goal": protein,
		"daily_carbs_goal":   carbs,
		"daily_fat_goal":     fat,
	}
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update goals: %w", err)
	}
	return nil
}

// LogEntry persists one resolved food. The stored values are the
// totals for the consumed quantity, not per-100g.
func (s *IntakeService) LogEntry(userID uint, entry ResolvedFoodEntry, barcode string, at time.Time) (*models.FoodLog, error) {
	totals := entry.Nutrition.TotalsFor(entry.QuantityGrams)
	log := models.FoodLog{
		UserID:        userID,
		FoodName:      entry.FoodName,
		QuantityGrams: entry.QuantityGrams,
		Calories:      totals.Calories,
		Protein:       totals.Protein,
		Carbs:         totals.Carbs,
		Fat:           totals.Fat,
		Source:        entry.Nutrition.Source,
		Barcode:       barcode,
		LoggedAt:      at,
	}
	if err := s.db.Create(&log).Error; err != nil {
		return nil, fmt.Errorf("failed to save food log: %w", err)
	}
	s.logger.Info("food logged",
		zap.Uint("user_id", userID),
		zap.String("food", entry.FoodName),
		zap.Float64("grams", entry.QuantityGrams),
		zap.Float64("calories", totals.Calories))
	return &log, nil
}

// LogEntries persists a batch of resolved foods sharing a timestamp.
func (s *IntakeService) LogEntries(userID uint, entries []ResolvedFoodEntry, at time.Time) ([]models.FoodLog, error) {
	logs := make([]models.FoodLog, 0, len(entries))
	for _, e := range entries {
		log, err := s.LogEntry(userID, e, "", at)
		if err != nil {
			return logs, err
		}
		logs = append(logs, *log)
	}
	return logs, nil
}

// GoalProgress pairs a consumed total with its target.
type GoalProgress struct {
	Consumed float64 `json:"consumed"`
	Goal     float64 `json:"goal"`
	Percent  float64 `json:"percent"`
}

// DaySummary is the aggregate over one logical day.
type DaySummary struct {
	DayStart time.Time               `json:"day_start"`
	DayEnd   time.Time               `json:"day_end"`
	Totals   Totals                  `json:"totals"`
	Progress map[string]GoalProgress `json:"progress"`
	Entries  []models.FoodLog        `json:"entries"`
}

// Summary aggregates the logical day containing the given instant.
func (s *IntakeService) Summary(user *models.User, at time.Time) (*DaySummary, error) {
	start, end := s.clock.Window(at)

	var entries []models.FoodLog
	err := s.db.
		Where("user_id = ? AND logged_at >= ? AND logged_at <= ?", user.ID, start, end).
		Order("logged_at asc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load food logs: %w", err)
	}

	var totals Totals
	for _, e := range entries {
		totals.Calories += e.Calories
		totals.Protein += e.Protein
		totals.Carbs += e.Carbs
		totals.Fat += e.Fat
	}

	pct := func(consumed, goal float64) float64 {
		if goal <= 0 {
			return 0
		}
		return consumed / goal
	}

	return &DaySummary{
		DayStart: start,
		DayEnd:   end,
		Totals:   totals,
		Progress: map[string]GoalProgress{
			"calories": {Consumed: totals.Calories, Goal: user.DailyCalorieGoal, Percent: pct(totals.Calories, user.DailyCalorieGoal)},
			"protein":  {Consumed: totals.Protein, Goal: user.DailyProteinGoal, Percent: pct(totals.Protein, user.DailyProteinGoal)},
			"carbs":    {Consumed: totals.Carbs, Goal: user.DailyCarbsGoal, Percent: pct(totals.Carbs, user.DailyCarbsGoal)},
			"fat":      {Consumed: totals.Fat, Goal: user.DailyFatGoal, Percent: pct(totals.Fat, user.DailyFatGoal)},
		},
		Entries: entries,
	}, nil
}

// SummaryForDate aggregates the logical day that starts on the given
// calendar date.
func (s *IntakeService) SummaryForDate(user *models.User, date time.Time) (*DaySummary, error) {
	// Anchor inside the logical day: its own start hour.
	anchor := time.Date(date.Year(), date.Month(), date.Day(), s.clock.StartHour, 0, 0, 0, date.Location())
	return s.Summary(user, anchor)
}

// UndoLast removes the most recent entry of the current logical day
// and returns it, or nil when the day is empty.
func (s *IntakeService) UndoLast(userID uint, at time.Time) (*models.FoodLog, error) {
	start, end := s.clock.Window(at)

	var last models.FoodLog
	err := s.db.
		Where("user_id = ? AND logged_at >= ? AND logged_at <= ?", userID, start, end).
		Order("logged_at desc").
		First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find last entry: %w", err)
	}

	if err := s.db.Delete(&last).Error; err != nil {
		return nil, fmt.Errorf("failed to delete entry: %w", err)
	}
	s.logger.Info("entry undone",
		zap.Uint("user_id", userID),
		zap.String("food", last.FoodName))
	return &last, nil
}
