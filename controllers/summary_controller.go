package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Txauuuul/nutrition-bot/services"
)

type SummaryController struct {
	intake *services.IntakeService
}

func NewSummaryController(intake *services.IntakeService) *SummaryController {
	return &SummaryController{intake: intake}
}

// GetToday returns the summary of the current logical day.
func (sc *SummaryController) GetToday(c *gin.Context) {
	summary, err := sc.intake.Summary(currentUser(c), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetHistory returns the summary for the logical day starting on the
// given calendar date (YYYY-MM-DD).
func (sc *SummaryController) GetHistory(c *gin.Context) {
	date, err := time.ParseInLocation("2006-01-02", c.Param("date"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	summary, err := sc.intake.SummaryForDate(currentUser(c), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// PutGoals overwrites the user's daily targets.
func (sc *SummaryController) PutGoals(c *gin.Context) {
	var body struct {
		Calories float64 `json:"calories" binding:"required,gt=0"`
		Protein  float64 `json:"protein" binding:"required,gt=0"`
		Carbs    float64 `json:"carbs" binding:"required,gt=0"`
		Fat      float64 `json:"fat" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := currentUser(c)
	if err := sc.intake.UpdateGoals(user.ID, body.Calories, body.Protein, body.Carbs, body.Fat); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}
