package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Txauuuul/nutrition-bot/services"
)

type MealController struct {
	meals  *services.MealService
	intake *services.IntakeService
	hub    *services.RealtimeHub
}

func NewMealController(meals *services.MealService, intake *services.IntakeService, hub *services.RealtimeHub) *MealController {
	return &MealController{meals: meals, intake: intake, hub: hub}
}

// PostSave snapshots today's totals under a name.
func (mc *MealController) PostSave(c *gin.Context) {
	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := currentUser(c)

	meal, err := mc.meals.SaveFromDay(user, body.Name, time.Now())
	if err != nil {
		if errors.Is(err, services.ErrMealNameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, meal)
}

// PostEat re-logs a saved meal into the current day.
func (mc *MealController) PostEat(c *gin.Context) {
	user := currentUser(c)

	log, err := mc.meals.Eat(user, c.Param("name"), time.Now())
	if err != nil {
		if errors.Is(err, services.ErrMealNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if mc.hub != nil {
		if summary, err := mc.intake.Summary(user, time.Now()); err == nil {
			mc.hub.BroadcastIntake(user.ID, gin.H{"new_entries": []any{log}, "summary": summary})
		}
	}
	c.JSON(http.StatusCreated, gin.H{"entry": log})
}

// GetList returns the user's saved meals.
func (mc *MealController) GetList(c *gin.Context) {
	meals, err := mc.meals.List(currentUser(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

// Delete removes a saved meal by name.
func (mc *MealController) Delete(c *gin.Context) {
	err := mc.meals.Delete(currentUser(c).ID, c.Param("name"))
	if err != nil {
		if errors.Is(err, services.ErrMealNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
