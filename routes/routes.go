package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Txauuuul/nutrition-bot/controllers"
	"github.com/Txauuuul/nutrition-bot/middlewares"
	"github.com/Txauuuul/nutrition-bot/services"
)

// Controllers groups everything SetupRouter wires in.
type Controllers struct {
	Intake   *controllers.IntakeController
	Summary  *controllers.SummaryController
	Meals    *controllers.MealController
	Realtime *controllers.RealtimeController
}

func SetupRouter(intake *services.IntakeService, ctrl Controllers) *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/")
	api.Use(middlewares.IdentityMiddleware(intake))
	{
		api.POST("/intake/text", ctrl.Intake.PostText)
		api.POST("/intake/image", ctrl.Intake.PostImage)
		api.POST("/intake/barcode", ctrl.Intake.PostBarcode)
		api.POST("/intake/quantity", ctrl.Intake.PostQuantity)
		api.DELETE("/intake/last", ctrl.Intake.DeleteLast)

		api.GET("/summary/today", ctrl.Summary.GetToday)
		api.GET("/summary/history/:date", ctrl.Summary.GetHistory)
		api.PUT("/goals", ctrl.Summary.PutGoals)

		api.POST("/meals", ctrl.Meals.PostSave)
		api.GET("/meals", ctrl.Meals.GetList)
		api.POST("/meals/:name/eat", ctrl.Meals.PostEat)
		api.DELETE("/meals/:name", ctrl.Meals.Delete)

		api.GET("/ws", ctrl.Realtime.IntakeWS)
	}

	return r
}
