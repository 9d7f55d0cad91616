package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/Txauuuul/nutrition-bot/config"
	"github.com/Txauuuul/nutrition-bot/controllers"
	"github.com/Txauuuul/nutrition-bot/routes"
	"github.com/Txauuuul/nutrition-bot/services"
	"github.com/Txauuuul/nutrition-bot/utils"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()
	ctx := context.Background()

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	interpreter, err := services.NewGeminiInterpreter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if err != nil {
		logger.Fatal("gemini init failed", zap.Error(err))
	}

	barcodeProviders := []services.BarcodeProvider{
		services.NewOpenFoodFactsService(),
		services.NewEANSearchService(),
		services.NewBarcodeLookupService(),
		services.NewUPCDatabaseService(),
		services.NewBarcodeDatabaseService(),
	}
	nameProviders := []services.NameProvider{
		services.NewOpenFoodFactsService(),
		services.NewUSDAService(cfg.USDAAPIKey),
	}
	lookup := services.NewProductLookupService(barcodeProviders, nameProviders, interpreter, logger)

	detector := services.NewBarcodeDetectorService(logger)

	// Image labeling and photo archiving are optional; without AWS
	// credentials the service runs with both disabled.
	var recognizer services.PlateRecognizer
	if rek, err := services.NewRekognitionService(ctx, cfg.AWSRegion); err != nil {
		logger.Warn("rekognition unavailable", zap.Error(err))
	} else {
		recognizer = rek
	}
	var archive *utils.PhotoArchive
	if cfg.S3Bucket != "" {
		archive, err = utils.NewPhotoArchive(ctx, cfg.AWSRegion, cfg.S3Bucket, logger)
		if err != nil {
			logger.Warn("photo archive unavailable", zap.Error(err))
		}
	}

	resolution := services.NewResolutionService(detector, lookup, interpreter, recognizer, logger)
	clock := utils.NewDayClock(cfg.DayStartHour)
	intake := services.NewIntakeService(db, clock, logger)
	meals := services.NewMealService(db, intake, logger)
	hub := services.NewRealtimeHub()

	r := routes.SetupRouter(intake, routes.Controllers{
		Intake:   controllers.NewIntakeController(resolution, intake, hub, archive, logger),
		Summary:  controllers.NewSummaryController(intake),
		Meals:    controllers.NewMealController(meals, intake, hub),
		Realtime: controllers.NewRealtimeController(hub),
	})

	logger.Info("listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
