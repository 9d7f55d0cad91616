package controllers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Txauuuul/nutrition-bot/models"
	"github.com/Txauuuul/nutrition-bot/services"
	"github.com/Txauuuul/nutrition-bot/utils"
)

// maxPhotoBytes caps uploaded intake photos at 10 MB.
const maxPhotoBytes = 10 << 20

type IntakeController struct {
	resolution *services.ResolutionService
	intake     *services.IntakeService
	hub        *services.RealtimeHub
	archive    *utils.PhotoArchive
	logger     *zap.Logger
}

func NewIntakeController(
	resolution *services.ResolutionService,
	intake *services.IntakeService,
	hub *services.RealtimeHub,
	archive *utils.PhotoArchive,
	logger *zap.Logger,
) *IntakeController {
	return &IntakeController{
		resolution: resolution,
		intake:     intake,
		hub:        hub,
		archive:    archive,
		logger:     logger,
	}
}

func currentUser(c *gin.Context) *models.User {
	u, _ := c.MustGet("user").(*models.User)
	return u
}

// PostText logs a meal from a free-form description. Resolved foods
// are persisted immediately; an unresolvable description comes back as
// a clarification, not an error.
func (ic *IntakeController) PostText(c *gin.Context) {
	var body struct {
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := currentUser(c)

	res, err := ic.resolution.ResolveText(c.Request.Context(), body.Description, nil)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	// A barcode-shaped description resolves to a pending record, the
	// same shape /intake/barcode returns.
	if res.NeedsClarification || res.Pending != nil {
		c.JSON(http.StatusOK, res)
		return
	}

	logs, err := ic.intake.LogEntries(user.ID, res.Entries, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ic.broadcast(user, logs)
	c.JSON(http.StatusCreated, gin.H{"entries": logs})
}

// PostImage handles a photo: barcode, plate or nutrition label. The
// usual outcome is a pending record that still needs a quantity.
func (ic *IntakeController) PostImage(c *gin.Context) {
	user := currentUser(c)

	file, _, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'photo' required"})
		return
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes))
	if err != nil || len(imageBytes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read photo"})
		return
	}

	if ic.archive != nil {
		ic.archive.ArchiveAsync(user.ID, imageBytes)
	}

	// A caption turns this into a text+image interpretation: the
	// description drives, the photo is context.
	if caption := c.PostForm("caption"); caption != "" {
		res, err := ic.resolution.ResolveText(c.Request.Context(), caption, imageBytes)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		if res.NeedsClarification || res.Pending != nil {
			c.JSON(http.StatusOK, res)
			return
		}
		logs, err := ic.intake.LogEntries(user.ID, res.Entries, time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ic.broadcast(user, logs)
		c.JSON(http.StatusCreated, gin.H{"entries": logs})
		return
	}

	res, err := ic.resolution.ResolveImage(c.Request.Context(), imageBytes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// PostBarcode resolves a typed-in barcode. With a quantity in the
// request the entry is logged in the same call; without one the
// per-100g record is returned pending.
func (ic *IntakeController) PostBarcode(c *gin.Context) {
	var body struct {
		Barcode  string `json:"barcode" binding:"required"`
		Quantity string `json:"quantity,omitempty"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := currentUser(c)

	res, err := ic.resolution.ResolveBarcode(c.Request.Context(), body.Barcode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if res.NeedsClarification || body.Quantity == "" {
		c.JSON(http.StatusOK, res)
		return
	}

	grams, err := utils.ParseQuantityGrams(body.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := ic.resolution.CompleteWithQuantity(c.Request.Context(), *res.Pending, grams)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log, err := ic.intake.LogEntry(user.ID, entry, body.Barcode, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ic.broadcast(user, []models.FoodLog{*log})
	c.JSON(http.StatusCreated, gin.H{"entry": log})
}

// PostQuantity completes a pending resolution: the client echoes the
// pending record back together with the consumed quantity.
func (ic *IntakeController) PostQuantity(c *gin.Context) {
	var body struct {
		Nutrition services.NutritionRecord `json:"nutrition" binding:"required"`
		Quantity  string                   `json:"quantity" binding:"required"`
		Barcode   string                   `json:"barcode,omitempty"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := currentUser(c)

	grams, err := utils.ParseQuantityGrams(body.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := ic.resolution.CompleteWithQuantity(c.Request.Context(), body.Nutrition, grams)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log, err := ic.intake.LogEntry(user.ID, entry, body.Barcode, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ic.broadcast(user, []models.FoodLog{*log})
	c.JSON(http.StatusCreated, gin.H{"entry": log})
}

// DeleteLast removes the newest entry of the current logical day.
func (ic *IntakeController) DeleteLast(c *gin.Context) {
	user := currentUser(c)

	removed, err := ic.intake.UndoLast(user.ID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if removed == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "nothing logged today"})
		return
	}
	ic.broadcast(user, nil)
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// broadcast pushes the updated day summary (plus any new entries) to
// the user's live connections.
func (ic *IntakeController) broadcast(user *models.User, logs []models.FoodLog) {
	if ic.hub == nil {
		return
	}
	summary, err := ic.intake.Summary(user, time.Now())
	if err != nil {
		ic.logger.Warn("failed to build summary for broadcast", zap.Error(err))
		return
	}
	ic.hub.BroadcastIntake(user.ID, gin.H{
		"new_entries": logs,
		"summary":     summary,
	})
}
