// Package api exposes the engine over HTTP.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/safepay/fraud-engine/internal/analytics"
	"github.com/safepay/fraud-engine/internal/generator"
	"github.com/safepay/fraud-engine/internal/lifecycle"
	"github.com/safepay/fraud-engine/internal/pipeline"
	"github.com/safepay/fraud-engine/internal/repositories"
	"github.com/safepay/fraud-engine/internal/services"
)

// ProcessRequest is the body of a manual evaluation call.
type ProcessRequest struct {
	SuccessForce bool                     `json:"success_force"`
	Payload      *generator.ManualPayload `json:"payload"`
}

// processHandler evaluates one synthetic transaction.
func processHandler(svc *pipeline.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		successForce := c.Query("success_force") == "true"

		resp, err := svc.Process(c.Request.Context(), pipeline.Request{SuccessForce: successForce})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// processManualHandler evaluates a caller-supplied transaction.
func processManualHandler(svc *pipeline.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProcessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
			return
		}
		if req.Payload == nil {
			respondError(c, pipeline.ErrManualPayloadMissing)
			return
		}

		resp, err := svc.Process(c.Request.Context(), pipeline.Request{
			IsManual:     true,
			SuccessForce: req.SuccessForce,
			Manual:       req.Payload,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

func createCardsHandler(svc *services.CardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var reqs []services.CreateCardRequest
		if err := c.ShouldBindJSON(&reqs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
			return
		}

		cards, err := svc.CreateBatch(c.Request.Context(), reqs)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"cards": cards, "count": len(cards)})
	}
}

func listCardsHandler(svc *services.CardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		cards, err := svc.List(c.Request.Context(), limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cards": cards})
	}
}

func getCardHandler(svc *services.CardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": "invalid card id"})
			return
		}

		card, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, card)
	}
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func changeCardStatusHandler(svc *services.CardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": "invalid card id"})
			return
		}

		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
			return
		}

		card, err := svc.ChangeStatus(c.Request.Context(), id, req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, card)
	}
}

func deleteCardHandler(svc *services.CardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": "invalid card id"})
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func createDeviceHandler(svc *services.DeviceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.CreateDeviceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
			return
		}

		device, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, device)
	}
}

func listCardDevicesHandler(svc *services.DeviceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cardID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": "invalid card id"})
			return
		}

		devices, err := svc.ListByCard(c.Request.Context(), cardID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"devices": devices})
	}
}

func listAlertsHandler(alertRepo *repositories.AlertRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		alerts, err := alertRepo.List(c.Request.Context(), limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"alerts": alerts})
	}
}

func updateAlertStatusHandler(alertRepo *repositories.AlertRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": "invalid alert id"})
			return
		}

		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
			return
		}

		if err := alertRepo.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func alertSummaryHandler(svc *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := svc.AlertSummary(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

type resetRequest struct {
	Cards          int `json:"cards"`
	DevicesPerCard int `json:"devices_per_card"`
}

func resetHandler(svc *lifecycle.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := resetRequest{Cards: 50, DevicesPerCard: 2}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
				return
			}
		}

		if err := svc.Reset(c.Request.Context(), req.Cards, req.DevicesPerCard); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "reset", "cards": req.Cards})
	}
}

func registerHandler(svc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
			return
		}

		resp, err := svc.Register(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

func loginHandler(svc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
			return
		}

		resp, err := svc.Login(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps domain errors to HTTP statuses. Unknown errors are
// logged and reported as opaque internals: messages stay short, stacks stay
// in the logs.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrCardNotFound),
		errors.Is(err, repositories.ErrDeviceNotFound),
		errors.Is(err, repositories.ErrTransactionNotFound),
		errors.Is(err, repositories.ErrAlertNotFound),
		errors.Is(err, repositories.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": err.Error()})
	case errors.Is(err, generator.ErrNoCardsAvailable),
		errors.Is(err, generator.ErrCardBlockedOrLost),
		errors.Is(err, generator.ErrDeviceNotLinked),
		errors.Is(err, repositories.ErrDeviceNotLinked),
		errors.Is(err, pipeline.ErrManualPayloadMissing),
		errors.Is(err, services.ErrCardQuantityMax),
		errors.Is(err, services.ErrDeviceMaxSupported),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidBatchSize),
		errors.Is(err, services.ErrWeakPassword):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unprocessable", "message": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": err.Error()})
	case errors.Is(err, repositories.ErrDuplicateUser):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "internal server error"})
	}
}
