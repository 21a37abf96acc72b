package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-rag-app/internal/predictor"
	"github.com/vzahanych/weather-rag-app/internal/server/utils"
	"go.uber.org/zap"
)

// Predictor is the orchestrator behind POST /predict.
type Predictor interface {
	Predict(ctx context.Context, req predictor.Request) (*predictor.Result, error)
}

type PredictHandler struct {
	predictor Predictor
	logger    *zap.Logger
}

func NewPredictHandler(p Predictor, logger *zap.Logger) *PredictHandler {
	return &PredictHandler{
		predictor: p,
		logger:    logger,
	}
}

func (h *PredictHandler) Predict(c *gin.Context) {
	requestID := utils.GetRequestIDFromGinContext(c)
	ctx := utils.RequestContext(c)

	reqLogger := h.logger.With(zap.String("request_id", requestID))

	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reqLogger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_BODY",
			Details: err.Error(),
		})
		return
	}

	req.PostalCode = strings.TrimSpace(req.PostalCode)
	if req.PostalCode == "" {
		req.PostalCode = strings.TrimSpace(req.Zipcode)
	}
	req.Country = strings.ToUpper(strings.TrimSpace(req.Country))

	if errs := utils.ValidateStruct(req); errs != nil {
		reqLogger.Warn("Request validation failed", zap.Any("errors", errs))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   errs[0].Message,
			Code:    "INVALID_PARAMS",
			Details: errs,
		})
		return
	}

	country := req.Country
	if country == "" {
		country = predictor.DefaultCountry
	}

	reqLogger.Info("Processing prediction request",
		zap.String("postal_code", req.PostalCode),
		zap.String("country", country))

	result, err := h.predictor.Predict(ctx, predictor.Request{
		PostalCode: req.PostalCode,
		Country:    country,
		UseRAG:     req.UseRAG,
	})
	if err != nil {
		reqLogger.Error("Prediction failed", zap.Error(err))
		msg := err.Error()
		c.JSON(http.StatusOK, PredictResponse{
			Success: false,
			Message: "Server error: " + msg,
			Error:   &msg,
		})
		return
	}

	c.JSON(http.StatusOK, toPredictResponse(result))
}

func toPredictResponse(r *predictor.Result) PredictResponse {
	resp := PredictResponse{
		Success:  r.Success,
		Message:  r.Message,
		Location: r.Location,
		Forecast: r.Forecast,
	}
	if r.Error != "" {
		msg := r.Error
		resp.Error = &msg
	}
	return resp
}
