package handlers

import (
	"github.com/vzahanych/weather-rag-app/internal/service"
)

// PredictRequest is the body of POST /predict. Older clients send the postal
// code as "zipcode".
type PredictRequest struct {
	PostalCode string `json:"postal_code" validate:"required,postalcode"`
	Zipcode    string `json:"zipcode,omitempty"`
	Country    string `json:"country,omitempty" validate:"omitempty,country"`
	UseRAG     *bool  `json:"use_rag,omitempty"`
}

// PredictResponse mirrors a prediction result. Absent values are null.
type PredictResponse struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message"`
	Location *service.Location `json:"location"`
	Forecast *service.Forecast `json:"forecast"`
	Error    *string           `json:"error"`
}

type ErrorResponse struct {
	Error   string      `json:"error" validate:"required,min=1,max=500"`
	Code    string      `json:"code,omitempty" validate:"omitempty,min=1,max=50"`
	Details interface{} `json:"details,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status" validate:"required,oneof=ok alive ready degraded"`
	Uptime    string `json:"uptime" validate:"required"`
	Timestamp string `json:"timestamp,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Index     string `json:"index,omitempty"`
}

type InfoResponse struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Generator string   `json:"generator"`
	RAG       bool     `json:"rag_enabled"`
	Endpoints []string `json:"endpoints"`
}
