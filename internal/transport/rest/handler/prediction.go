package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"predictbattle/internal/model"
	"predictbattle/internal/service"
	"predictbattle/internal/transport/rest/apierr"
	"predictbattle/internal/transport/rest/middleware"
)

// PredictionHandler handles prediction endpoints
type PredictionHandler struct {
	predictionSvc *service.PredictionService
	out           *apierr.Writer
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(predictionSvc *service.PredictionService, out *apierr.Writer) *PredictionHandler {
	return &PredictionHandler{predictionSvc: predictionSvc, out: out}
}

// Add handles POST /predictions
// @Summary     Submit a prediction
// @Tags        predictions
// @Accept      json
// @Produce     json
// @Param       body body model.AddPredictionInput true "prediction"
// @Success     201 {object} model.Prediction
// @Failure     400 {object} apierr.ErrorResponse
// @Failure     404 {object} apierr.ErrorResponse
// @Router      /predictions [post]
func (h *PredictionHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req model.AddPredictionInput
	if !decodeJSON(w, r, h.out, &req) {
		return
	}

	prediction, err := h.predictionSvc.AddPrediction(r.Context(), req, middleware.GetIdentity(r.Context()))
	if err != nil {
		h.out.Error(w, r, err)
		return
	}

	h.out.JSON(w, http.StatusCreated, prediction)
}

// ListBySession handles GET /predictions/session/{code}
// @Summary     Predictions of a session, oldest first
// @Tags        predictions
// @Produce     json
// @Param       code path string true "session code"
// @Success     200 {array} model.Prediction
// @Failure     404 {object} apierr.ErrorResponse
// @Router      /predictions/session/{code} [get]
func (h *PredictionHandler) ListBySession(w http.ResponseWriter, r *http.Request) {
	predictions, err := h.predictionSvc.GetSessionPredictions(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.out.Error(w, r, err)
		return
	}

	h.out.JSON(w, http.StatusOK, predictions)
}
