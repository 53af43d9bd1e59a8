package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Rrens/sign-gateway/internal/api/response"
	"github.com/Rrens/sign-gateway/internal/domain"
	"github.com/Rrens/sign-gateway/internal/service"
)

// PredictHandler handles prediction endpoints
type PredictHandler struct {
	predictions *service.PredictionService
	uploads     *Uploader
}

// NewPredictHandler creates a new predict handler
func NewPredictHandler(predictions *service.PredictionService, uploads *Uploader) *PredictHandler {
	return &PredictHandler{predictions: predictions, uploads: uploads}
}

// Text maps a word onto sign images
func (h *PredictHandler) Text(w http.ResponseWriter, r *http.Request) {
	var input domain.TextRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		// a non-string word fails here too
		writeError(w, r, domain.Validationf("Word is required and must be a string"))
		return
	}

	if err := validate.Struct(input); err != nil {
		writeError(w, r, domain.Validationf("Word is required and must be a string"))
		return
	}

	signs, err := h.predictions.TextToSigns(input.Word)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, signs)
}

// Photo classifies an uploaded image and returns every prediction
func (h *PredictHandler) Photo(w http.ResponseWriter, r *http.Request) {
	h.predictImage(w, r, domain.ModePhoto)
}

// Camera classifies an uploaded frame and returns only the top prediction
func (h *PredictHandler) Camera(w http.ResponseWriter, r *http.Request) {
	h.predictImage(w, r, domain.ModeCamera)
}

func (h *PredictHandler) predictImage(w http.ResponseWriter, r *http.Request, mode domain.PredictionMode) {
	path, err := h.uploads.Stage(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.predictions.PredictFromImage(r.Context(), path, mode)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, result)
}
