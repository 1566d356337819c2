package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/VeroC12-hub/boujee-events-sub002/internal/auth"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/checkin"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/logger"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/utils"
)

type Handler struct {
	CheckInService *checkin.Service
	Logger         *logger.Logger
}

func NewHandler(checkInService *checkin.Service, log *logger.Logger) *Handler {
	return &Handler{
		CheckInService: checkInService,
		Logger:         log,
	}
}

type scanRequest struct {
	QRData string `json:"qr_data"`
}

// Validate handles POST /api/scan/validate. It never records anything, so
// gate staff can pre-check a ticket without consuming it.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	if req.QRData == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request", "qr_data is required"))
		return
	}

	result, err := h.CheckInService.Validate(req.QRData)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Validate: %v", err))
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("Service unavailable", "validation temporarily unavailable"))
		return
	}

	// Invalid scans are routine: still HTTP 200, outcome in the body
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Validation complete", result))
}

// CheckIn handles POST /api/scan/checkin.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	checkedInBy := auth.UserID(r.Context())
	if checkedInBy == "" {
		// When verification is delegated to the gateway the OIDC middleware
		// is not mounted; the scanner identity still rides in on the token's
		// subject claim.
		if rawToken, err := auth.ExtractTokenFromRequest(r); err == nil {
			checkedInBy, _ = auth.ExtractUserIDFromJWT(rawToken)
		}
	}
	if checkedInBy == "" {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Unauthorized", "missing scanner identity"))
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	if req.QRData == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request", "qr_data is required"))
		return
	}

	result, err := h.CheckInService.CheckIn(req.QRData, checkedInBy)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CheckIn: %v", err))
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("Service unavailable", "check-in temporarily unavailable"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Check-in processed", result))
}
