package reservation

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ilia-darchiashvili/bike-rentals/internal/api"
	"github.com/ilia-darchiashvili/bike-rentals/internal/auth"
	"github.com/ilia-darchiashvili/bike-rentals/internal/interval"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type ReserveRequest struct {
	From   time.Time `json:"from" binding:"required"`
	To     time.Time `json:"to" binding:"required"`
	UserID int       `json:"userId" binding:"required"`
}

type CancelRequest struct {
	ReservationID string `json:"reservationId" binding:"required"`
	UserID        int    `json:"userId" binding:"required"`
}

type ReservationsResponse struct {
	Reservations []Reservation `json:"reservations"`
}

// Reserve godoc
// @Summary      Reserve a bike
// @Description  Books the bike for the given half-open interval. Touching boundaries with an existing reservation do not conflict.
// @Tags         reservations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bikeID   path      int             true  "Bike ID"
// @Param        request  body      ReserveRequest  true  "Reservation window and user"
// @Success      200      {object}  ReservationsResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      422      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /bikes/{bikeID}/reserve [patch]
func (h *Handler) Reserve(c *gin.Context) {
	callerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	bikeID, err := strconv.Atoi(c.Param("bikeID"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "Invalid bike id"})
		return
	}

	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "Invalid inputs passed, please check your data"})
		return
	}

	// Managers may book on behalf of any user.
	if req.UserID != callerID && !auth.IsManager(c) {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "You can only reserve bikes for yourself"})
		return
	}

	reservations, err := h.service.Reserve(c.Request.Context(), bikeID, req.UserID, req.From, req.To)
	if err != nil {
		switch {
		case errors.Is(err, interval.ErrInvalidInterval):
			c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "Reservation start must be before its end"})
		case errors.Is(err, ErrBikeNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Could not find bike for this id"})
		case errors.Is(err, ErrUserNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Could not find user for provided id"})
		case errors.Is(err, ErrConflict):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Bike is already reserved for this time range"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Something went wrong, could not reserve bike"})
		}
		return
	}

	c.JSON(http.StatusOK, ReservationsResponse{Reservations: reservations})
}

// CancelReserve godoc
// @Summary      Cancel a reservation
// @Description  Removes the reservation from the bike and the matching back-reference from the user. Cancelling an unknown reservation id succeeds with no change.
// @Tags         reservations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bikeID   path      int            true  "Bike ID"
// @Param        request  body      CancelRequest  true  "Reservation to cancel"
// @Success      200      {object}  ReservationsResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      422      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /bikes/{bikeID}/cancel_reserve [patch]
func (h *Handler) CancelReserve(c *gin.Context) {
	callerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	bikeID, err := strconv.Atoi(c.Param("bikeID"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "Invalid bike id"})
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "Invalid inputs passed, please check your data"})
		return
	}

	// Ownership policy: only the reservation's owner or a manager may cancel.
	// An already-removed reservation skips the check and falls through to the
	// idempotent no-op below.
	existing, err := h.service.GetByID(c.Request.Context(), req.ReservationID)
	if err != nil && !errors.Is(err, ErrReservationNotFound) {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Something went wrong, could not cancel reservation"})
		return
	}
	if existing != nil && existing.UserID != callerID && !auth.IsManager(c) {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "You can only cancel your own reservations"})
		return
	}

	reservations, err := h.service.Cancel(c.Request.Context(), bikeID, req.ReservationID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrBikeNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Could not find bike for this id"})
		case errors.Is(err, ErrUserNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Could not find user for provided id"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Something went wrong, could not cancel reservation"})
		}
		return
	}

	c.JSON(http.StatusOK, ReservationsResponse{Reservations: reservations})
}
