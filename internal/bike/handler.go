package bike

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ilia-darchiashvili/bike-rentals/internal/api"
)

type Handler struct {
	service Service
	uploads Uploader
}

// Uploader stores an incoming image file and returns its path.
type Uploader interface {
	Save(c *gin.Context, field string) (string, error)
}

func NewHandler(service Service, uploads Uploader) *Handler {
	return &Handler{
		service: service,
		uploads: uploads,
	}
}

type BikeResponse struct {
	Bike Bike `json:"bike"`
}

type BikesResponse struct {
	Bikes []Bike `json:"bikes"`
}

// GetBikes godoc
// @Summary      List bikes
// @Tags         bikes
// @Produce      json
// @Success      200  {object}  BikesResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /bikes [get]
func (h *Handler) GetBikes(c *gin.Context) {
	bikes, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Fetching bikes failed, please try again later"})
		return
	}

	c.JSON(http.StatusOK, BikesResponse{Bikes: bikes})
}

// GetBikeByID godoc
// @Summary      Get bike by id
// @Tags         bikes
// @Produce      json
// @Param        bikeID  path      int  true  "Bike ID"
// @Success      200     {object}  BikeResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /bikes/{bikeID} [get]
func (h *Handler) GetBikeByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("bikeID"))
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Could not find bike for the provided id"})
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrBikeNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Could not find bike for the provided id"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Something went wrong, could not find a bike"})
		return
	}

	c.JSON(http.StatusOK, BikeResponse{Bike: *b})
}

// FilterAvailable godoc
// @Summary      List bikes available at an instant
// @Description  Combines availability at the given instant with optional model, color, address and rating filters. Filters are conjunctive; empty ones are skipped.
// @Tags         bikes
// @Produce      json
// @Param        at       query     string  true   "Instant (RFC3339)"
// @Param        model    query     string  false  "Model substring"
// @Param        color    query     string  false  "Color substring"
// @Param        address  query     string  false  "Address substring"
// @Param        rating   query     number  false  "Exact rating"
// @Success      200      {object}  BikesResponse
// @Failure      422      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /bikes/available [get]
func (h *Handler) FilterAvailable(c *gin.Context) {
	at, err := time.Parse(time.RFC3339, c.Query("at"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "Query param 'at' must be a RFC3339 timestamp"})
		return
	}

	filters := Filters{
		Model:   c.Query("model"),
		Color:   c.Query("color"),
		Address: c.Query("address"),
	}
	if ratingStr := c.Query("rating"); ratingStr != "" {
		rating, err := strconv.ParseFloat(ratingStr, 64)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "Query param 'rating' must be a number"})
			return
		}
		filters.Rating = &rating
	}

	bikes, err := h.service.FilterAvailable(c.Request.Context(), at, filters)
	if err != nil {
		if errors.Is(err, ErrInstantInPast) {
			c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "Cannot check availability in the past"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Fetching bikes failed, please try again later"})
		return
	}

	c.JSON(http.StatusOK, BikesResponse{Bikes: bikes})
}

// CreateBike godoc
// @Summary      Create a bike listing
// @Description  Manager only. The address is geocoded; an unresolvable address is rejected.
// @Tags         bikes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateBikeRequest  true  "Bike payload"
// @Success      201      {object}  BikeResponse
// @Failure      422      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /bikes [post]
func (h *Handler) CreateBike(c *gin.Context) {
	var req CreateBikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "Invalid inputs passed, please check your data"})
		return
	}

	b, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrAddressNotFound) {
			c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "Could not find location for the specified address"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Creating bike failed, please try again"})
		return
	}

	c.JSON(http.StatusCreated, BikeResponse{Bike: *b})
}

// UpdateBike godoc
// @Summary      Update a bike listing
// @Tags         bikes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bikeID   path      int                true  "Bike ID"
// @Param        request  body      UpdateBikeRequest  true  "Bike payload"
// @Success      200      {object}  BikeResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      422      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /bikes/{bikeID} [patch]
func (h *Handler) UpdateBike(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("bikeID"))
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Could not find bike for this id"})
		return
	}

	var req UpdateBikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "Invalid inputs passed, please check your data"})
		return
	}

	b, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrBikeNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Could not find bike for this id"})
		case errors.Is(err, ErrAddressNotFound):
			c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "Could not find location for the specified address"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Something went wrong, could not update bike"})
		}
		return
	}

	c.JSON(http.StatusOK, BikeResponse{Bike: *b})
}

// DeleteBike godoc
// @Summary      Delete a bike listing
// @Description  Manager only. Removes the bike's reservations and every user's back-reference to it.
// @Tags         bikes
// @Security     BearerAuth
// @Produce      json
// @Param        bikeID  path      int  true  "Bike ID"
// @Success      200     {object}  api.MessageResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /bikes/{bikeID} [delete]
func (h *Handler) DeleteBike(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("bikeID"))
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Could not find bike for this id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrBikeNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Could not find bike for this id"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Something went wrong, could not delete bike"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Deleted bike."})
}

// UploadImage godoc
// @Summary      Upload a bike image
// @Tags         bikes
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        bikeID  path      int   true  "Bike ID"
// @Param        image   formData  file  true  "Image file"
// @Success      200     {object}  BikeResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      422     {object}  api.ErrorResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /bikes/{bikeID}/image [post]
func (h *Handler) UploadImage(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("bikeID"))
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Could not find bike for this id"})
		return
	}

	path, err := h.uploads.Save(c, "image")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "Invalid image upload"})
		return
	}

	if err := h.service.AttachImage(c.Request.Context(), id, path); err != nil {
		if errors.Is(err, ErrBikeNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Could not find bike for this id"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Something went wrong, could not store image"})
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Something went wrong, could not store image"})
		return
	}

	c.JSON(http.StatusOK, BikeResponse{Bike: *b})
}
