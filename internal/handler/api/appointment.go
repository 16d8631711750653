package api

import (
	"errors"
	"net/http"

	"smartqueue/internal/engine"
	reqdto "smartqueue/internal/handler/dto/request"
	resdto "smartqueue/internal/handler/dto/response"
	"smartqueue/internal/handler/httperr"
	"smartqueue/internal/handler/middleware"
	"smartqueue/internal/pkg/errs"
	"smartqueue/internal/usecase/commands"
	"smartqueue/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AppointmentHandler struct {
	bookingCommands commands.BookingCommands
	bookingQueries  queries.BookingQueries
}

func NewAppointmentHandler(bookingCommands commands.BookingCommands, bookingQueries queries.BookingQueries) *AppointmentHandler {
	return &AppointmentHandler{
		bookingCommands: bookingCommands,
		bookingQueries:  bookingQueries,
	}
}

// @Summary Book appointment
// @Description Book a slot and receive a queue position
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateAppointmentRequest true "Booking request"
// @Success 201 {object} resdto.BookResultResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /appointments [post]
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errs.New("missing auth context"), "Unauthorized", nil)
		return
	}

	var req reqdto.CreateAppointmentRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request", nil)
		return
	}

	result, err := h.bookingCommands.Book(c.Request.Context(), userID, req.SlotID, req.ServiceID)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrSlotFull):
			httperr.AbortWithError(c, http.StatusConflict, err, "Slot is fully booked", nil)
		case errors.Is(err, engine.ErrBusy):
			// The slot's section could not be entered in time; the client
			// should simply retry.
			c.Header("Retry-After", "1")
			httperr.AbortWithError(c, http.StatusServiceUnavailable, err, "Slot is busy, retry shortly", nil)
		case errors.Is(err, errs.ErrSlotNotFound), errors.Is(err, engine.ErrSlotUnknown):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Slot not found", nil)
		case errors.Is(err, errs.ErrServiceNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Service not found", nil)
		case errors.Is(err, errs.ErrSlotServiceMismatch):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Slot does not belong to the requested service", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		}
		return
	}

	c.Header("Location", "/api/appointments/"+result.AppointmentID.String())
	c.JSON(http.StatusCreated, resdto.FromBookResult(result))
}

// @Summary Cancel appointment
// @Description Cancel a confirmed appointment; later positions shift forward
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 204
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /appointments/{id} [delete]
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errs.New("missing auth context"), "Unauthorized", nil)
		return
	}
	role, _ := middleware.GetUserRole(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}

	if err := h.bookingCommands.Cancel(c.Request.Context(), id, userID, role); err != nil {
		h.respondRemovalError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Complete appointment
// @Description Mark an appointment served and record the observed duration
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Param request body reqdto.CompleteAppointmentRequest true "Observed duration"
// @Success 204
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /appointments/{id}/complete [post]
func (h *AppointmentHandler) CompleteAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}

	var req reqdto.CompleteAppointmentRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request", nil)
		return
	}

	if err := h.bookingCommands.Complete(c.Request.Context(), id, req.DurationMinutes); err != nil {
		h.respondRemovalError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Get queue status
// @Description Current position, queue length and estimated wait
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} resdto.QueueStatusResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /appointments/{id}/queue [get]
func (h *AppointmentHandler) GetQueueStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}

	status, err := h.bookingQueries.QueueStatus(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrAppointmentNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Not found", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromQueueStatusView(status))
}

// @Summary Get appointment
// @Description Get appointment by ID; owners and admins only
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} resdto.AppointmentResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errs.New("missing auth context"), "Unauthorized", nil)
		return
	}
	role, _ := middleware.GetUserRole(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}

	view, err := h.bookingQueries.GetByID(c.Request.Context(), id, userID, role)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrAppointmentNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Not found", nil)
		case errors.Is(err, errs.ErrNotOwner):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Access denied", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromAppointmentView(view))
}

// @Summary Get user appointments
// @Description List all appointments for the current user
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.AppointmentResponse
// @Failure 401 {object} httperr.Response
// @Router /appointments [get]
func (h *AppointmentHandler) GetUserAppointments(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errs.New("missing auth context"), "Unauthorized", nil)
		return
	}

	views, err := h.bookingQueries.ListByUser(c.Request.Context(), userID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		return
	}

	response := make([]*resdto.AppointmentResponse, len(views))
	for i := range views {
		response[i] = resdto.FromAppointmentView(&views[i])
	}

	c.JSON(http.StatusOK, response)
}

// respondRemovalError maps the shared cancel/complete failure modes.
func (h *AppointmentHandler) respondRemovalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrAppointmentNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Not found", nil)
	case errors.Is(err, errs.ErrNotOwner):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Access denied", nil)
	case errors.Is(err, errs.ErrAlreadyTerminal):
		httperr.AbortWithError(c, http.StatusConflict, err, "Already cancelled or completed", nil)
	case errors.Is(err, engine.ErrBusy):
		c.Header("Retry-After", "1")
		httperr.AbortWithError(c, http.StatusServiceUnavailable, err, "Slot is busy, retry shortly", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
	}
}
