package api

import (
	"errors"
	"net/http"
	"time"

	resdto "smartqueue/internal/handler/dto/response"
	"smartqueue/internal/handler/httperr"
	"smartqueue/internal/pkg/errs"
	"smartqueue/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SlotHandler struct {
	slotQueries queries.SlotQueries
}

func NewSlotHandler(slotQueries queries.SlotQueries) *SlotHandler {
	return &SlotHandler{
		slotQueries: slotQueries,
	}
}

// @Summary List slots
// @Description Slot board with live occupancy and status
// @Tags slots
// @Produce json
// @Param service_id query string false "Filter by service"
// @Param date query string false "Filter by date (YYYY-MM-DD)"
// @Success 200 {array} resdto.SlotResponse
// @Failure 400 {object} httperr.Response
// @Router /slots [get]
func (h *SlotHandler) ListSlots(c *gin.Context) {
	var filter queries.SlotFilter

	if raw := c.Query("service_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid service id", nil)
			return
		}
		filter.ServiceID = &id
	}

	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid date, expected YYYY-MM-DD", nil)
			return
		}
		filter.Date = &date
	}

	views, err := h.slotQueries.List(c.Request.Context(), filter)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		return
	}

	response := make([]*resdto.SlotResponse, len(views))
	for i := range views {
		response[i] = resdto.FromSlotView(&views[i])
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Get slot
// @Description Get a single slot by ID
// @Tags slots
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} resdto.SlotResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /slots/{id} [get]
func (h *SlotHandler) GetSlot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}

	view, err := h.slotQueries.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrSlotNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Not found", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		return
	}

	c.JSON(http.StatusOK, resdto.FromSlotView(view))
}
