package response

import (
	"time"

	"smartqueue/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type SlotResponse struct {
	ID          uuid.UUID `json:"id"`
	ServiceID   uuid.UUID `json:"serviceId"`
	ServiceName string    `json:"serviceName"`
	Date        time.Time `json:"date"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Capacity    int       `json:"capacity"`
	BookedCount int       `json:"bookedCount"`
	Status      string    `json:"status"`
}

func FromSlotView(rm *queries.SlotView) *SlotResponse {
	var resp SlotResponse
	_ = copier.Copy(&resp, rm)
	return &resp
}
