//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"

	"smartqueue/internal/domain/appointment"
	"smartqueue/internal/domain/identity"
	"smartqueue/internal/engine"
	"smartqueue/internal/handler/api"
	resdto "smartqueue/internal/handler/dto/response"
	"smartqueue/internal/pkg/errs"
	"smartqueue/internal/usecase/commands"
	"smartqueue/internal/usecase/queries"
	"smartqueue/tests/common/builder"
	"smartqueue/tests/common/httptest"
	"smartqueue/tests/common/testutil"
	commandsmock "smartqueue/tests/mock/commands"
	queriesmock "smartqueue/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type AppointmentHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockBookingCommands
	mockQueries  *queriesmock.MockBookingQueries
	handler      *api.AppointmentHandler
	authedUserID uuid.UUID
}

func (s *AppointmentHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockBookingCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	s.handler = api.NewAppointmentHandler(s.mockCommands, s.mockQueries)
	s.authedUserID = uuid.New()

	// Mock authentication middleware for testing
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Unauthorized"}})
			return
		}
		c.Set("user_id", s.authedUserID)
		c.Set("user_role", identity.RoleUser)
		c.Next()
	}

	// Setup routes
	s.router.POST("/appointments", authMiddleware, s.handler.CreateAppointment)
	s.router.GET("/appointments", authMiddleware, s.handler.GetUserAppointments)
	s.router.GET("/appointments/:id", authMiddleware, s.handler.GetAppointment)
	s.router.DELETE("/appointments/:id", authMiddleware, s.handler.CancelAppointment)
	s.router.GET("/appointments/:id/queue", authMiddleware, s.handler.GetQueueStatus)
	s.router.POST("/appointments/:id/complete", authMiddleware, s.handler.CompleteAppointment)
}

func (s *AppointmentHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestAppointmentHandlerSuite(t *testing.T) {
	suite.Run(t, new(AppointmentHandlerTestSuite))
}

// ================================================================================
// TestCreateAppointment
// ================================================================================

func (s *AppointmentHandlerTestSuite) TestCreateAppointment() {
	url := "/appointments"

	b := builder.NewAppointmentBuilder()
	reqBody := b.BuildCreateRequestDTO()
	expectedResult := &commands.BookResult{
		AppointmentID:        b.ID,
		SlotID:               b.SlotID,
		ServiceID:            b.ServiceID,
		BookingReference:     b.BookingReference,
		QueuePosition:        1,
		EstimatedWaitMinutes: 15,
		Status:               appointment.StatusConfirmed,
	}

	s.Run("success: returns 201 Created with queue position", func() {
		s.mockCommands.EXPECT().Book(gomock.Any(), s.authedUserID, reqBody.SlotID, reqBody.ServiceID).
			Return(expectedResult, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		var response resdto.BookResultResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &response)
		s.Equal(expectedResult.AppointmentID, response.AppointmentID)
		s.Equal(1, response.QueuePosition)
		s.Equal(15, response.EstimatedWaitMinutes)
		s.Equal("CONFIRMED", response.Status)
		httptest.AssertHeaders(s.T(), rec, map[string]string{
			"Location": "/api/appointments/" + expectedResult.AppointmentID.String(),
		})
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		testCases := []struct {
			name   string
			mutate func(m map[string]any)
		}{
			{name: "missing field: slotId (required)", mutate: testutil.Field("slotId", nil)},
			{name: "missing field: serviceId (required)", mutate: testutil.Field("serviceId", nil)},
			{name: "malformed slotId", mutate: testutil.Field("slotId", "not-a-uuid")},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				requestMap := testutil.DtoMap(s.T(), reqBody, tc.mutate)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
			})
		}
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{
				name:           "slot fully booked",
				commandsError:  engine.ErrSlotFull,
				expectedStatus: http.StatusConflict,
				expectedMsg:    "fully booked",
			},
			{
				name:           "slot section busy",
				commandsError:  engine.ErrBusy,
				expectedStatus: http.StatusServiceUnavailable,
				expectedMsg:    "retry",
			},
			{
				name:           "slot not found",
				commandsError:  errs.ErrSlotNotFound,
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "Slot not found",
			},
			{
				name:           "service not found",
				commandsError:  errs.ErrServiceNotFound,
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "Service not found",
			},
			{
				name:           "slot/service mismatch",
				commandsError:  errs.ErrSlotServiceMismatch,
				expectedStatus: http.StatusBadRequest,
				expectedMsg:    "does not belong",
			},
			{
				name:           "internal server error",
				commandsError:  errors.New("database error"),
				expectedStatus: http.StatusInternalServerError,
				expectedMsg:    "Internal error",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().Book(gomock.Any(), s.authedUserID, reqBody.SlotID, reqBody.ServiceID).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})

	s.Run("error: 503 carries Retry-After header", func() {
		s.mockCommands.EXPECT().Book(gomock.Any(), s.authedUserID, reqBody.SlotID, reqBody.ServiceID).
			Return(nil, engine.ErrBusy).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
		s.Equal(http.StatusServiceUnavailable, rec.Code)
		httptest.AssertHeaders(s.T(), rec, map[string]string{"Retry-After": "1"})
	})
}

// ================================================================================
// TestCancelAppointment
// ================================================================================

func (s *AppointmentHandlerTestSuite) TestCancelAppointment() {
	appointmentID := uuid.New()
	url := "/appointments/" + appointmentID.String()

	s.Run("success: returns 204 No Content", func() {
		s.mockCommands.EXPECT().Cancel(gomock.Any(), appointmentID, s.authedUserID, identity.RoleUser).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("error: 400 Bad Request for invalid UUID", func() {
		invalidURL := "/appointments/invalid-uuid"
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, invalidURL, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid id")
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{
				name:           "appointment not found",
				commandsError:  errs.ErrAppointmentNotFound,
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "Not found",
			},
			{
				name:           "appointment not owned",
				commandsError:  errs.ErrNotOwner,
				expectedStatus: http.StatusForbidden,
				expectedMsg:    "Access denied",
			},
			{
				name:           "already terminal",
				commandsError:  errs.ErrAlreadyTerminal,
				expectedStatus: http.StatusConflict,
				expectedMsg:    "Already cancelled",
			},
			{
				name:           "slot section busy",
				commandsError:  engine.ErrBusy,
				expectedStatus: http.StatusServiceUnavailable,
				expectedMsg:    "retry",
			},
			{
				name:           "internal server error",
				commandsError:  errors.New("database error"),
				expectedStatus: http.StatusInternalServerError,
				expectedMsg:    "Internal error",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().Cancel(gomock.Any(), appointmentID, s.authedUserID, identity.RoleUser).
					Return(tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})

	s.Run("success: cancel as admin", func() {
		adminRouter := gin.New()
		adminID := uuid.New()
		adminAuthMiddleware := func(c *gin.Context) {
			if c.GetHeader("Authorization") != "" {
				c.Set("user_id", adminID)
				c.Set("user_role", identity.RoleAdmin)
			}
			c.Next()
		}
		adminRouter.DELETE("/appointments/:id", adminAuthMiddleware, s.handler.CancelAppointment)

		s.mockCommands.EXPECT().Cancel(gomock.Any(), appointmentID, adminID, identity.RoleAdmin).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), adminRouter, http.MethodDelete, url, nil, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})
}

// ================================================================================
// TestCompleteAppointment
// ================================================================================

func (s *AppointmentHandlerTestSuite) TestCompleteAppointment() {
	appointmentID := uuid.New()
	url := "/appointments/" + appointmentID.String() + "/complete"

	reqBody := map[string]any{"durationMinutes": 12.5}

	s.Run("success: returns 204 No Content", func() {
		s.mockCommands.EXPECT().Complete(gomock.Any(), appointmentID, 12.5).
			Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		testCases := []struct {
			name   string
			mutate func(m map[string]any)
		}{
			{name: "missing field: durationMinutes (required)", mutate: testutil.Field("durationMinutes", nil)},
			{name: "zero duration", mutate: testutil.Field("durationMinutes", 0)},
			{name: "negative duration", mutate: testutil.Field("durationMinutes", -3)},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				requestMap := testutil.DtoMap(s.T(), reqBody, tc.mutate)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
			})
		}
	})

	s.Run("error: 409 Conflict when already terminal", func() {
		s.mockCommands.EXPECT().Complete(gomock.Any(), appointmentID, 12.5).
			Return(errs.ErrAlreadyTerminal).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "Already cancelled")
	})
}

// ================================================================================
// TestGetQueueStatus
// ================================================================================

func (s *AppointmentHandlerTestSuite) TestGetQueueStatus() {
	appointmentID := uuid.New()
	url := "/appointments/" + appointmentID.String() + "/queue"

	returnView := &queries.QueueStatusView{
		AppointmentID:        appointmentID,
		BookingReference:     "SQ-A1B2C3D4",
		QueuePosition:        2,
		TotalInQueue:         4,
		EstimatedWaitMinutes: 30,
		Status:               "CONFIRMED",
	}

	s.Run("success: returns 200 OK with QueueStatusResponse", func() {
		s.mockQueries.EXPECT().QueueStatus(gomock.Any(), appointmentID).
			Return(returnView, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response resdto.QueueStatusResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(appointmentID, response.AppointmentID)
		s.Equal(2, response.QueuePosition)
		s.Equal(4, response.TotalInQueue)
		s.Equal(30, response.EstimatedWaitMinutes)
	})

	s.Run("error: 400 Bad Request for invalid UUID", func() {
		invalidURL := "/appointments/invalid-uuid/queue"
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, invalidURL, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid id")
	})

	s.Run("error: 404 Not Found for missing appointment", func() {
		s.mockQueries.EXPECT().QueueStatus(gomock.Any(), appointmentID).
			Return(nil, errs.ErrAppointmentNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Not found")
	})

	s.Run("error: 500 Internal Server Error on query failure", func() {
		s.mockQueries.EXPECT().QueueStatus(gomock.Any(), appointmentID).
			Return(nil, errors.New("database error")).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "Internal error")
	})
}

// ================================================================================
// TestGetAppointment
// ================================================================================

func (s *AppointmentHandlerTestSuite) TestGetAppointment() {
	appointmentID := uuid.New()
	url := "/appointments/" + appointmentID.String()

	returnView := builder.NewAppointmentBuilder().BuildView()
	returnView.ID = appointmentID

	s.Run("success: returns 200 OK with AppointmentResponse", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), appointmentID, s.authedUserID, identity.RoleUser).
			Return(returnView, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response resdto.AppointmentResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(appointmentID, response.ID)
		s.Equal(returnView.BookingReference, response.BookingReference)
		s.Equal(returnView.QueuePosition, response.QueuePosition)
		s.Equal(returnView.ServiceName, response.ServiceName)
	})

	s.Run("error: 403 Forbidden for someone else's appointment", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), appointmentID, s.authedUserID, identity.RoleUser).
			Return(nil, errs.ErrNotOwner).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "Access denied")
	})

	s.Run("error: 404 Not Found for missing appointment", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), appointmentID, s.authedUserID, identity.RoleUser).
			Return(nil, errs.ErrAppointmentNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Not found")
	})
}

// ================================================================================
// TestGetUserAppointments
// ================================================================================

func (s *AppointmentHandlerTestSuite) TestGetUserAppointments() {
	url := "/appointments"

	s.Run("success: returns the caller's appointments", func() {
		views := []queries.AppointmentView{
			*builder.NewAppointmentBuilder().BuildView(),
			*builder.NewAppointmentBuilder().BuildView(),
		}
		s.mockQueries.EXPECT().ListByUser(gomock.Any(), s.authedUserID).
			Return(views, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response []resdto.AppointmentResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Len(response, 2)
	})

	s.Run("success: empty list for a user with no appointments", func() {
		s.mockQueries.EXPECT().ListByUser(gomock.Any(), s.authedUserID).
			Return(nil, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response []resdto.AppointmentResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Empty(response)
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})
}
