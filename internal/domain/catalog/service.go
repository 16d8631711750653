package catalog

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidDuration = errors.New("average duration must be positive")
	ErrInactiveService = errors.New("service is not active")
)

// Service is read-mostly reference data owned by the external catalog. Its
// configured average duration seeds wait estimates until real completion
// samples arrive.
type Service struct {
	id                 uuid.UUID
	name               string
	avgDurationMinutes int
	isActive           bool
}

func NewService(id uuid.UUID, name string, avgDurationMinutes int, isActive bool) (*Service, error) {
	if avgDurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	return &Service{
		id:                 id,
		name:               name,
		avgDurationMinutes: avgDurationMinutes,
		isActive:           isActive,
	}, nil
}

func (s *Service) ID() uuid.UUID           { return s.id }
func (s *Service) Name() string            { return s.name }
func (s *Service) AvgDurationMinutes() int { return s.avgDurationMinutes }
func (s *Service) IsActive() bool          { return s.isActive }
