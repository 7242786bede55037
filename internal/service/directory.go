package service

import (
	"context"
	"errors"
	"fmt"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/repository"
)

type directoryService struct {
	alumni  repository.AlumniRepository
	schools repository.SchoolRepository
}

func NewDirectoryService(alumni repository.AlumniRepository, schools repository.SchoolRepository) DirectoryService {
	return &directoryService{alumni: alumni, schools: schools}
}

func (s *directoryService) SearchAlumni(ctx context.Context, filter domain.AlumniFilter) ([]domain.Alumni, int32, error) {
	if filter.Limit <= 0 || filter.Limit > maxQueuePageSize {
		filter.Limit = defaultQueuePageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.alumni.Search(ctx, filter)
}

func (s *directoryService) GetAlumni(ctx context.Context, alumniID string) (*domain.Alumni, error) {
	a, err := s.alumni.GetByID(ctx, alumniID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAlumniNotFound, alumniID)
	}
	return a, err
}

func (s *directoryService) ListSchools(ctx context.Context, name string) ([]domain.School, error) {
	return s.schools.List(ctx, name)
}
