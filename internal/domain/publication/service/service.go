package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/vadim/neo-studio/internal/domain/common"
	"github.com/vadim/neo-studio/internal/domain/publication/entity"
)

const basePath = "/publications"

// Requester is the subset of the backend client used by the service
type Requester interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// Service maps publication CRUD and lifecycle actions to backend endpoints
type Service struct {
	api Requester
}

// New creates a new publication service
func New(api Requester) *Service {
	return &Service{api: api}
}

// List retrieves every publication of the current user
func (s *Service) List(ctx context.Context) ([]entity.Publication, error) {
	var out common.List[entity.Publication]
	if err := s.api.Get(ctx, basePath, &out); err != nil {
		return nil, fmt.Errorf("listing publications: %w", err)
	}
	return out, nil
}

// Get retrieves a publication by ID
func (s *Service) Get(ctx context.Context, id common.ID) (*entity.Publication, error) {
	var pub entity.Publication
	if err := s.api.Get(ctx, itemPath(id), &pub); err != nil {
		return nil, fmt.Errorf("getting publication %s: %w", id, err)
	}
	return &pub, nil
}

// Create creates a publication
func (s *Service) Create(ctx context.Context, payload entity.Payload) (*entity.Publication, error) {
	var pub entity.Publication
	if err := s.api.Post(ctx, basePath, payload, &pub); err != nil {
		return nil, fmt.Errorf("creating publication: %w", err)
	}
	return &pub, nil
}

// Update applies a patch to a publication
func (s *Service) Update(ctx context.Context, id common.ID, patch entity.Patch) (*entity.Publication, error) {
	var pub entity.Publication
	if err := s.api.Put(ctx, itemPath(id), patch, &pub); err != nil {
		return nil, fmt.Errorf("updating publication %s: %w", id, err)
	}
	return &pub, nil
}

// Delete removes a publication
func (s *Service) Delete(ctx context.Context, id common.ID) error {
	if err := s.api.Delete(ctx, itemPath(id)); err != nil {
		return fmt.Errorf("deleting publication %s: %w", id, err)
	}
	return nil
}

// Publish posts the publication to its platform immediately
func (s *Service) Publish(ctx context.Context, id common.ID) (*entity.Publication, error) {
	var pub entity.Publication
	if err := s.api.Post(ctx, itemPath(id)+"/publish", nil, &pub); err != nil {
		return nil, fmt.Errorf("publishing publication %s: %w", id, err)
	}
	return &pub, nil
}

// scheduleRequest is the body of POST /publications/:id/schedule
type scheduleRequest struct {
	ScheduledAt time.Time `json:"date_programme"`
}

// Schedule schedules a publication at the given time
func (s *Service) Schedule(ctx context.Context, id common.ID, at time.Time) (*entity.Publication, error) {
	var pub entity.Publication
	if err := s.api.Post(ctx, itemPath(id)+"/schedule", scheduleRequest{ScheduledAt: at}, &pub); err != nil {
		return nil, fmt.Errorf("scheduling publication %s: %w", id, err)
	}
	return &pub, nil
}

// Cancel cancels a scheduled publication
func (s *Service) Cancel(ctx context.Context, id common.ID) (*entity.Publication, error) {
	var pub entity.Publication
	if err := s.api.Post(ctx, itemPath(id)+"/cancel", nil, &pub); err != nil {
		return nil, fmt.Errorf("cancelling publication %s: %w", id, err)
	}
	return &pub, nil
}

func itemPath(id common.ID) string {
	return basePath + "/" + url.PathEscape(id.String())
}
