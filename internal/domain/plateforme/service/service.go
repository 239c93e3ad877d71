package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/vadim/neo-studio/internal/domain/common"
	"github.com/vadim/neo-studio/internal/domain/plateforme/entity"
)

const basePath = "/plateformes"

// Requester is the subset of the backend client used by the service
type Requester interface {
	Get(ctx context.Context, path string, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// Service maps platform connection management to backend endpoints
type Service struct {
	api Requester
}

// New creates a new platform service
func New(api Requester) *Service {
	return &Service{api: api}
}

// Connections lists the platform connections of the current user
func (s *Service) Connections(ctx context.Context) ([]entity.Connexion, error) {
	var out common.List[entity.Connexion]
	if err := s.api.Get(ctx, basePath, &out); err != nil {
		return nil, fmt.Errorf("listing platform connections: %w", err)
	}
	return out, nil
}

// Disconnect removes a platform connection
func (s *Service) Disconnect(ctx context.Context, id common.ID) error {
	if err := s.api.Delete(ctx, itemPath(id)); err != nil {
		return fmt.Errorf("disconnecting platform %s: %w", id, err)
	}
	return nil
}

// UpdateMeta replaces the platform-specific settings of a connection
func (s *Service) UpdateMeta(ctx context.Context, id common.ID, meta json.RawMessage) (*entity.Connexion, error) {
	var conn entity.Connexion
	if err := s.api.Put(ctx, itemPath(id)+"/meta", meta, &conn); err != nil {
		return nil, fmt.Errorf("updating platform %s meta: %w", id, err)
	}
	return &conn, nil
}

// RefreshToken asks the backend to renew the OAuth token of a connection
func (s *Service) RefreshToken(ctx context.Context, id common.ID) (*entity.Connexion, error) {
	var conn entity.Connexion
	if err := s.api.Put(ctx, itemPath(id)+"/token", nil, &conn); err != nil {
		return nil, fmt.Errorf("refreshing platform %s token: %w", id, err)
	}
	return &conn, nil
}

// CheckToken asks the backend whether the token of a connection still works
func (s *Service) CheckToken(ctx context.Context, id common.ID) (*entity.TokenCheck, error) {
	var check entity.TokenCheck
	if err := s.api.Get(ctx, itemPath(id)+"/check-token", &check); err != nil {
		return nil, fmt.Errorf("checking platform %s token: %w", id, err)
	}
	return &check, nil
}

func itemPath(id common.ID) string {
	return basePath + "/" + url.PathEscape(id.String())
}
