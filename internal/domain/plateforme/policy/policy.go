package policy

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/vadim/neo-studio/internal/domain/common"
	"github.com/vadim/neo-studio/internal/domain/plateforme/entity"
	"github.com/vadim/neo-studio/internal/querycache"
)

// CacheKey is the query cache key of the connection list
const CacheKey = "plateformes"

// PlateformeService defines the backend operations on connections
type PlateformeService interface {
	Connections(ctx context.Context) ([]entity.Connexion, error)
	Disconnect(ctx context.Context, id common.ID) error
	UpdateMeta(ctx context.Context, id common.ID, meta json.RawMessage) (*entity.Connexion, error)
	RefreshToken(ctx context.Context, id common.ID) (*entity.Connexion, error)
	CheckToken(ctx context.Context, id common.ID) (*entity.TokenCheck, error)
}

// Notifier surfaces action outcomes to the user
type Notifier interface {
	Success(ctx context.Context, message string)
	Failure(ctx context.Context, message string, err error)
}

// Policy handles platform connection display and management
type Policy struct {
	svc      PlateformeService
	notifier Notifier
	cache    *querycache.Query[[]entity.Connexion]
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a new platform policy
func New(svc PlateformeService, notifier Notifier, staleTime time.Duration, logger *slog.Logger, opts ...querycache.Option) *Policy {
	return &Policy{
		svc:      svc,
		notifier: notifier,
		cache:    querycache.New(CacheKey, staleTime, svc.Connections, opts...),
		now:      time.Now,
		logger:   logger,
	}
}

// Connections returns the cached connections of the current user
func (p *Policy) Connections(ctx context.Context) ([]entity.Connexion, error) {
	snap, err := p.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Data, nil
}

// Statuses derives the connection status of each named platform
func (p *Policy) Statuses(ctx context.Context, names []string) ([]entity.Status, error) {
	conns, err := p.Connections(ctx)
	if err != nil {
		return nil, err
	}

	now := p.now()
	out := make([]entity.Status, 0, len(names))
	for _, name := range names {
		out = append(out, entity.StatusOf(name, conns, now))
	}
	return out, nil
}

// RefreshToken renews a connection token then reloads the connections
func (p *Policy) RefreshToken(ctx context.Context, id common.ID) (*entity.Connexion, error) {
	conn, err := p.svc.RefreshToken(ctx, id)
	if err != nil {
		p.notifier.Failure(ctx, "Échec du renouvellement du jeton", err)
		return nil, err
	}
	p.refetch(ctx)
	p.notifier.Success(ctx, "Jeton renouvelé")
	return conn, nil
}

// Disconnect removes a connection then reloads the connections
func (p *Policy) Disconnect(ctx context.Context, id common.ID) error {
	if err := p.svc.Disconnect(ctx, id); err != nil {
		p.notifier.Failure(ctx, "Échec de la déconnexion", err)
		return err
	}
	p.refetch(ctx)
	p.notifier.Success(ctx, "Plateforme déconnectée")
	return nil
}

// UpdateMeta replaces connection settings then reloads the connections
func (p *Policy) UpdateMeta(ctx context.Context, id common.ID, meta json.RawMessage) (*entity.Connexion, error) {
	if !json.Valid(meta) {
		return nil, common.ErrInvalidJSON
	}
	conn, err := p.svc.UpdateMeta(ctx, id, meta)
	if err != nil {
		p.notifier.Failure(ctx, "Échec de la mise à jour de la plateforme", err)
		return nil, err
	}
	p.refetch(ctx)
	p.notifier.Success(ctx, "Plateforme mise à jour")
	return conn, nil
}

// CheckToken asks the backend to verify a connection token
func (p *Policy) CheckToken(ctx context.Context, id common.ID) (*entity.TokenCheck, error) {
	return p.svc.CheckToken(ctx, id)
}

// Refresh forces a reload of the connections
func (p *Policy) Refresh(ctx context.Context) error {
	_, err := p.cache.Refetch(ctx)
	return err
}

func (p *Policy) refetch(ctx context.Context) {
	if _, err := p.cache.Refetch(ctx); err != nil {
		p.cache.Invalidate()
		p.logger.Warn("refetching platform connections", "error", err)
	}
}
