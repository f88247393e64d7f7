package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	catalogdomain "github.com/smallbiznis/duebook/internal/catalog/domain"
	"github.com/smallbiznis/duebook/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  catalogdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  catalogdomain.Repository
}

func NewService(p Params) catalogdomain.CatalogService {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) CreateClient(ctx context.Context, req catalogdomain.CreateClientRequest) (catalogdomain.Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return catalogdomain.Client{}, catalogdomain.ErrInvalidName
	}

	now := time.Now().UTC()
	client := catalogdomain.Client{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     req.Email,
		Phone:     req.Phone,
		Notes:     req.Notes,
		IsActive:  true,
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertClient(ctx, s.db, &client); err != nil {
		return catalogdomain.Client{}, err
	}
	s.log.Info("client created",
		zap.String("client_id", client.ID.String()),
		zap.String("actor", req.Actor),
	)
	return client, nil
}

func (s *Service) UpdateClient(ctx context.Context, req catalogdomain.UpdateClientRequest) (catalogdomain.Client, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return catalogdomain.Client{}, err
	}

	client, err := s.repo.FindClientByID(ctx, s.db, id)
	if err != nil {
		return catalogdomain.Client{}, err
	}
	if client == nil {
		return catalogdomain.Client{}, catalogdomain.ErrClientNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return catalogdomain.Client{}, catalogdomain.ErrInvalidName
		}
		client.Name = name
	}
	if req.Email != nil {
		client.Email = req.Email
	}
	if req.Phone != nil {
		client.Phone = req.Phone
	}
	if req.Notes != nil {
		client.Notes = req.Notes
	}
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}
	if req.Metadata != nil {
		client.Metadata = req.Metadata
	}
	client.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateClient(ctx, s.db, client); err != nil {
		return catalogdomain.Client{}, err
	}
	return *client, nil
}

// DeleteClient refuses to remove a client that still has unpaid payments; the
// destructive step never opens a transaction in that case.
func (s *Service) DeleteClient(ctx context.Context, rawID string, actor string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	client, err := s.repo.FindClientByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if client == nil {
		return catalogdomain.ErrClientNotFound
	}

	open, err := s.repo.CountOpenLedgerEntries(ctx, s.db, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return catalogdomain.ErrClientHasOpenLedger
	}

	if err := s.repo.DeleteClient(ctx, s.db, id); err != nil {
		return err
	}
	s.log.Info("client deleted", zap.String("client_id", rawID), zap.String("actor", actor))
	return nil
}

func (s *Service) GetClient(ctx context.Context, rawID string) (catalogdomain.Client, error) {
	id, err := parseID(rawID)
	if err != nil {
		return catalogdomain.Client{}, err
	}
	client, err := s.repo.FindClientByID(ctx, s.db, id)
	if err != nil {
		return catalogdomain.Client{}, err
	}
	if client == nil {
		return catalogdomain.Client{}, catalogdomain.ErrClientNotFound
	}
	return *client, nil
}

func (s *Service) ListClients(ctx context.Context) ([]catalogdomain.Client, error) {
	return s.repo.ListClients(ctx, s.db)
}

func (s *Service) CreateService(ctx context.Context, req catalogdomain.CreateServiceRequest) (catalogdomain.Service, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return catalogdomain.Service{}, catalogdomain.ErrInvalidName
	}
	if req.BasePrice < 0 {
		return catalogdomain.Service{}, catalogdomain.ErrInvalidBasePrice
	}

	now := time.Now().UTC()
	svc := catalogdomain.Service{
		ID:        s.genID.Generate(),
		Code:      slug.Make(name),
		Name:      name,
		BasePrice: req.BasePrice,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertService(ctx, s.db, &svc); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return catalogdomain.Service{}, catalogdomain.ErrDuplicateServiceCode
		}
		return catalogdomain.Service{}, err
	}
	return svc, nil
}

func (s *Service) UpdateService(ctx context.Context, req catalogdomain.UpdateServiceRequest) (catalogdomain.Service, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return catalogdomain.Service{}, err
	}

	svc, err := s.repo.FindServiceByID(ctx, s.db, id)
	if err != nil {
		return catalogdomain.Service{}, err
	}
	if svc == nil {
		return catalogdomain.Service{}, catalogdomain.ErrServiceNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return catalogdomain.Service{}, catalogdomain.ErrInvalidName
		}
		svc.Name = name
	}
	if req.BasePrice != nil {
		if *req.BasePrice < 0 {
			return catalogdomain.Service{}, catalogdomain.ErrInvalidBasePrice
		}
		svc.BasePrice = *req.BasePrice
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}
	svc.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateService(ctx, s.db, svc); err != nil {
		return catalogdomain.Service{}, err
	}
	return *svc, nil
}

func (s *Service) GetService(ctx context.Context, rawID string) (catalogdomain.Service, error) {
	id, err := parseID(rawID)
	if err != nil {
		return catalogdomain.Service{}, err
	}
	svc, err := s.repo.FindServiceByID(ctx, s.db, id)
	if err != nil {
		return catalogdomain.Service{}, err
	}
	if svc == nil {
		return catalogdomain.Service{}, catalogdomain.ErrServiceNotFound
	}
	return *svc, nil
}

func (s *Service) ListServices(ctx context.Context) ([]catalogdomain.Service, error) {
	return s.repo.ListServices(ctx, s.db)
}

func parseID(raw string) (snowflake.ID, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || parsed == 0 {
		return 0, catalogdomain.ErrInvalidID
	}
	return snowflake.ID(parsed), nil
}
