package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ledgerline/payflow/internal/account/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("account.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAccountRequest) (domain.Account, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return domain.Account{}, domain.ErrInvalidSubject
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Account{}, domain.ErrInvalidEmail
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:        s.genID.Generate(),
		Subject:   subject,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	event := domain.AccountEvent{
		ID:        s.genID.Generate(),
		AccountID: account.ID,
		EventType: domain.EventTypeAccountCreated,
		Payload: datatypes.JSONMap{
			"account_id": account.ID.String(),
			"email":      account.Email,
		},
		CreatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &account); err != nil {
			return err
		}
		return s.repo.InsertEvent(ctx, tx, &event)
	})
	if err != nil {
		return domain.Account{}, err
	}

	return account, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Account, error) {
	if id == 0 {
		return domain.Account{}, domain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Account{}, err
	}
	if item == nil {
		return domain.Account{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) GetBySubject(ctx context.Context, subject string) (domain.Account, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return domain.Account{}, domain.ErrInvalidSubject
	}
	item, err := s.repo.FindBySubject(ctx, s.db, subject)
	if err != nil {
		return domain.Account{}, err
	}
	if item == nil {
		return domain.Account{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) AttachBillingIdentity(ctx context.Context, id snowflake.ID, billingIdentityID string) (bool, error) {
	if id == 0 {
		return false, domain.ErrInvalidID
	}
	billingIdentityID = strings.TrimSpace(billingIdentityID)
	if billingIdentityID == "" {
		return false, domain.ErrInvalidID
	}
	return s.repo.AttachBillingIdentity(ctx, s.db, id, billingIdentityID)
}
