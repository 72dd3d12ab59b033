package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"booking-insights/core/database"
	"booking-insights/core/logger"
	"booking-insights/core/utils"
	"booking-insights/modules/credential/entity"

	"github.com/google/uuid"
)

type CredentialRepositoryInterface interface {
	GetByUserAndProvider(ctx context.Context, userID uuid.UUID, providerID string) (*entity.Credential, error)
	UpdateTokens(ctx context.Context, cred *entity.Credential) error
	Create(ctx context.Context, cred *entity.Credential) error
}

// CredentialRepository stores credentials through sqlx. Token columns are
// sealed with the configured Sealer.
type CredentialRepository struct {
	DB     database.IDatabase
	sealer *utils.Sealer
	log    *logger.Logger
}

func NewCredentialRepository(db database.IDatabase, sealer *utils.Sealer, log *logger.Logger) *CredentialRepository {
	return &CredentialRepository{DB: db, sealer: sealer, log: logger.OrDefault(log)}
}

const credentialColumns = `id, user_id, provider_id, access_token, access_token_expires_at,
	refresh_token, refresh_token_expires_at, created_at, updated_at`

func (r *CredentialRepository) GetByUserAndProvider(ctx context.Context, userID uuid.UUID, providerID string) (*entity.Credential, error) {
	var cred entity.Credential
	query := r.DB.Rebind(`SELECT ` + credentialColumns + ` FROM credentials WHERE user_id = ? AND provider_id = ?`)
	err := r.DB.GetContext(ctx, &cred, query, userID, providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("CredentialRepository:GetByUserAndProvider:Error", "error", err, "user_id", userID, "provider_id", providerID)
		return nil, err
	}

	if err := r.open(&cred); err != nil {
		r.log.Error("CredentialRepository:GetByUserAndProvider:Unseal:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return &cred, nil
}

// UpdateTokens writes the token fields of an existing row. It never inserts and
// returns an error wrapping sql.ErrNoRows when nothing matched.
func (r *CredentialRepository) UpdateTokens(ctx context.Context, cred *entity.Credential) error {
	row, err := r.sealed(cred)
	if err != nil {
		return err
	}
	row.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE credentials SET
			access_token = :access_token,
			access_token_expires_at = :access_token_expires_at,
			refresh_token = :refresh_token,
			updated_at = :updated_at
		WHERE user_id = :user_id AND provider_id = :provider_id
	`
	res, err := r.DB.NamedExecContext(ctx, query, row)
	if err != nil {
		r.log.Error("CredentialRepository:UpdateTokens:Error", "error", err, "user_id", cred.UserID)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("credential %s/%s: %w", cred.UserID, cred.ProviderID, sql.ErrNoRows)
	}
	cred.UpdatedAt = row.UpdatedAt
	return nil
}

// Create inserts or replaces a credential. Used by the operator CLI to import
// tokens obtained elsewhere.
func (r *CredentialRepository) Create(ctx context.Context, cred *entity.Credential) error {
	if cred.ID == "" {
		cred.ID = utils.GenerateID()
	}
	row, err := r.sealed(cred)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	row.CreatedAt, row.UpdatedAt = now, now

	query := `
		INSERT INTO credentials (
			id, user_id, provider_id, access_token, access_token_expires_at,
			refresh_token, refresh_token_expires_at, created_at, updated_at
		)
		VALUES (
			:id, :user_id, :provider_id, :access_token, :access_token_expires_at,
			:refresh_token, :refresh_token_expires_at, :created_at, :updated_at
		)
		ON CONFLICT (user_id, provider_id)
		DO UPDATE SET
			access_token = EXCLUDED.access_token,
			access_token_expires_at = EXCLUDED.access_token_expires_at,
			refresh_token = EXCLUDED.refresh_token,
			refresh_token_expires_at = EXCLUDED.refresh_token_expires_at,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.DB.NamedExecContext(ctx, query, row); err != nil {
		r.log.Error("CredentialRepository:Create:Error", "error", err, "user_id", cred.UserID)
		return err
	}
	cred.CreatedAt, cred.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *CredentialRepository) sealed(cred *entity.Credential) (*entity.Credential, error) {
	row := *cred
	access, err := r.sealer.Seal(cred.AccessToken)
	if err != nil {
		return nil, err
	}
	row.AccessToken = access
	if cred.RefreshToken != nil {
		refresh, err := r.sealer.Seal(*cred.RefreshToken)
		if err != nil {
			return nil, err
		}
		row.RefreshToken = &refresh
	}
	row.AccessTokenExpiresAt = utcPtr(cred.AccessTokenExpiresAt)
	row.RefreshTokenExpiresAt = utcPtr(cred.RefreshTokenExpiresAt)
	return &row, nil
}

func (r *CredentialRepository) open(cred *entity.Credential) error {
	access, err := r.sealer.Open(cred.AccessToken)
	if err != nil {
		return err
	}
	cred.AccessToken = access
	if cred.RefreshToken != nil {
		refresh, err := r.sealer.Open(*cred.RefreshToken)
		if err != nil {
			return err
		}
		cred.RefreshToken = &refresh
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
