package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/money"
	paymentDomain "github.com/oponmeta/service-checkout/internal/domain/payment"
)

// PaymentModel is the GORM persistence model for the payments table.
type PaymentModel struct {
	ID            uuid.UUID            `gorm:"type:uuid;primaryKey"`
	SessionID     string               `gorm:"type:varchar(128);not null;index"`
	Email         string               `gorm:"type:varchar(255)"`
	Amount        decimal.Decimal      `gorm:"type:numeric(14,2);not null"`
	Currency      string               `gorm:"type:varchar(3);not null"`
	Gateway       string               `gorm:"type:varchar(32);not null"`
	TransactionID string               `gorm:"type:varchar(255)"`
	Status        string               `gorm:"type:varchar(20);not null;default:'pending'"`
	Items         []paymentDomain.Item `gorm:"type:jsonb;serializer:json;not null"`
	CouponCodes   []string             `gorm:"type:jsonb;serializer:json"`
	FailureReason string               `gorm:"type:text"`
	Version       int64                `gorm:"not null;default:1"`
	CreatedAt     time.Time            `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time            `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (PaymentModel) TableName() string {
	return "payments"
}

// PaymentRepositoryImpl is the GORM-based implementation of PaymentRepository.
type PaymentRepositoryImpl struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new GORM-based payment repository.
func NewPaymentRepository(db *gorm.DB) *PaymentRepositoryImpl {
	return &PaymentRepositoryImpl{db: db}
}

// FindByID retrieves a payment by its unique ID.
func (r *PaymentRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Payment", id.String())
		}
		return nil, err
	}
	return toDomain(&model), nil
}

// Save persists a new payment aggregate.
func (r *PaymentRepositoryImpl) Save(ctx context.Context, payment *paymentDomain.Payment) error {
	return r.db.WithContext(ctx).Create(toModel(payment)).Error
}

// Update persists changes to an existing payment with optimistic locking.
func (r *PaymentRepositoryImpl) Update(ctx context.Context, payment *paymentDomain.Payment) error {
	model := toModel(payment)
	previousVersion := payment.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Select("*").Omit("id", "created_at").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("payment was modified by another transaction")
	}
	return nil
}

// toDomain maps a PaymentModel to the domain Payment aggregate.
func toDomain(model *PaymentModel) *paymentDomain.Payment {
	return paymentDomain.Reconstitute(
		model.ID,
		model.SessionID,
		model.Email,
		money.New(model.Amount, model.Currency),
		model.Gateway,
		model.TransactionID,
		paymentDomain.Status(model.Status),
		model.Items,
		model.CouponCodes,
		model.FailureReason,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

// toModel maps a domain Payment aggregate to a PaymentModel for persistence.
func toModel(p *paymentDomain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:            p.ID(),
		SessionID:     p.SessionID(),
		Email:         p.Email(),
		Amount:        p.Amount().Amount,
		Currency:      p.Amount().Currency,
		Gateway:       p.Gateway(),
		TransactionID: p.TransactionID(),
		Status:        string(p.Status()),
		Items:         p.Items(),
		CouponCodes:   p.CouponCodes(),
		FailureReason: p.FailureReason(),
		Version:       p.Version(),
		CreatedAt:     p.CreatedAt(),
		UpdatedAt:     p.UpdatedAt(),
	}
}
