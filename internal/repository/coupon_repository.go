package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oponmeta/service-checkout/internal/domain"
	"github.com/oponmeta/service-checkout/internal/domain/cart"
	couponDomain "github.com/oponmeta/service-checkout/internal/domain/coupon"
)

// CouponModel is the GORM model for the coupons table.
type CouponModel struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Code        string           `gorm:"type:varchar(50);uniqueIndex;not null"`
	Kind        string           `gorm:"type:varchar(20);not null"`
	Value       decimal.Decimal  `gorm:"type:numeric(14,2);not null"`
	Currency    string           `gorm:"type:varchar(3)"`
	MinPurchase *decimal.Decimal `gorm:"type:numeric(14,2)"`
	MaxDiscount *decimal.Decimal `gorm:"type:numeric(14,2)"`
	UsageLimit  int              `gorm:"not null"`
	UsedCount   int              `gorm:"not null;default:0"`
	ValidFrom   time.Time        `gorm:"type:timestamptz;not null"`
	ValidUntil  time.Time        `gorm:"type:timestamptz;not null"`
	Active      bool             `gorm:"not null;default:true"`
	CreatedAt   time.Time        `gorm:"type:timestamptz;not null"`
	UpdatedAt   time.Time        `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (CouponModel) TableName() string { return "coupons" }

// CouponProductModel restricts a coupon to a course.
type CouponProductModel struct {
	CouponID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID string    `gorm:"type:varchar(64);primaryKey"`
}

// TableName sets the table name.
func (CouponProductModel) TableName() string { return "coupon_applicable_products" }

// CouponUsageModel is the GORM model for the coupon_usages table.
type CouponUsageModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CouponID  uuid.UUID `gorm:"type:uuid;not null;index"`
	SessionID string    `gorm:"type:varchar(128);not null"`
	PaymentID uuid.UUID `gorm:"type:uuid;not null"`
	UsedAt    time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (CouponUsageModel) TableName() string { return "coupon_usages" }

// GormCouponRepository implements coupon.Repository using GORM.
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GormCouponRepository.
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// Save persists a new coupon and its product restrictions.
func (r *GormCouponRepository) Save(ctx context.Context, c *couponDomain.Coupon) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := toCouponModel(c)
		if err := tx.Create(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.NewConflictError("coupon " + c.Code() + " already exists")
			}
			return err
		}
		return saveCouponProducts(tx, c)
	})
}

// Update rewrites a coupon and replaces its product restrictions. used_count
// is owned by IncrementUsage and ReleaseUsage and is never written here.
func (r *GormCouponRepository) Update(ctx context.Context, c *couponDomain.Coupon) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := toCouponModel(c)
		result := tx.Model(&CouponModel{}).
			Where("id = ?", model.ID).
			Select("*").Omit("id", "created_at", "used_count").
			Updates(&model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.NewNotFoundError("Coupon", c.Code())
		}
		if err := tx.Where("coupon_id = ?", c.ID()).Delete(&CouponProductModel{}).Error; err != nil {
			return err
		}
		return saveCouponProducts(tx, c)
	})
}

// FindByCode returns a coupon by its code, ignoring case.
func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*couponDomain.Coupon, error) {
	code = couponDomain.NormalizeCode(code)
	var model CouponModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Coupon", code)
		}
		return nil, err
	}
	products, err := r.productsFor(ctx, model.ID)
	if err != nil {
		return nil, err
	}
	return toCouponDomain(&model, products[model.ID]), nil
}

// FindActive returns coupons usable at now.
func (r *GormCouponRepository) FindActive(ctx context.Context, now time.Time) ([]*couponDomain.Coupon, error) {
	var models []CouponModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("valid_from <= ? AND valid_until > ?", now, now).
		Where("used_count < usage_limit").
		Order("code").
		Find(&models).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	products, err := r.productsFor(ctx, ids...)
	if err != nil {
		return nil, err
	}

	coupons := make([]*couponDomain.Coupon, len(models))
	for i := range models {
		coupons[i] = toCouponDomain(&models[i], products[models[i].ID])
	}
	return coupons, nil
}

// IncrementUsage bumps used_count while it is below usage_limit.
func (r *GormCouponRepository) IncrementUsage(ctx context.Context, couponID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&CouponModel{}).
		Where("id = ? AND used_count < usage_limit", couponID).
		Updates(map[string]any{
			"used_count": gorm.Expr("used_count + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&CouponModel{}).Where("id = ?", couponID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.NewNotFoundError("Coupon", couponID.String())
		}
		return domain.NewConflictError("coupon usage limit reached")
	}
	return nil
}

// SaveUsage persists a coupon usage record.
func (r *GormCouponRepository) SaveUsage(ctx context.Context, usage *couponDomain.Usage) error {
	model := CouponUsageModel{
		ID:        usage.ID,
		CouponID:  usage.CouponID,
		SessionID: usage.SessionID,
		PaymentID: usage.PaymentID,
		UsedAt:    usage.UsedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// ReleaseUsage deletes the usage row for paymentID and gives the use back.
func (r *GormCouponRepository) ReleaseUsage(ctx context.Context, couponID, paymentID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("coupon_id = ? AND payment_id = ?", couponID, paymentID).Delete(&CouponUsageModel{})
		if result.Error != nil {
			return result.Error
		}
		return tx.Model(&CouponModel{}).
			Where("id = ? AND used_count > 0", couponID).
			Updates(map[string]any{
				"used_count": gorm.Expr("used_count - 1"),
				"updated_at": time.Now().UTC(),
			}).Error
	})
}

func (r *GormCouponRepository) productsFor(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID][]string, error) {
	out := make(map[uuid.UUID][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []CouponProductModel
	if err := r.db.WithContext(ctx).Where("coupon_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CouponID] = append(out[row.CouponID], row.ProductID)
	}
	return out, nil
}

func saveCouponProducts(tx *gorm.DB, c *couponDomain.Coupon) error {
	ids := c.ApplicableProductIDs()
	if len(ids) == 0 {
		return nil
	}
	rows := make([]CouponProductModel, len(ids))
	for i, id := range ids {
		rows[i] = CouponProductModel{CouponID: c.ID(), ProductID: id}
	}
	return tx.Create(&rows).Error
}

func toCouponModel(c *couponDomain.Coupon) CouponModel {
	m := CouponModel{
		ID:         c.ID(),
		Code:       c.Code(),
		Kind:       string(c.Kind()),
		Value:      c.Value(),
		Currency:   c.Currency(),
		UsageLimit: c.UsageLimit(),
		UsedCount:  c.UsedCount(),
		ValidFrom:  c.ValidFrom(),
		ValidUntil: c.ValidUntil(),
		Active:     c.Active(),
		CreatedAt:  c.CreatedAt(),
		UpdatedAt:  c.UpdatedAt(),
	}
	if mp := c.MinPurchase(); mp != nil {
		m.MinPurchase = &mp.Amount
	}
	if md := c.MaxDiscount(); md != nil {
		m.MaxDiscount = &md.Amount
	}
	return m
}

func toCouponDomain(m *CouponModel, products []string) *couponDomain.Coupon {
	return couponDomain.Reconstruct(
		m.ID, m.Code, cart.CouponKind(m.Kind),
		m.Value, m.Currency,
		m.MinPurchase, m.MaxDiscount,
		m.UsageLimit, m.UsedCount,
		m.ValidFrom.UTC(), m.ValidUntil.UTC(),
		products,
		m.Active,
		m.CreatedAt, m.UpdatedAt,
	)
}
