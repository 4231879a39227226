package gateway

import (
	"context"

	"github.com/wacrm/pkg/entities"
	"gorm.io/gorm"
)

type Repository interface {
	ListGateways(ctx context.Context) ([]entities.Gateway, error)
	FindGatewayByID(ctx context.Context, id uint) (entities.Gateway, error)
	CreateGateway(ctx context.Context, gw *entities.Gateway) error
	UpdateGateway(ctx context.Context, gw *entities.Gateway) error
	DeleteGateway(ctx context.Context, id uint) error
	ClearDefaultForType(ctx context.Context, gatewayType string) error
	UpdateConnection(ctx context.Context, id uint, fields map[string]any) error
	IncrementSent(ctx context.Context, id uint, n int) error
	IncrementReceived(ctx context.Context, id uint, n int) error
}

type repository struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) ListGateways(ctx context.Context) ([]entities.Gateway, error) {
	var gateways []entities.Gateway
	err := r.db.WithContext(ctx).Order("id").Find(&gateways).Error
	return gateways, err
}

func (r *repository) FindGatewayByID(ctx context.Context, id uint) (entities.Gateway, error) {
	var gw entities.Gateway
	err := r.db.WithContext(ctx).First(&gw, id).Error
	return gw, err
}

func (r *repository) CreateGateway(ctx context.Context, gw *entities.Gateway) error {
	return r.db.WithContext(ctx).Create(gw).Error
}

func (r *repository) UpdateGateway(ctx context.Context, gw *entities.Gateway) error {
	return r.db.WithContext(ctx).Save(gw).Error
}

func (r *repository) DeleteGateway(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entities.Gateway{}, id).Error
}

// ClearDefaultForType keeps at most one default gateway per routing type.
func (r *repository) ClearDefaultForType(ctx context.Context, gatewayType string) error {
	return r.db.WithContext(ctx).Model(&entities.Gateway{}).
		Where("type = ? AND is_default = ?", gatewayType, true).
		Update("is_default", false).Error
}

// UpdateConnection persists connection-state fields. A gateway deleted out
// from under a running connect simply matches no rows; that is not an error.
func (r *repository) UpdateConnection(ctx context.Context, id uint, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&entities.Gateway{}).Where("id = ?", id).Updates(fields).Error
}

func (r *repository) IncrementSent(ctx context.Context, id uint, n int) error {
	return r.db.WithContext(ctx).Model(&entities.Gateway{}).Where("id = ?", id).
		UpdateColumn("messages_sent", gorm.Expr("messages_sent + ?", n)).Error
}

func (r *repository) IncrementReceived(ctx context.Context, id uint, n int) error {
	return r.db.WithContext(ctx).Model(&entities.Gateway{}).Where("id = ?", id).
		UpdateColumn("messages_received", gorm.Expr("messages_received + ?", n)).Error
}
