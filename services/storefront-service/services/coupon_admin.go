package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/clients"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
)

// CouponAdmin manages the coupon catalog for administrator sessions
type CouponAdmin struct {
	client    clients.CouponAdminClient
	session   *Session
	validator *inputValidator
	log       *zap.Logger
}

func NewCouponAdmin(client clients.CouponAdminClient, session *Session, log *zap.Logger) *CouponAdmin {
	if log == nil {
		log = zap.NewNop()
	}
	return &CouponAdmin{client: client, session: session, validator: newInputValidator(), log: log}
}

func (a *CouponAdmin) List(ctx context.Context) ([]models.Coupon, error) {
	if err := a.authorize(); err != nil {
		return nil, err
	}
	coupons, err := a.client.ListCoupons(ctx)
	if err != nil {
		return nil, a.session.Guard(ctx, err)
	}
	return coupons, nil
}

func (a *CouponAdmin) Create(ctx context.Context, req models.CouponRequest) error {
	req, err := a.prepare(req)
	if err != nil {
		return err
	}
	if err := a.client.CreateCoupon(ctx, req); err != nil {
		a.log.Warn("Failed to create coupon", zap.String("code", req.Code), zap.Error(err))
		return a.session.Guard(ctx, err)
	}
	a.log.Info("Coupon created", zap.String("code", req.Code), zap.String("type", string(req.Type)))
	return nil
}

func (a *CouponAdmin) Update(ctx context.Context, code string, req models.CouponRequest) error {
	if strings.TrimSpace(code) == "" {
		return apperrors.FieldValidation("code", "code is required")
	}
	req, err := a.prepare(req)
	if err != nil {
		return err
	}
	if err := a.client.UpdateCoupon(ctx, code, req); err != nil {
		a.log.Warn("Failed to update coupon", zap.String("code", code), zap.Error(err))
		return a.session.Guard(ctx, err)
	}
	return nil
}

func (a *CouponAdmin) Delete(ctx context.Context, code string) error {
	if err := a.authorize(); err != nil {
		return err
	}
	if strings.TrimSpace(code) == "" {
		return apperrors.FieldValidation("code", "code is required")
	}
	if err := a.client.DeleteCoupon(ctx, code); err != nil {
		a.log.Warn("Failed to delete coupon", zap.String("code", code), zap.Error(err))
		return a.session.Guard(ctx, err)
	}
	return nil
}

func (a *CouponAdmin) prepare(req models.CouponRequest) (models.CouponRequest, error) {
	if err := a.authorize(); err != nil {
		return req, err
	}
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := a.validator.Struct(req); err != nil {
		return req, err
	}
	if req.Value.IsNegative() {
		return req, apperrors.FieldValidation("value", "value cannot be negative")
	}
	if req.Type == models.CouponTypePercentage && req.Value.GreaterThan(decimal.NewFromInt(100)) {
		return req, apperrors.FieldValidation("value", "Percentage discount cannot exceed 100")
	}
	return req, nil
}

func (a *CouponAdmin) authorize() error {
	if a.session == nil || !a.session.IsAdmin() {
		return apperrors.New(apperrors.KindValidation, http.StatusForbidden, "Admin access required", nil)
	}
	return nil
}
