package service

import (
	"checkout-builder/internal/apperr"
	"checkout-builder/internal/client"
	"checkout-builder/internal/dto"
	"checkout-builder/internal/model"
	"checkout-builder/internal/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type MerchantService interface {
	Register(ctx context.Context, email, password string) (*model.Merchant, string, error)
	Login(ctx context.Context, email, password string) (*model.Merchant, string, error)
	GetMerchant(ctx context.Context, id string) (*model.Merchant, error)
	GetStorefront(ctx context.Context, subdomain string) (*model.Merchant, error)
	Onboard(ctx context.Context, id, companyName, subdomain string) (*model.Merchant, error)
	SubdomainAvailable(ctx context.Context, id, subdomain string) (string, bool, error)
	Update(ctx context.Context, id string, req *dto.UpdateMerchantRequest) (*model.Merchant, error)
	VerifyChronopost(ctx context.Context, accountNumber, password string) error
}

type merchantServiceImpl struct {
	merchantRepo repository.MerchantRepository
	tokens       TokenService
	chronopost   client.ChronopostClient
	logger       *slog.Logger
}

func NewMerchantService(
	merchantRepo repository.MerchantRepository,
	tokens TokenService,
	chronopost client.ChronopostClient,
	logger *slog.Logger,
) MerchantService {
	return &merchantServiceImpl{
		merchantRepo: merchantRepo,
		tokens:       tokens,
		chronopost:   chronopost,
		logger:       logger,
	}
}

var errBadCredentials = apperr.UnauthorizedErr("Invalid email or password.")

func (s *merchantServiceImpl) Register(ctx context.Context, email, password string) (*model.Merchant, string, error) {
	email = normalizeEmail(email)

	if _, err := s.merchantRepo.FindByEmail(ctx, email); err == nil {
		return nil, "", apperr.ConflictErr("An account already exists for this email.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("find merchant by email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	merchant := &model.Merchant{
		ID:                  uuid.NewString(),
		Email:               email,
		PasswordHash:        string(hash),
		ThemeColorPrimary:   model.DefaultThemeColorPrimary,
		ThemeColorSecondary: model.DefaultThemeColorSecondary,
	}
	if err := s.merchantRepo.Create(ctx, merchant); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", apperr.ConflictErr("An account already exists for this email.")
		}
		return nil, "", fmt.Errorf("create merchant: %w", err)
	}

	token, err := s.tokens.Issue(merchant.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "merchant registered", "merchant_id", merchant.ID)
	return merchant, token, nil
}

func (s *merchantServiceImpl) Login(ctx context.Context, email, password string) (*model.Merchant, string, error) {
	merchant, err := s.merchantRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", errBadCredentials
		}
		return nil, "", fmt.Errorf("find merchant by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(merchant.PasswordHash), []byte(password)); err != nil {
		return nil, "", errBadCredentials
	}

	token, err := s.tokens.Issue(merchant.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	return merchant, token, nil
}

func (s *merchantServiceImpl) GetMerchant(ctx context.Context, id string) (*model.Merchant, error) {
	merchant, err := s.merchantRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundErr("Merchant not found.")
		}
		return nil, fmt.Errorf("get merchant: %w", err)
	}
	return merchant, nil
}

// GetStorefront resolves the onboarded merchant serving subdomain.
func (s *merchantServiceImpl) GetStorefront(ctx context.Context, subdomain string) (*model.Merchant, error) {
	sub := NormalizeSubdomain(subdomain)
	if sub == "" {
		return nil, apperr.NotFoundErr("Shop not found.")
	}

	merchant, err := s.merchantRepo.FindBySubdomain(ctx, sub)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundErr("Shop not found.")
		}
		return nil, fmt.Errorf("find merchant by subdomain: %w", err)
	}
	return merchant, nil
}

// Onboard names the shop, claims its subdomain and installs the default
// shipping methods.
func (s *merchantServiceImpl) Onboard(ctx context.Context, id, companyName, subdomain string) (*model.Merchant, error) {
	merchant, err := s.GetMerchant(ctx, id)
	if err != nil {
		return nil, err
	}
	if merchant.Onboarded() {
		return nil, apperr.ConflictErr("This shop is already set up.")
	}

	companyName = strings.TrimSpace(companyName)
	sub := NormalizeSubdomain(subdomain)

	fields := map[string]string{}
	if companyName == "" {
		fields["company_name"] = "This field is required."
	}
	if sub == "" {
		fields["subdomain"] = "Use letters and digits only."
	}
	if len(fields) > 0 {
		return nil, apperr.InvalidErr("Some fields are invalid.", fields)
	}

	taken, err := s.merchantRepo.SubdomainTaken(ctx, sub, merchant.ID)
	if err != nil {
		return nil, fmt.Errorf("check subdomain: %w", err)
	}
	if taken {
		return nil, apperr.ConflictErr("This subdomain is already taken.")
	}

	merchant.CompanyName = companyName
	merchant.Subdomain = &sub
	merchant.ShippingMethods = model.DefaultShippingMethods()

	if err := s.merchantRepo.Update(ctx, merchant); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.ConflictErr("This subdomain is already taken.")
		}
		return nil, fmt.Errorf("update merchant: %w", err)
	}

	s.logger.InfoContext(ctx, "merchant onboarded", "merchant_id", merchant.ID, "subdomain", sub)
	return merchant, nil
}

func (s *merchantServiceImpl) SubdomainAvailable(ctx context.Context, id, subdomain string) (string, bool, error) {
	sub := NormalizeSubdomain(subdomain)
	if sub == "" {
		return "", false, nil
	}

	taken, err := s.merchantRepo.SubdomainTaken(ctx, sub, id)
	if err != nil {
		return "", false, fmt.Errorf("check subdomain: %w", err)
	}
	return sub, !taken, nil
}

// Update applies a partial settings change.
func (s *merchantServiceImpl) Update(ctx context.Context, id string, req *dto.UpdateMerchantRequest) (*model.Merchant, error) {
	merchant, err := s.GetMerchant(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}

	if req.CompanyName != nil {
		name := strings.TrimSpace(*req.CompanyName)
		if name == "" && merchant.Onboarded() {
			fields["company_name"] = "This field is required."
		}
		merchant.CompanyName = name
	}
	if req.LogoURL != nil {
		merchant.LogoURL = strings.TrimSpace(*req.LogoURL)
	}
	if req.ThemeColorPrimary != nil {
		merchant.ThemeColorPrimary = *req.ThemeColorPrimary
	}
	if req.ThemeColorSecondary != nil {
		merchant.ThemeColorSecondary = *req.ThemeColorSecondary
	}
	if req.PaymentPublishableKey != nil {
		merchant.PaymentPublishableKey = strings.TrimSpace(*req.PaymentPublishableKey)
	}

	if req.ShippingMethods != nil {
		methods, methodErrs := shippingMethodsFromInput(*req.ShippingMethods)
		for k, v := range methodErrs {
			fields[k] = v
		}
		merchant.ShippingMethods = methods
	}

	if req.Chronopost != nil {
		cfg := model.ChronopostConfig{
			Enabled:       req.Chronopost.Enabled,
			AccountNumber: strings.TrimSpace(req.Chronopost.AccountNumber),
			Password:      req.Chronopost.Password,
		}
		if cfg.Enabled && (cfg.AccountNumber == "" || cfg.Password == "") {
			fields["chronopost.account_number"] = "Account number and password are required to enable Chronopost."
		}
		merchant.Chronopost = cfg
	}

	if req.MondialRelay != nil {
		cfg := model.MondialRelayConfig{
			Enabled:    req.MondialRelay.Enabled,
			Enseigne:   strings.TrimSpace(req.MondialRelay.Enseigne),
			PrivateKey: req.MondialRelay.PrivateKey,
		}
		if cfg.Enabled && cfg.Enseigne == "" {
			fields["mondial_relay.enseigne"] = "A brand code is required to enable Mondial Relay."
		}
		merchant.MondialRelay = cfg
	}

	if len(fields) > 0 {
		return nil, apperr.InvalidErr("Some fields are invalid.", fields)
	}

	if err := s.merchantRepo.Update(ctx, merchant); err != nil {
		return nil, fmt.Errorf("update merchant: %w", err)
	}
	return merchant, nil
}

func shippingMethodsFromInput(in []dto.ShippingMethodInput) ([]model.ShippingMethod, map[string]string) {
	fields := map[string]string{}
	seen := make(map[string]bool, len(in))
	methods := make([]model.ShippingMethod, 0, len(in))

	for i, m := range in {
		id := strings.TrimSpace(m.ID)
		if seen[id] {
			fields[fmt.Sprintf("shipping_methods[%d].id", i)] = "Duplicate shipping method id."
		}
		seen[id] = true

		if m.Price.IsNegative() {
			fields[fmt.Sprintf("shipping_methods[%d].price", i)] = "Must be at least 0."
		}

		methods = append(methods, model.ShippingMethod{
			ID:       id,
			Name:     strings.TrimSpace(m.Name),
			Price:    m.Price.Round(2),
			IsActive: m.IsActive,
			Position: i,
		})
	}
	return methods, fields
}

func (s *merchantServiceImpl) VerifyChronopost(ctx context.Context, accountNumber, password string) error {
	err := s.chronopost.VerifyAccount(ctx, strings.TrimSpace(accountNumber), password)
	if err != nil {
		if errors.Is(err, client.ErrInvalidCredentials) {
			return apperr.InvalidErr("Invalid Chronopost credentials.", nil)
		}
		return fmt.Errorf("verify chronopost account: %w", err)
	}
	return nil
}

// NormalizeSubdomain lower-cases s and keeps ASCII letters and digits only.
func NormalizeSubdomain(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SuggestSubdomain derives a subdomain from a company name.
func SuggestSubdomain(companyName string) string {
	return NormalizeSubdomain(companyName)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
