// Package identity resolves a request's declared account channel and
// credentials to a user record, or to a typed failure. It owns sign-in,
// refresh, recovery, linking, sign-out and the verification-code lifecycle.
package identity

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/example/bazaar/internal/apierr"
	"github.com/example/bazaar/internal/config"
	"github.com/example/bazaar/internal/models"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Resolver is the single authority on who a request belongs to.
type Resolver struct {
	db     *gorm.DB
	cfg    *config.Config
	google *GoogleVerifier
	tokens *TokenService
}

func NewResolver(db *gorm.DB, cfg *config.Config) *Resolver {
	return &Resolver{
		db:     db,
		cfg:    cfg,
		google: NewGoogleVerifier(cfg),
		tokens: NewTokenService(db, cfg),
	}
}

// IssueSession signs a fresh session token for the user.
func (r *Resolver) IssueSession(user *models.User) (*Session, error) {
	return r.tokens.Issue(user)
}

// Current authenticates a request for protected endpoints: google requests
// by re-verifying the ID token, phone/guest requests by their session token.
func (r *Resolver) Current(c *fiber.Ctx) (*models.User, *apierr.Error) {
	channel, ok := ParseChannel(c)
	if !ok {
		return nil, apierr.New(apierr.MissingOrInvalidFields)
	}

	var user *models.User
	switch channel {
	case Google:
		payload, err := r.google.Verify(BearerToken(c))
		if err != nil {
			return nil, apierr.New(apierr.InvalidAuthToken).WithException(err.Error())
		}
		var found models.User
		if err := r.db.Where("email = ?", payload.Email).First(&found).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierr.New(apierr.AccountNotFound)
			}
			return nil, apierr.New(apierr.InternalServerError).WithException(err.Error())
		}
		user = &found
	case Phone, Guest:
		var aerr *apierr.Error
		user, aerr = r.tokens.Authenticate(BearerToken(c))
		if aerr != nil {
			return nil, aerr
		}
	}

	if !user.HasRole(models.RoleCustomer) {
		return nil, apierr.New(apierr.MissingRequiredPermissions)
	}
	return user, nil
}

// SignInGoogle verifies the ID token and resolves or creates the matching
// account. Soft-deleted accounts are rejected with a redacted snapshot.
func (r *Resolver) SignInGoogle(idToken string) (*models.User, *apierr.Error) {
	payload, err := r.google.Verify(idToken)
	if err != nil {
		return nil, apierr.New(apierr.InvalidAuthToken).WithException(err.Error())
	}

	user, aerr := r.findByEmail(payload.Email)
	if aerr != nil {
		return nil, aerr
	}

	if user == nil {
		user = &models.User{
			Name:     &payload.Name,
			Email:    &payload.Email,
			Photo:    &payload.Picture,
			GoogleID: &payload.Sub,
			Role:     models.RoleCustomer,
		}
		if err := r.db.Create(user).Error; err != nil {
			return nil, apierr.New(apierr.InternalServerError).WithException(err.Error())
		}
	}

	if !user.HasRole(models.RoleCustomer) {
		return nil, apierr.New(apierr.MissingRequiredPermissions)
	}
	return user, nil
}

// SignInPhone consumes the verification code, then resolves or creates the
// account and issues a session.
func (r *Resolver) SignInPhone(phone, code string) (*models.User, *Session, *apierr.Error) {
	if aerr := r.ConsumeVerification(phone, code); aerr != nil {
		return nil, nil, aerr
	}

	user, aerr := r.EnsurePhoneAccount(phone)
	if aerr != nil {
		return nil, nil, aerr
	}

	session, err := r.tokens.Issue(user)
	if err != nil {
		return nil, nil, apierr.New(apierr.InternalServerError).WithException(err.Error())
	}
	return user, session, nil
}

// EnsurePhoneAccount resolves or creates the account owning a phone number.
// Soft-deleted matches are rejected with the recoverable snapshot; this is
// shared by phone sign-in and OTP issuance.
func (r *Resolver) EnsurePhoneAccount(phone string) (*models.User, *apierr.Error) {
	user, aerr := r.findByPhone(phone)
	if aerr != nil {
		return nil, aerr
	}

	if user == nil {
		name := defaultUserName
		user = &models.User{
			Name:  &name,
			Phone: &phone,
			Role:  models.RoleCustomer,
		}
		if err := r.db.Create(user).Error; err != nil {
			return nil, apierr.New(apierr.InternalServerError).WithException(err.Error())
		}
	}

	if !user.HasRole(models.RoleCustomer) {
		return nil, apierr.New(apierr.MissingRequiredPermissions)
	}
	return user, nil
}

// SignInGuest creates a fresh account bound only to the client-supplied
// guest token. The token must be unused across live and soft-deleted rows;
// a unique index on users.guest backs the check under concurrency.
func (r *Resolver) SignInGuest(guest int64) (*models.User, *Session, *apierr.Error) {
	var count int64
	if err := r.db.Unscoped().Model(&models.User{}).Where("guest = ?", guest).Count(&count).Error; err != nil {
		return nil, nil, apierr.New(apierr.InternalServerError).WithException(err.Error())
	}
	if count > 0 {
		return nil, nil, apierr.New(apierr.AccountAlreadyExists)
	}

	name := defaultUserName
	user := &models.User{
		Name:  &name,
		Guest: &guest,
		Role:  models.RoleCustomer,
	}
	if err := r.db.Create(user).Error; err != nil {
		// Unique index hit by a concurrent request with the same token.
		return nil, nil, apierr.New(apierr.AccountAlreadyExists).WithException(err.Error())
	}

	session, err := r.tokens.Issue(user)
	if err != nil {
		return nil, nil, apierr.New(apierr.InternalServerError).WithException(err.Error())
	}
	return user, session, nil
}

// RefreshPhone re-issues a session when the account id and phone pair match
// an existing user.
func (r *Resolver) RefreshPhone(accountID uint, phone string) (*models.User, *Session, *apierr.Error) {
	var user models.User
	err := r.db.Where("id = ? AND phone = ?", accountID, phone).First(&user).Error
	return r.refresh(&user, err)
}

// RefreshGuest re-issues a session for a guest account.
func (r *Resolver) RefreshGuest(accountID uint, guest int64) (*models.User, *Session, *apierr.Error) {
	var user models.User
	err := r.db.Where("id = ? AND guest = ?", accountID, guest).First(&user).Error
	return r.refresh(&user, err)
}

func (r *Resolver) refresh(user *models.User, err error) (*models.User, *Session, *apierr.Error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apierr.New(apierr.AccountNotFound)
		}
		return nil, nil, apierr.New(apierr.InternalServerError).WithException(err.Error())
	}
	if !user.HasRole(models.RoleCustomer) {
		return nil, nil, apierr.New(apierr.MissingRequiredPermissions)
	}
	session, issueErr := r.tokens.Issue(user)
	if issueErr != nil {
		return nil, nil, apierr.New(apierr.InternalServerError).WithException(issueErr.Error())
	}
	return user, session, nil
}

// RecoverGoogle restores a soft-deleted account matched by the verified
// token's email. Exactly one recovery succeeds; a live account yields
// ACCOUNT_ALREADY_EXISTS.
func (r *Resolver) RecoverGoogle(idToken string) (*models.User, *apierr.Error) {
	payload, err := r.google.Verify(idToken)
	if err != nil {
		return nil, apierr.New(apierr.InvalidAuthToken).WithException(err.Error())
	}

	var user models.User
	if err := r.db.Unscoped().Where("email = ?", payload.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.New(apierr.AccountNotFound)
		}
		return nil, apierr.New(apierr.InternalServerError).WithException(err.Error())
	}
	return r.restore(&user)
}

// RecoverPhone restores a soft-deleted account matched by phone and issues
// a fresh session.
func (r *Resolver) RecoverPhone(phone string) (*models.User, *Session, *apierr.Error) {
	var user models.User
	if err := r.db.Unscoped().Where("phone = ?", phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apierr.New(apierr.AccountNotFound)
		}
		return nil, nil, apierr.New(apierr.InternalServerError).WithException(err.Error())
	}

	restored, aerr := r.restore(&user)
	if aerr != nil {
		return nil, nil, aerr
	}

	session, err := r.tokens.Issue(restored)
	if err != nil {
		return nil, nil, apierr.New(apierr.InternalServerError).WithException(err.Error())
	}
	return restored, session, nil
}

func (r *Resolver) restore(user *models.User) (*models.User, *apierr.Error) {
	if !user.HasRole(models.RoleCustomer) {
		return nil, apierr.New(apierr.MissingRequiredPermissions)
	}
	if !user.Trashed() {
		return nil, apierr.New(apierr.AccountAlreadyExists)
	}

	err := r.db.Unscoped().Model(user).Updates(map[string]any{
		"deleted_at": nil,
		"status":     models.StatusActive,
	}).Error
	if err != nil {
		return nil, apierr.New(apierr.InternalServerError).WithException(err.Error())
	}
	user.DeletedAt = gorm.DeletedAt{}
	user.Status = models.StatusActive
	return user, nil
}

// SignOut invalidates the current credential. A guest account with no
// linked email or phone is deactivated and soft-deleted; the sweep later
// removes the row for good.
func (r *Resolver) SignOut(c *fiber.Ctx, user *models.User) *apierr.Error {
	channel, ok := ParseChannel(c)
	if !ok {
		return apierr.New(apierr.MissingOrInvalidFields)
	}

	switch channel {
	case Google:
		if err := r.google.Revoke(BearerToken(c)); err != nil {
			slog.Warn("google token revocation failed", "error", err)
		}
	case Guest:
		if user.Email == nil && user.Phone == nil {
			updates := map[string]any{"status": models.StatusInactive}
			if err := r.db.Model(user).Updates(updates).Error; err != nil {
				return apierr.New(apierr.InternalServerError).WithException(err.Error())
			}
			if err := r.db.Delete(user).Error; err != nil {
				return apierr.New(apierr.InternalServerError).WithException(err.Error())
			}
		}
		fallthrough
	case Phone:
		if err := r.tokens.Invalidate(BearerToken(c)); err != nil {
			return apierr.New(apierr.InvalidAuthToken).WithException(err.Error())
		}
	}
	return nil
}

// LinkPhone merges a verified phone number onto the authenticated account.
func (r *Resolver) LinkPhone(user *models.User, phone, code string) *apierr.Error {
	if aerr := r.ConsumeVerification(phone, code); aerr != nil {
		return aerr
	}

	var count int64
	if err := r.db.Model(&models.User{}).Where("phone = ?", phone).Count(&count).Error; err != nil {
		return apierr.New(apierr.InternalServerError).WithException(err.Error())
	}
	if count > 0 {
		return apierr.New(apierr.AccountAlreadyExists)
	}

	if err := r.db.Model(user).Update("phone", phone).Error; err != nil {
		return apierr.New(apierr.InternalServerError).WithException(err.Error())
	}
	user.Phone = &phone
	return nil
}

// LinkGoogle merges a verified Google identity onto the authenticated
// account, adopting its name, email and photo.
func (r *Resolver) LinkGoogle(user *models.User, idToken string) *apierr.Error {
	payload, err := r.google.Verify(idToken)
	if err != nil {
		return apierr.New(apierr.InvalidAuthToken).WithException(err.Error())
	}

	var count int64
	if err := r.db.Model(&models.User{}).Where("email = ?", payload.Email).Count(&count).Error; err != nil {
		return apierr.New(apierr.InternalServerError).WithException(err.Error())
	}
	if count > 0 {
		return apierr.New(apierr.AccountAlreadyExists)
	}

	updates := map[string]any{
		"name":   payload.Name,
		"email":  payload.Email,
		"photo":  payload.Picture,
		"google": payload.Sub,
	}
	if err := r.db.Model(user).Updates(updates).Error; err != nil {
		return apierr.New(apierr.InternalServerError).WithException(err.Error())
	}
	user.Name = &payload.Name
	user.Email = &payload.Email
	user.Photo = &payload.Picture
	user.GoogleID = &payload.Sub
	return nil
}

// GooglePayloadFor re-verifies the request's ID token; used by handlers
// that need the payload after Current has already authenticated.
func (r *Resolver) GooglePayloadFor(c *fiber.Ctx) (*GooglePayload, *apierr.Error) {
	payload, err := r.google.Verify(BearerToken(c))
	if err != nil {
		return nil, apierr.New(apierr.InvalidAuthToken).WithException(err.Error())
	}
	return payload, nil
}

const defaultUserName = "User"

// codeDigits is the OTP length; codes are zero-padded.
const codeDigits = 4

// IssueVerification creates a fresh ACTIVE verification code for the phone
// and returns its cleartext exactly once, for SMS dispatch.
func (r *Resolver) IssueVerification(phone string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%0*d", codeDigits, n.Int64())

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	verification := models.VerificationCode{
		Phone:    phone,
		CodeHash: string(hash),
		Status:   models.StatusActive,
	}
	if err := r.db.Create(&verification).Error; err != nil {
		return "", err
	}
	return code, nil
}

// ConsumeVerification checks the code against the newest ACTIVE row for the
// phone and retires it. The ACTIVE→INACTIVE transition is a single
// conditional update, so a code can be consumed at most once even under
// concurrent requests. The row is deleted right after.
func (r *Resolver) ConsumeVerification(phone, code string) *apierr.Error {
	// Clients send the code as a JSON integer, which drops leading zeros.
	if len(code) > 0 && len(code) < codeDigits {
		code = fmt.Sprintf("%0*s", codeDigits, code)
	}

	var verification models.VerificationCode
	err := r.db.Where("phone = ? AND status = ?", phone, models.StatusActive).
		Order("created_at DESC").
		First(&verification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.New(apierr.AuthenticationFailed)
		}
		return apierr.New(apierr.InternalServerError).WithException(err.Error())
	}

	if bcrypt.CompareHashAndPassword([]byte(verification.CodeHash), []byte(code)) != nil {
		return apierr.New(apierr.AuthenticationFailed)
	}

	result := r.db.Model(&models.VerificationCode{}).
		Where("id = ? AND status = ?", verification.ID, models.StatusActive).
		Update("status", models.StatusInactive)
	if result.Error != nil {
		return apierr.New(apierr.InternalServerError).WithException(result.Error.Error())
	}
	if result.RowsAffected == 0 {
		// Lost the race: another request consumed it first.
		return apierr.New(apierr.AuthenticationFailed)
	}

	if err := r.db.Delete(&models.VerificationCode{}, verification.ID).Error; err != nil {
		slog.Warn("failed to delete consumed verification code", "error", err, "id", verification.ID)
	}
	return nil
}

// findByEmail looks a user up including soft-deleted rows; a trashed match
// is surfaced as ACCOUNT_WAS_DELETED with the recoverable snapshot.
func (r *Resolver) findByEmail(email string) (*models.User, *apierr.Error) {
	var user models.User
	err := r.db.Unscoped().Where("email = ?", email).First(&user).Error
	return trashedCheck(&user, err)
}

func (r *Resolver) findByPhone(phone string) (*models.User, *apierr.Error) {
	var user models.User
	err := r.db.Unscoped().Where("phone = ?", phone).First(&user).Error
	return trashedCheck(&user, err)
}

func trashedCheck(user *models.User, err error) (*models.User, *apierr.Error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apierr.New(apierr.InternalServerError).WithException(err.Error())
	}
	if user.Trashed() {
		return nil, apierr.New(apierr.AccountWasDeleted).WithExtra(map[string]any{
			"user": user.Snapshot(),
		})
	}
	return user, nil
}
