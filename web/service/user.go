package service

import (
	"crypto/subtle"
	"strings"

	"github.com/filedock/filedock/config"
	"github.com/filedock/filedock/database"
	"github.com/filedock/filedock/database/model"
	"github.com/filedock/filedock/logger"
	"github.com/filedock/filedock/util/crypto"

	"github.com/xlzd/gotp"
	"gorm.io/gorm"
)

// UserService is the credential store.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) findByUsername(username string) (*model.User, error) {
	user := &model.User{}
	err := s.db.Model(model.User{}).
		Where("username = ?", username).
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil, newError(KindNotFound, err, "user.notFound", "Username=="+username)
	} else if err != nil {
		return nil, newError(KindInternal, err, "user.lookupFailed")
	}
	return user, nil
}

// CheckUser returns the user when the credentials are valid and nil when they
// are not. Werkzeug pbkdf2/scrypt hashes and plaintext rows are legacy: if
// they match, they are replaced by a bcrypt hash during this call. A legacy
// hash never matches its own literal text.
// The error is only set for storage failures.
func (s *UserService) CheckUser(username, password, twoFactorCode string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, nil
	}
	user, err := s.findByUsername(username)
	if KindOf(err) == KindNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	switch {
	case crypto.IsBcryptHash(user.Password):
		if !crypto.CheckPasswordHash(user.Password, password) {
			return nil, nil
		}
	case crypto.IsLegacyHash(user.Password):
		if !crypto.CheckLegacyHash(user.Password, password) {
			return nil, nil
		}
		if err := s.setPassword(user, password); err != nil {
			return nil, err
		}
		logger.Infof("migrated legacy password hash of %s to bcrypt", user.Username)
	case subtle.ConstantTimeCompare([]byte(user.Password), []byte(password)) == 1:
		if err := s.setPassword(user, password); err != nil {
			return nil, err
		}
		logger.Infof("migrated plaintext password of %s to bcrypt", user.Username)
	default:
		return nil, nil
	}

	if user.TwoFactorToken != "" && gotp.NewDefaultTOTP(user.TwoFactorToken).Now() != twoFactorCode {
		return nil, nil
	}
	return user, nil
}

func (s *UserService) setPassword(user *model.User, password string) error {
	hashed, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return newError(KindInternal, err, "user.updateFailed")
	}
	if err := s.db.Model(user).Update("password", hashed).Error; err != nil {
		return newError(KindInternal, err, "user.updateFailed")
	}
	user.Password = hashed
	return nil
}

func (s *UserService) GetUser(id int) (*model.User, error) {
	user := &model.User{}
	err := s.db.First(user, id).Error
	if database.IsNotFound(err) {
		return nil, newError(KindNotFound, err, "user.notFound")
	} else if err != nil {
		return nil, newError(KindInternal, err, "user.lookupFailed")
	}
	return user, nil
}

// AddUser creates a user with a bcrypt hashed password. An empty role means "user".
func (s *UserService) AddUser(username, password string, role model.Role) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, newError(KindValidation, nil, "user.credentialsRequired")
	}
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return nil, newError(KindValidation, nil, "user.invalidRole", "Role=="+string(role))
	}
	if _, err := s.findByUsername(username); err == nil {
		return nil, newError(KindConflict, nil, "user.exists", "Username=="+username)
	} else if KindOf(err) != KindNotFound {
		return nil, err
	}

	hashed, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return nil, newError(KindInternal, err, "user.updateFailed")
	}
	user := &model.User{Username: username, Password: hashed, Role: role}
	if err := s.db.Create(user).Error; err != nil {
		return nil, newError(KindInternal, err, "user.updateFailed")
	}
	return user, nil
}

func (s *UserService) UpdatePassword(username, password string) error {
	if password == "" {
		return newError(KindValidation, nil, "user.credentialsRequired")
	}
	user, err := s.findByUsername(username)
	if err != nil {
		return err
	}
	return s.setPassword(user, password)
}

func (s *UserService) UpdateRole(username string, role model.Role) error {
	if !role.Valid() {
		return newError(KindValidation, nil, "user.invalidRole", "Role=="+string(role))
	}
	user, err := s.findByUsername(username)
	if err != nil {
		return err
	}
	if err := s.db.Model(user).Update("role", role).Error; err != nil {
		return newError(KindInternal, err, "user.updateFailed")
	}
	return nil
}

// SetTwoFactor enables TOTP for username and returns the otpauth provisioning
// URI, or disables it and returns "".
func (s *UserService) SetTwoFactor(username string, enable bool) (string, error) {
	user, err := s.findByUsername(username)
	if err != nil {
		return "", err
	}
	secret := ""
	if enable {
		secret = gotp.RandomSecret(16)
	}
	if err := s.db.Model(user).Update("two_factor_token", secret).Error; err != nil {
		return "", newError(KindInternal, err, "user.updateFailed")
	}
	if !enable {
		return "", nil
	}
	return gotp.NewDefaultTOTP(secret).ProvisioningUri(user.Username, config.GetName()), nil
}
