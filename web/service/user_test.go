package service

import (
	"testing"

	"github.com/filedock/filedock/database/model"
	"github.com/filedock/filedock/util/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xlzd/gotp"
)

func TestCheckUserMigratesPlaintext(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&model.User{Username: "testuser", Password: "testpassword"}).Error)
	s := NewUserService(db)

	user, err := s.CheckUser("testuser", "wrong", "")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = s.CheckUser("testuser", "testpassword", "")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, model.RoleUser, user.Role)

	stored := &model.User{}
	require.NoError(t, db.Where("username = ?", "testuser").First(stored).Error)
	assert.NotEqual(t, "testpassword", stored.Password)
	assert.True(t, crypto.IsBcryptHash(stored.Password))

	user, err = s.CheckUser("testuser", "testpassword", "")
	require.NoError(t, err)
	assert.NotNil(t, user)
}

func TestCheckUserMigratesLegacyHash(t *testing.T) {
	const stored = "pbkdf2:sha256:1000$gXkE0aRz$6b8f80388774f81206d7cbba3f34a64c3d0c585bf92525d14922729b3f8b7512"
	db := newTestDB(t)
	require.NoError(t, db.Create(&model.User{Username: "olduser", Password: stored}).Error)
	s := NewUserService(db)

	user, err := s.CheckUser("olduser", stored, "")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = s.CheckUser("olduser", "secret", "")
	require.NoError(t, err)
	require.NotNil(t, user)

	row := &model.User{}
	require.NoError(t, db.Where("username = ?", "olduser").First(row).Error)
	assert.True(t, crypto.IsBcryptHash(row.Password))
	assert.True(t, crypto.CheckPasswordHash(row.Password, "secret"))
}

func TestCheckUserUnknownOrEmpty(t *testing.T) {
	s := NewUserService(newTestDB(t))

	user, err := s.CheckUser("nobody", "pw", "")
	assert.NoError(t, err)
	assert.Nil(t, user)

	user, err = s.CheckUser("", "", "")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestAddUser(t *testing.T) {
	s := NewUserService(newTestDB(t))

	user, err := s.AddUser(" alice ", "secret", "")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.True(t, crypto.CheckPasswordHash(user.Password, "secret"))

	_, err = s.AddUser("alice", "other", model.RoleAdmin)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = s.AddUser("bob", "", model.RoleUser)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = s.AddUser("bob", "pw", "root")
	assert.Equal(t, KindValidation, KindOf(err))

	got, err := s.GetUser(user.Id)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = s.GetUser(9999)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUpdatePasswordAndRole(t *testing.T) {
	s := NewUserService(newTestDB(t))
	_, err := s.AddUser("carol", "first", model.RoleUser)
	require.NoError(t, err)

	require.NoError(t, s.UpdatePassword("carol", "second"))
	user, err := s.CheckUser("carol", "first", "")
	require.NoError(t, err)
	assert.Nil(t, user)
	user, err = s.CheckUser("carol", "second", "")
	require.NoError(t, err)
	require.NotNil(t, user)

	require.NoError(t, s.UpdateRole("carol", model.RoleAdmin))
	user, err = s.GetUser(user.Id)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	assert.Equal(t, KindNotFound, KindOf(s.UpdatePassword("nobody", "x")))
	assert.Equal(t, KindValidation, KindOf(s.UpdateRole("carol", "owner")))
}

func TestTwoFactor(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db)
	_, err := s.AddUser("dave", "pw", model.RoleUser)
	require.NoError(t, err)

	uri, err := s.SetTwoFactor("dave", true)
	require.NoError(t, err)
	assert.Contains(t, uri, "otpauth://totp/")

	stored := &model.User{}
	require.NoError(t, db.Where("username = ?", "dave").First(stored).Error)
	require.NotEmpty(t, stored.TwoFactorToken)

	user, err := s.CheckUser("dave", "pw", "")
	require.NoError(t, err)
	assert.Nil(t, user)

	code := gotp.NewDefaultTOTP(stored.TwoFactorToken).Now()
	user, err = s.CheckUser("dave", "pw", code)
	require.NoError(t, err)
	assert.NotNil(t, user)

	uri, err = s.SetTwoFactor("dave", false)
	require.NoError(t, err)
	assert.Empty(t, uri)
	user, err = s.CheckUser("dave", "pw", "")
	require.NoError(t, err)
	assert.NotNil(t, user)
}
