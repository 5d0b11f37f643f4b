package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lodge/infras/jwt"
	"lodge/internal/domains/auth/model/dto"
	"lodge/internal/domains/session"
	"lodge/shared/constant"
)

func TestRegisterRequest_ToUserModel(t *testing.T) {
	req := dto.RegisterRequest{Email: "Owner@Lodge.test"}

	user := req.ToUserModel("hashed")

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "owner@lodge.test", user.Email)
	assert.Equal(t, "hashed", user.Password)
	assert.Equal(t, constant.RoleSuperAdmin, user.Role)
	assert.Equal(t, constant.ContextSystem, user.CreatedBy)
	assert.True(t, user.IsAdmin())
}

func TestLoginResponse_FromTokenPair(t *testing.T) {
	var res dto.LoginResponse
	res.FromTokenPair(&jwt.TokenPair{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		ExpiresIn:    900,
	})

	assert.Equal(t, "access", res.AccessToken)
	assert.Equal(t, "refresh", res.RefreshToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int64(900), res.ExpiresIn)
}

func TestMeResponse_FromSession(t *testing.T) {
	tests := []struct {
		name    string
		session session.Session
		isAdmin bool
	}{
		{name: "admin", session: session.Session{UserID: "u1", Role: constant.RoleAdmin, Active: true}, isAdmin: true},
		{name: "staff", session: session.Session{UserID: "u2", Role: constant.RoleStaff, Active: true}},
		{name: "inactive", session: session.Session{UserID: "u3", Role: constant.RoleSuperAdmin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res dto.MeResponse
			res.FromSession(tt.session)

			assert.Equal(t, tt.session.UserID, res.UserID)
			assert.Equal(t, tt.session.Role, res.Role)
			assert.Equal(t, tt.isAdmin, res.IsAdmin)
		})
	}
}
