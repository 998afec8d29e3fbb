package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/Kariqs/eden-store-api/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	var logs bytes.Buffer
	svc := NewUserService(store, WithLogger(utils.NewLoggerTo(&logs, "eden-test", "info", "json")))

	user, err := svc.Register(ctx, RegisterInput{
		Email:     "Jane@Example.com",
		Password:  "s3cret-pass",
		FirstName: " Jane ",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.EmailAddress())
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.Equal(t, "Jane Doe", user.FullName())
	assert.True(t, user.PasswordMatches("s3cret-pass"))
	assert.Contains(t, logs.String(), "User registered")

	_, err = svc.Register(ctx, RegisterInput{Email: "jane@example.com", Password: "another-pass"})
	assert.True(t, models.IsConflict(err))

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"bad email", RegisterInput{Email: "not-an-email", Password: "long-enough"}},
		{"short password", RegisterInput{Email: "a@example.com", Password: "short"}},
		{"no contact", RegisterInput{Password: "long-enough"}},
		{"unknown role", RegisterInput{Email: "b@example.com", Password: "long-enough", Role: "ROOT"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			assert.True(t, models.IsValidation(err), "unexpected error: %v", err)
		})
	}
}

func TestDeactivate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	svc := NewUserService(store)

	user, err := svc.Register(ctx, RegisterInput{Phone: "+254700000000", Password: "long-enough"})
	require.NoError(t, err)

	off, err := svc.Deactivate(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	again, err := svc.Deactivate(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, again.IsActive)

	loaded, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsActive)

	_, err = svc.Deactivate(ctx, uuid.New())
	assert.True(t, models.IsNotFound(err))
}
