package service

import (
	"context"
	"testing"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newUserService(users ...*domain.User) (*UserService, *mockUserRepository, *mockUploader) {
	repo := newMockUserRepository(users...)
	uploader := &mockUploader{}
	return NewUserService(repo, plainHasher{}, mockTokenIssuer{}, uploader, zap.NewNop()), repo, uploader
}

func validRegistration() UserInput {
	return UserInput{
		FName:    "John",
		LName:    "Doe",
		Email:    " John.Doe@Example.com ",
		Phone:    "9123456780",
		Password: "secret123",
		Address: &domain.Address{
			Shipping: domain.AddressLine{Street: "MG Road", City: "Delhi", Pincode: "110001"},
			Billing:  domain.AddressLine{Street: "MG Road", City: "Delhi", Pincode: "110001"},
		},
		Image: testImage("john.png"),
	}
}

func TestRegister(t *testing.T) {
	svc, repo, uploader := newUserService()

	user, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.Equal(t, "john.doe@example.com", user.Email)
	assert.Equal(t, "hashed:secret123", user.Password)
	assert.Contains(t, user.ProfileImage, "john.png")
	assert.Contains(t, repo.users, user.ID)
	assert.Len(t, uploader.files, 1)
}

func TestRegister_Validation(t *testing.T) {
	existing := newTestUser()

	tests := []struct {
		name   string
		modify func(in *UserInput)
	}{
		{"missing fname", func(in *UserInput) { in.FName = "" }},
		{"bad email", func(in *UserInput) { in.Email = "john@" }},
		{"bad phone", func(in *UserInput) { in.Phone = "12345" }},
		{"short password", func(in *UserInput) { in.Password = "short" }},
		{"long password", func(in *UserInput) { in.Password = "waytoolongpassword" }},
		{"missing address", func(in *UserInput) { in.Address = nil }},
		{"incomplete billing", func(in *UserInput) { in.Address.Billing.City = "" }},
		{"missing image", func(in *UserInput) { in.Image = nil }},
		{"email taken", func(in *UserInput) { in.Email = existing.Email }},
		{"phone taken", func(in *UserInput) { in.Phone = existing.Phone }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, uploader := newUserService(existing)
			in := validRegistration()
			tt.modify(&in)

			_, err := svc.Register(context.Background(), in)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Len(t, repo.users, 1)
			assert.Empty(t, uploader.files)
		})
	}
}

func TestLogin(t *testing.T) {
	user := newTestUser()
	svc, _, _ := newUserService(user)

	result, err := svc.Login(context.Background(), LoginInput{Email: "JANE@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), result.UserID)
	assert.Equal(t, "token-"+user.ID.Hex(), result.Token)
}

func TestLogin_Errors(t *testing.T) {
	svc, _, _ := newUserService(newTestUser())

	tests := []struct {
		name    string
		input   LoginInput
		wantErr error
	}{
		{"missing password", LoginInput{Email: "jane@example.com"}, ErrValidation},
		{"bad email", LoginInput{Email: "jane", Password: "password123"}, ErrValidation},
		{"wrong password", LoginInput{Email: "jane@example.com", Password: "password999"}, ErrUnauthorized},
		{"unknown email", LoginInput{Email: "nobody@example.com", Password: "password123"}, ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetProfile(t *testing.T) {
	user := newTestUser()
	svc, _, _ := newUserService(user)

	got, err := svc.GetProfile(context.Background(), user.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = svc.GetProfile(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	user := newTestUser()
	svc, _, uploader := newUserService(user)

	updated, err := svc.UpdateProfile(context.Background(), user.ID.Hex(), UserInput{
		FName:    "Janet",
		Email:    user.Email,
		Password: "newsecret1",
		Address: &domain.Address{
			Billing: domain.AddressLine{City: "Mumbai"},
		},
		Image: testImage("janet.png"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Janet", updated.FName)
	assert.Equal(t, "hashed:newsecret1", updated.Password)
	assert.Equal(t, "Mumbai", updated.Address.Billing.City)
	assert.Equal(t, "MG Road", updated.Address.Billing.Street)
	assert.Equal(t, "Delhi", updated.Address.Shipping.City)
	assert.Equal(t, []string{"janet.png"}, uploader.files)
}

func TestUpdateProfile_Errors(t *testing.T) {
	user := newTestUser()
	other := newTestUser()
	other.Email, other.Phone = "other@example.com", "9000000001"
	svc, _, _ := newUserService(user, other)

	tests := []struct {
		name    string
		userID  string
		input   UserInput
		wantErr error
	}{
		{"nothing to update", user.ID.Hex(), UserInput{}, ErrValidation},
		{"email taken", user.ID.Hex(), UserInput{Email: other.Email}, ErrValidation},
		{"phone taken", user.ID.Hex(), UserInput{Phone: other.Phone}, ErrValidation},
		{"bad password", user.ID.Hex(), UserInput{Password: "tiny"}, ErrValidation},
		{"blank name", user.ID.Hex(), UserInput{FName: "   "}, ErrValidation},
		{"unknown user", primitive.NewObjectID().Hex(), UserInput{FName: "X"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(context.Background(), tt.userID, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
