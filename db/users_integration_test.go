// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestUserLifecycle(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	user, err := CreateUser(ctx, CreateUserInput{
		Email:       "  Amal@Example.com ",
		DisplayName: "Amal",
		Password:    "s3cret-password",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if user.Email != "amal@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}

	if user.PasswordHash == "s3cret-password" {
		t.Fatalf("password stored in plain text")
	}

	if _, err := CreateUser(ctx, CreateUserInput{Email: "amal@example.com", DisplayName: "Other", Password: "another-password"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	count, err := CountUsers(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected 1 user, got %d (%v)", count, err)
	}

	authed, err := AuthenticateUser(ctx, "AMAL@example.com", "s3cret-password")
	if err != nil {
		t.Fatalf("AuthenticateUser failed: %v", err)
	}

	if authed.ID != user.ID {
		t.Fatalf("authenticated wrong user")
	}

	if _, err := AuthenticateUser(ctx, "amal@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}

	if _, err := AuthenticateUser(ctx, "nobody@example.com", "s3cret-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	updated, err := SetUserPhone(ctx, user.ID, "+971501234567", true)
	if err != nil {
		t.Fatalf("SetUserPhone failed: %v", err)
	}

	if updated.Phone == nil || *updated.Phone != "+971501234567" || !updated.WhatsAppOptIn {
		t.Fatalf("unexpected phone state %+v", updated)
	}

	cleared, err := SetUserPhone(ctx, user.ID, " ", true)
	if err != nil {
		t.Fatalf("SetUserPhone clear failed: %v", err)
	}

	if cleared.Phone != nil || cleared.WhatsAppOptIn {
		t.Fatalf("expected cleared phone and opt-in, got %+v", cleared)
	}

	fetched, err := GetUserByID(ctx, user.ID.String())
	if err != nil || fetched.Email != user.Email {
		t.Fatalf("GetUserByID failed: %v", err)
	}

	if err := DeleteUser(ctx, user.ID.String()); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	if _, err := GetUserByID(ctx, user.ID.String()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := DeleteUser(ctx, user.ID.String()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	resetDatabase(t)

	tests := []struct {
		name  string
		input CreateUserInput
		want  error
	}{
		{"missing email", CreateUserInput{DisplayName: "A", Password: "long-enough"}, errEmailRequired},
		{"missing name", CreateUserInput{Email: "a@example.com", Password: "long-enough"}, errDisplayNameRequired},
		{"short password", CreateUserInput{Email: "a@example.com", DisplayName: "A", Password: "short"}, errPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CreateUser(testContext(), tt.input); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUserAdminFlag(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	user, err := CreateUser(ctx, CreateUserInput{Email: "nurse@example.com", DisplayName: "Nurse", Password: "long-enough"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if user.IsAdmin {
		t.Fatal("new users must not be admins")
	}

	if err := SetUserAdmin(ctx, user.ID.String(), true); err != nil {
		t.Fatalf("SetUserAdmin failed: %v", err)
	}

	admin, err := IsUserAdmin(ctx, user.ID)
	if err != nil || !admin {
		t.Fatalf("IsUserAdmin = %v, %v; want true", admin, err)
	}

	operator, err := CreateUser(ctx, CreateUserInput{Email: "ops@example.com", DisplayName: "Ops", Password: "long-enough", Admin: true})
	if err != nil || !operator.IsAdmin {
		t.Fatalf("expected admin at creation, got %+v (%v)", operator, err)
	}

	if err := SetUserAdmin(ctx, uuid.NewString(), true); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := IsUserAdmin(ctx, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
