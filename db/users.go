/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	uniqueViolation   = "23505"
)

// CreateUserInput defines data for creating a user.
type CreateUserInput struct {
	ID          *uuid.UUID
	Email       string
	DisplayName string
	Password    string
	Admin       bool
}

const userColumns = `id, email, display_name, password_hash, phone, whatsapp_opt_in, is_admin, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.Phone,
		&user.WhatsAppOptIn,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &user, nil
}

// NormalizeEmail lower-cases and trims an email address for storage and
// lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CountUsers returns the number of users.
func CountUsers(ctx context.Context) (int, error) {
	if pool == nil {
		return 0, ErrDatabaseConnectionNotInitialized
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}

// CreateUser creates a user record with a bcrypt password hash.
func CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	email := NormalizeEmail(input.Email)
	if email == "" {
		return nil, errEmailRequired
	}

	if strings.TrimSpace(input.DisplayName) == "" {
		return nil, errDisplayNameRequired
	}

	if len(input.Password) < minPasswordLength {
		return nil, errPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (id, email, display_name, password_hash, is_admin)
		VALUES (COALESCE($1, gen_random_uuid()), $2, $3, $4, $5)
		RETURNING ` + userColumns

	user, err := scanUser(pool.QueryRow(ctx, query, input.ID, email, strings.TrimSpace(input.DisplayName), string(hash), input.Admin))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}

		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("Created user", "user_id", user.ID, "email", user.Email, "admin", user.IsAdmin)

	return user, nil
}

// GetUserByID returns a user by ID.
func GetUserByID(ctx context.Context, id string) (*User, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	user, err := scanUser(pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUserByEmail returns a user by email address.
func GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	user, err := scanUser(pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// AuthenticateUser checks an email and password pair.
func AuthenticateUser(ctx context.Context, email, password string) (*User, error) {
	user, err := GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// SetUserPhone updates the phone number used for WhatsApp notifications.
// An empty phone clears it and disables the opt-in.
func SetUserPhone(ctx context.Context, userID uuid.UUID, phone string, optIn bool) (*User, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var phoneValue *string
	if p := strings.TrimSpace(phone); p != "" {
		phoneValue = &p
	} else {
		optIn = false
	}

	query := `
		UPDATE users
		SET phone = $2, whatsapp_opt_in = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(pool.QueryRow(ctx, query, userID, phoneValue, optIn))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to update phone: %w", err)
	}

	return user, nil
}

// IsUserAdmin reports whether a user may operate server-wide settings such as
// the WhatsApp sender.
func IsUserAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	if pool == nil {
		return false, ErrDatabaseConnectionNotInitialized
	}

	var admin bool
	if err := pool.QueryRow(ctx, `SELECT is_admin FROM users WHERE id = $1`, userID).Scan(&admin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrUserNotFound
		}

		return false, fmt.Errorf("failed to check admin flag: %w", err)
	}

	return admin, nil
}

// SetUserAdmin grants or revokes the admin flag.
func SetUserAdmin(ctx context.Context, userID string, admin bool) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	command, err := pool.Exec(ctx, `UPDATE users SET is_admin = $2, updated_at = now() WHERE id = $1`, userID, admin)
	if err != nil {
		return fmt.Errorf("failed to update admin flag: %w", err)
	}

	if command.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// DeleteUser removes a user and, through cascades, their reports and tokens.
func DeleteUser(ctx context.Context, userID string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	command, err := pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if command.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}
