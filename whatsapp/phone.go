/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package whatsapp

import (
	"regexp"

	"go.mau.fi/whatsmeow/types"
)

var nonDigitRegex = regexp.MustCompile(`[^\d]`)

// E.164 allows at most 15 digits; anything under 7 is not a real subscriber.
const (
	minPhoneDigits = 7
	maxPhoneDigits = 15
)

// NormalizePhone removes all non-digit characters from a phone number.
func NormalizePhone(phone string) string {
	return nonDigitRegex.ReplaceAllString(phone, "")
}

// ValidPhone reports whether phone normalizes to a plausible international
// number.
func ValidPhone(phone string) bool {
	n := NormalizePhone(phone)

	return len(n) >= minPhoneDigits && len(n) <= maxPhoneDigits
}

// PhoneToJID converts a phone number with country code into a user JID.
func PhoneToJID(phone string) (types.JID, error) {
	if !ValidPhone(phone) {
		return types.EmptyJID, ErrInvalidPhone
	}

	return types.NewJID(NormalizePhone(phone), types.DefaultUserServer), nil
}
