/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/json"
	"net/http"

	"github.com/flamego/flamego"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(c flamego.Context, status int, v any) {
	c.ResponseWriter().Header().Set("Content-Type", "application/json")
	c.ResponseWriter().WriteHeader(status)

	if err := json.NewEncoder(c.ResponseWriter()).Encode(v); err != nil {
		logger.Error("Error encoding JSON response", "path", c.Request().URL.Path, "error", err)
	}
}

func writeError(c flamego.Context, status int, message string) {
	writeJSON(c, status, errorResponse{Error: message})
}

// writeInternalError logs err and answers with a generic 500.
func writeInternalError(c flamego.Context, message string, err error) {
	logger.Error(message, "path", c.Request().URL.Path, "error", err)
	writeError(c, http.StatusInternalServerError, message)
}

func decodeJSON(c flamego.Context, dest any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(c.ResponseWriter(), c.Request().Body().ReadCloser(), maxJSONBody))
	decoder.DisallowUnknownFields()

	return decoder.Decode(dest)
}

const maxJSONBody = 64 << 10
