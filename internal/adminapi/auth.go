// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package adminapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cardinalhq/settingsmanager/internal/adminconfig"
)

const keyInfoContextKey = "adminapi.key"

// extractAPIKey reads "Authorization: Bearer <key>" or "X-API-Key". It
// returns "" when neither header is present.
func extractAPIKey(c *gin.Context) (string, bool) {
	if auth := c.GetHeader("Authorization"); auth != "" {
		key, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || strings.TrimSpace(key) == "" {
			return "", false
		}
		return strings.TrimSpace(key), true
	}
	return strings.TrimSpace(c.GetHeader("X-API-Key")), true
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		route := c.FullPath()

		apiKey, ok := extractAPIKey(c)
		if !ok {
			slog.Warn("Admin API request with invalid authorization format", slog.String("route", route))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header must be 'Bearer <key>'"})
			return
		}

		valid, err := s.auth.ValidateAPIKey(ctx, apiKey)
		if err != nil {
			slog.Error("Admin API key validation error", slog.String("route", route), slog.Any("error", err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication error"})
			return
		}
		if !valid {
			if apiKey == "" {
				slog.Warn("Admin API request without API key", slog.String("route", route))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
				return
			}
			slog.Warn("Admin API request with invalid API key", slog.String("route", route))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		info, err := s.auth.GetAPIKeyInfo(ctx, apiKey)
		if err != nil {
			slog.Error("Admin API key lookup error", slog.String("route", route), slog.Any("error", err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication error"})
			return
		}

		slog.Debug("Admin API request authenticated",
			slog.String("route", route),
			slog.String("key_name", info.Name))
		c.Set(keyInfoContextKey, info)
		c.Next()
	}
}

func requireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get(keyInfoContextKey)
		info, ok := v.(*adminconfig.AdminAPIKey)
		if !ok || !info.HasScope(scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "API key lacks the " + scope + " scope"})
			return
		}
		c.Next()
	}
}
