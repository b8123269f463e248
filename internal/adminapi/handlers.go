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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cardinalhq/settingsmanager/settings"
)

type recordResponse struct {
	Key      string          `json:"key"`
	TenantID string          `json:"tenant_id"`
	Fallback bool            `json:"fallback,omitempty"`
	Value    json.RawMessage `json:"value"`
}

type featureResponse struct {
	Key      string `json:"key"`
	TenantID string `json:"tenant_id"`
	Enabled  bool   `json:"enabled"`
}

type listResponse struct {
	TenantID string           `json:"tenant_id"`
	Records  []recordResponse `json:"records"`
}

// statusFor maps resolver errors onto HTTP status codes.
func statusFor(err error) int {
	var decodeErr *settings.DecodeError
	var encodeErr *settings.EncodeError
	switch {
	case errors.Is(err, settings.ErrMissingGlobalDefault):
		return http.StatusNotFound
	case errors.Is(err, settings.ErrNilTenant):
		return http.StatusBadRequest
	case errors.As(err, &encodeErr):
		return http.StatusBadRequest
	case errors.As(err, &decodeErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, settings.ErrDeleteUnsupported), errors.Is(err, settings.ErrListUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, settings.ErrCipherNotConfigured):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func tenantParam(c *gin.Context, value string) (uuid.UUID, bool) {
	tenant, err := settings.ParseTenant(value)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid tenant: " + err.Error()})
		return uuid.Nil, false
	}
	return tenant, true
}

func (s *Server) getRecord(c *gin.Context) {
	key := c.Param("key")
	tenant, ok := tenantParam(c, c.Param("tenant"))
	if !ok {
		return
	}

	raw, found, err := s.resolver.GetRaw(c.Request.Context(), key, tenant)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, recordResponse{
		Key:      key,
		TenantID: tenant.String(),
		Value:    json.RawMessage(raw),
	})
}

func (s *Server) putRecord(c *gin.Context) {
	key := c.Param("key")
	tenant, ok := tenantParam(c, c.Param("tenant"))
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.resolver.PutRaw(c.Request.Context(), key, tenant, string(body)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) deleteRecord(c *gin.Context) {
	key := c.Param("key")
	tenant, ok := tenantParam(c, c.Param("tenant"))
	if !ok {
		return
	}

	if err := s.resolver.Delete(c.Request.Context(), key, tenant); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) resolveRecord(c *gin.Context) {
	key := c.Param("key")
	tenant, ok := tenantParam(c, c.DefaultQuery("tenant", "global"))
	if !ok {
		return
	}

	res, err := s.resolver.ResolveRaw(c.Request.Context(), key, tenant)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, recordResponse{
		Key:      key,
		TenantID: res.Tenant.String(),
		Fallback: res.Fallback() && !settings.IsGlobal(tenant),
		Value:    json.RawMessage(res.Payload),
	})
}

func (s *Server) getFeature(c *gin.Context) {
	key := c.Param("key")
	tenant, ok := tenantParam(c, c.Param("tenant"))
	if !ok {
		return
	}

	enabled, err := s.resolver.FeatureEnabled(c.Request.Context(), key, tenant)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, featureResponse{
		Key:      key,
		TenantID: tenant.String(),
		Enabled:  enabled,
	})
}

func (s *Server) listRecords(c *gin.Context) {
	tenant, ok := tenantParam(c, c.Param("tenant"))
	if !ok {
		return
	}

	records, err := s.resolver.List(c.Request.Context(), tenant)
	if err != nil {
		abortWithError(c, err)
		return
	}
	resp := listResponse{
		TenantID: tenant.String(),
		Records:  make([]recordResponse, 0, len(records)),
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, recordResponse{
			Key:      rec.Key,
			TenantID: rec.Tenant.String(),
			Value:    json.RawMessage(rec.Value),
		})
	}
	c.JSON(http.StatusOK, resp)
}
