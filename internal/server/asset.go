package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	assetdomain "github.com/leadstack/crm/internal/asset/domain"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type createAssetRequest struct {
	Tag           string   `json:"tag"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	SerialNumber  string   `json:"serial_number"`
	PurchaseDate  string   `json:"purchase_date"`
	PurchasePrice *float64 `json:"purchase_price"`
	VendorID      string   `json:"vendor_id"`
}

func (s *Server) CreateAsset(c *gin.Context) {
	var req createAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	purchaseDate, err := parseOptionalTime(req.PurchaseDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("purchase_date", "invalid_purchase_date", "invalid purchase date"))
		return
	}

	resp, err := s.assetSvc.Create(c.Request.Context(), assetdomain.CreateAssetRequest{
		Tag:           strings.TrimSpace(req.Tag),
		Name:          strings.TrimSpace(req.Name),
		Category:      strings.TrimSpace(req.Category),
		SerialNumber:  strings.TrimSpace(req.SerialNumber),
		PurchaseDate:  purchaseDate,
		PurchasePrice: req.PurchasePrice,
		VendorID:      strings.TrimSpace(req.VendorID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, "asset created", resp)
}

func (s *Server) ListAssets(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Category    string `form:"category"`
		EmployeeID  string `form:"employee_id"`
		TrashedOnly bool   `form:"trashed_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.assetSvc.List(c.Request.Context(), assetdomain.ListAssetRequest{
		Pagination:  query.Pagination,
		Category:    strings.TrimSpace(query.Category),
		EmployeeID:  strings.TrimSpace(query.EmployeeID),
		TrashedOnly: query.TrashedOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "assets", resp)
}

func (s *Server) GetAssetByID(c *gin.Context) {
	resp, err := s.assetSvc.GetByID(c.Request.Context(), assetdomain.GetAssetRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "asset", resp)
}

type updateAssetRequest struct {
	Name          *string  `json:"name"`
	Category      *string  `json:"category"`
	SerialNumber  *string  `json:"serial_number"`
	PurchaseDate  *string  `json:"purchase_date"`
	PurchasePrice *float64 `json:"purchase_price"`
	VendorID      *string  `json:"vendor_id"`
}

func (s *Server) UpdateAsset(c *gin.Context) {
	var req updateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var purchaseDate *time.Time
	if req.PurchaseDate != nil {
		parsed, err := parseOptionalTime(*req.PurchaseDate, false)
		if err != nil {
			AbortWithError(c, newValidationError("purchase_date", "invalid_purchase_date", "invalid purchase date"))
			return
		}
		purchaseDate = parsed
	}

	resp, err := s.assetSvc.Update(c.Request.Context(), assetdomain.UpdateAssetRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		Name:          req.Name,
		Category:      req.Category,
		SerialNumber:  req.SerialNumber,
		PurchaseDate:  purchaseDate,
		PurchasePrice: req.PurchasePrice,
		VendorID:      req.VendorID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "asset updated", resp)
}

type assignAssetRequest struct {
	EmployeeID string `json:"employee_id"`
}

func (s *Server) AssignAsset(c *gin.Context) {
	var req assignAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.assetSvc.Assign(c.Request.Context(), assetdomain.AssignAssetRequest{
		ID:         strings.TrimSpace(c.Param("id")),
		EmployeeID: strings.TrimSpace(req.EmployeeID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "asset assigned", resp)
}

func (s *Server) UnassignAsset(c *gin.Context) {
	resp, err := s.assetSvc.Unassign(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "asset unassigned", resp)
}

func (s *Server) TrashAsset(c *gin.Context) {
	if err := s.assetSvc.Trash(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "asset trashed", nil)
}

func (s *Server) RestoreAsset(c *gin.Context) {
	if err := s.assetSvc.Restore(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "asset restored", nil)
}

func (s *Server) PurgeAsset(c *gin.Context) {
	if err := s.assetSvc.Purge(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "asset purged", nil)
}

func isAssetValidationError(err error) bool {
	switch err {
	case assetdomain.ErrInvalidOrganization,
		assetdomain.ErrInvalidID,
		assetdomain.ErrInvalidTag,
		assetdomain.ErrInvalidName,
		assetdomain.ErrInvalidEmployee,
		assetdomain.ErrInvalidVendor:
		return true
	default:
		return false
	}
}
