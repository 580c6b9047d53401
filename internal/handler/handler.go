package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/barber-api/internal/model"
)

// RoleGuard builds middleware admitting callers ranked at or above min.
type RoleGuard interface {
	RequireRole(min model.Role) gin.HandlerFunc
}

// ShopHandler registers routes under /shops/:shop_id. The group is already authenticated
// and scoped to the caller's shop.
type ShopHandler interface {
	RegisterRoutes(rg *gin.RouterGroup, roles RoleGuard)
}
