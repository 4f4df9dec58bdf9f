package viewings

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"rental-app/internal/domain/apartments"
	domviewings "rental-app/internal/domain/viewings"
	viewingstore "rental-app/internal/viewings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateViewingRequest books a viewing slot for an apartment. The request
// starts PENDING; it only becomes CONFIRMED once the landlord responds or
// the gating payment completes.
func CreateViewingRequest(store *viewingstore.Store, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetUint("user_id")
		if tenantID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
			return
		}

		var body struct {
			ApartmentID       uint      `json:"apartment_id"`
			RequestedDateTime time.Time `json:"requested_date_time"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.ApartmentID == 0 || body.RequestedDateTime.IsZero() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid viewing request"})
			return
		}

		var apartment apartments.Apartment
		if err := db.First(&apartment, body.ApartmentID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Apartment not found"})
			return
		}

		vr := domviewings.ViewingRequest{
			ApartmentID:       body.ApartmentID,
			TenantID:          tenantID,
			Status:            domviewings.StatusPending,
			RequestedDateTime: body.RequestedDateTime,
		}
		if err := store.Create(c.Request.Context(), &vr); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create viewing request"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"viewing_request": vr,
			"reference":       fmt.Sprintf("VR-%d", vr.ID),
			"viewing_fee":     apartment.ViewingFee,
		})
	}
}

func ListMyViewingRequests(store *viewingstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetUint("user_id")
		if tenantID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
			return
		}

		requests, err := store.ListByTenant(c.Request.Context(), tenantID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load viewing requests"})
			return
		}

		c.JSON(http.StatusOK, requests)
	}
}

// RespondToViewingRequest lets a landlord confirm or decline a PENDING
// request. Uses the same guarded transition as the payment cascade, so a
// request that already moved on is reported as a conflict.
func RespondToViewingRequest(store *viewingstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		landlordID := c.GetUint("user_id")
		if landlordID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
			return
		}

		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid viewing request id"})
			return
		}

		var body struct {
			Action string `json:"action"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
			return
		}

		now := time.Now()
		actor := fmt.Sprintf("user:%d", landlordID)

		var applied bool
		switch body.Action {
		case "confirm":
			applied, err = store.TransitionStatus(c.Request.Context(), uint(id),
				domviewings.StatusPending, domviewings.StatusConfirmed,
				map[string]interface{}{"confirmed_date_time": now, "responded_at": now},
				"Confirmed by landlord", actor)
		case "decline":
			applied, err = store.TransitionStatus(c.Request.Context(), uint(id),
				domviewings.StatusPending, domviewings.StatusDeclined,
				map[string]interface{}{"responded_at": now},
				"Declined by landlord", actor)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Action must be confirm or decline"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update viewing request"})
			return
		}
		if !applied {
			if _, getErr := store.GetByID(c.Request.Context(), uint(id)); errors.Is(getErr, viewingstore.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Viewing request not found"})
				return
			}
			c.JSON(http.StatusConflict, gin.H{"error": "Viewing request is no longer pending"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "updated"})
	}
}
