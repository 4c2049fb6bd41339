package handlers

import (
	"net/http"
	"time"

	"logit-backend/internal/models"
	"logit-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetPendingApprovalCargos возвращает грузы на проверке. Только для менеджеров.
func GetPendingApprovalCargos(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cargos []models.Cargo
		if err := cargoQuery(db).
			Where("status = ?", models.CargoStatusPendingApproval).
			Order("created_at").Find(&cargos).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить грузы"})
			return
		}
		c.JSON(http.StatusOK, cargos)
	}
}

// GetApprovedCargos возвращает одобренные менеджерами грузы
func GetApprovedCargos(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cargos []models.Cargo
		if err := cargoQuery(db).
			Where("status = ?", models.CargoStatusManagerApproved).
			Order("approval_date DESC").Find(&cargos).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить грузы"})
			return
		}
		c.JSON(http.StatusOK, cargos)
	}
}

type approvalRequest struct {
	Notes string `json:"notes"`
}

// ApproveCargo одобряет груз, проставляя проверяющего и дату.
// Только для менеджеров.
func ApproveCargo(db *gorm.DB, notifier *services.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		managerID := c.GetString("telegram_id")

		var cargo models.Cargo
		if err := db.First(&cargo, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Груз не найден"})
			return
		}

		if cargo.Status != models.CargoStatusPendingApproval {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Груз не ожидает проверки"})
			return
		}

		var req approvalRequest
		_ = c.ShouldBindJSON(&req)

		now := time.Now()
		cargo.Status = models.CargoStatusManagerApproved
		cargo.ApprovalDate = &now
		cargo.ApprovalNotes = req.Notes
		if managerID != "" {
			cargo.ApprovedByID = &managerID
		}

		if err := db.Save(&cargo).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось одобрить груз"})
			return
		}

		recordStatusChange(db, &cargo, cargo.Status, managerID, "Одобрен менеджером")
		notifier.CargoApproved(&cargo)

		c.JSON(http.StatusOK, cargo)
	}
}

// RejectCargo отклоняет груз с указанием причины. Только для менеджеров.
func RejectCargo(db *gorm.DB, notifier *services.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		managerID := c.GetString("telegram_id")

		var cargo models.Cargo
		if err := db.First(&cargo, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Груз не найден"})
			return
		}

		if cargo.Status != models.CargoStatusPendingApproval {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Груз не ожидает проверки"})
			return
		}

		var req approvalRequest
		_ = c.ShouldBindJSON(&req)

		// Проверяющий и дата фиксируются и при отказе
		cargo.Status = models.CargoStatusRejected
		cargo.ApprovalNotes = req.Notes
		if managerID != "" {
			cargo.ApprovedByID = &managerID
		}

		if err := db.Save(&cargo).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось отклонить груз"})
			return
		}

		recordStatusChange(db, &cargo, cargo.Status, managerID, req.Notes)
		notifier.CargoRejected(&cargo, req.Notes)

		c.JSON(http.StatusOK, cargo)
	}
}
