package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"logit-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func assignmentTestRouter(db *gorm.DB) *gin.Engine {
	notifier := testNotifier(db)
	r := gin.New()
	r.Use(testIdentity())
	r.GET("/cargos/:id/matching-carriers", GetMatchingCarriers(db))
	r.POST("/cargos/:id/assign", AssignCarrier(db, notifier))
	r.POST("/cargos/:id/accept", AcceptAssignment(db, notifier))
	r.GET("/carrier-requests/:id/matching-cargos", GetMatchingCargos(db))
	return r
}

func seedPendingCargo(t *testing.T, db *gorm.DB, title, from, to string, days int) models.Cargo {
	t.Helper()
	cargo := models.Cargo{
		Title:          title,
		Status:         models.CargoStatusPending,
		LoadingPoint:   from,
		UnloadingPoint: to,
		LoadingDate:    futureDate(days),
	}
	require.NoError(t, db.Create(&cargo).Error)
	return cargo
}

func seedPendingRequest(t *testing.T, db *gorm.DB, carrierID, from, to string, readyDays int) models.CarrierRequest {
	t.Helper()
	request := models.CarrierRequest{
		CarrierID:      carrierID,
		LoadingPoint:   from,
		UnloadingPoint: to,
		ReadyDate:      futureDate(readyDays),
		VehicleCount:   1,
		Status:         models.CarrierRequestPending,
	}
	require.NoError(t, db.Create(&request).Error)
	return request
}

func TestMatchingCarriersByRouteAndDate(t *testing.T) {
	db := setupTestDB(t)
	r := assignmentTestRouter(db)

	seedUser(t, db, "100", models.RoleCarrier)
	student := seedUser(t, db, "300", models.RoleStudent)

	cargo := seedPendingCargo(t, db, "Steel Products", "Almaty", "Astana", 7)

	// Подходит: маршрут совпадает по подстроке, транспорт готов заранее
	matching := seedPendingRequest(t, db, "100", "Almaty region", "Astana", 3)
	// Не подходит: другой маршрут
	seedPendingRequest(t, db, "100", "Shymkent", "Astana", 3)
	// Не подходит: готовность позже даты загрузки
	seedPendingRequest(t, db, "100", "Almaty", "Astana", 10)

	w := doJSON(t, r, http.MethodGet, "/cargos/1/matching-carriers", student.TelegramID, string(student.Role), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var found []models.CarrierRequest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	require.Len(t, found, 1)
	assert.Equal(t, matching.ID, found[0].ID)

	// Обратное направление: грузы для заявки
	w = doJSON(t, r, http.MethodGet, "/carrier-requests/1/matching-cargos", student.TelegramID, string(student.Role), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cargos []models.Cargo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cargos))
	require.Len(t, cargos, 1)
	assert.Equal(t, cargo.ID, cargos[0].ID)
}

func TestAssignCarrier(t *testing.T) {
	db := setupTestDB(t)
	r := assignmentTestRouter(db)

	carrier := seedUser(t, db, "100", models.RoleCarrier)
	student := seedUser(t, db, "300", models.RoleStudent)

	cargo := seedPendingCargo(t, db, "Steel Products", "Almaty", "Astana", 7)
	request := seedPendingRequest(t, db, carrier.TelegramID, "Almaty", "Astana", 3)

	w := doJSON(t, r, http.MethodPost, "/cargos/1/assign", student.TelegramID, string(student.Role),
		map[string]uint{"request_id": request.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updatedCargo models.Cargo
	require.NoError(t, db.First(&updatedCargo, cargo.ID).Error)
	assert.Equal(t, models.CargoStatusAssigned, updatedCargo.Status)
	require.NotNil(t, updatedCargo.AssignedToID)
	assert.Equal(t, carrier.TelegramID, *updatedCargo.AssignedToID)

	var updatedRequest models.CarrierRequest
	require.NoError(t, db.First(&updatedRequest, request.ID).Error)
	assert.Equal(t, models.CarrierRequestAssigned, updatedRequest.Status)
	require.NotNil(t, updatedRequest.AssignedCargoID)
	assert.Equal(t, cargo.ID, *updatedRequest.AssignedCargoID)
	require.NotNil(t, updatedRequest.AssignedByID)
	assert.Equal(t, student.TelegramID, *updatedRequest.AssignedByID)
	assert.NotNil(t, updatedRequest.AssignedAt)

	// Перевозчик уведомлен о назначении
	var note models.Notification
	require.NoError(t, db.Where("user_id = ?", carrier.TelegramID).
		Order("id DESC").First(&note).Error)
	assert.Equal(t, models.NotificationCargoAssigned, note.Type)
}

func TestAssignCarrierAlreadyBound(t *testing.T) {
	db := setupTestDB(t)
	r := assignmentTestRouter(db)

	carrier := seedUser(t, db, "100", models.RoleCarrier)
	student := seedUser(t, db, "300", models.RoleStudent)

	seedPendingCargo(t, db, "First", "Almaty", "Astana", 7)
	seedPendingCargo(t, db, "Second", "Almaty", "Astana", 7)
	request := seedPendingRequest(t, db, carrier.TelegramID, "Almaty", "Astana", 3)

	w := doJSON(t, r, http.MethodPost, "/cargos/1/assign", student.TelegramID, string(student.Role),
		map[string]uint{"request_id": request.ID})
	require.Equal(t, http.StatusOK, w.Code)

	// Та же заявка на второй груз не назначается
	w = doJSON(t, r, http.MethodPost, "/cargos/2/assign", student.TelegramID, string(student.Role),
		map[string]uint{"request_id": request.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var second models.Cargo
	require.NoError(t, db.First(&second, 2).Error)
	assert.Equal(t, models.CargoStatusPending, second.Status)
	assert.Nil(t, second.AssignedToID)
}

func TestAcceptAssignment(t *testing.T) {
	db := setupTestDB(t)
	r := assignmentTestRouter(db)

	carrier := seedUser(t, db, "100", models.RoleCarrier)
	student := seedUser(t, db, "300", models.RoleStudent)

	seedPendingCargo(t, db, "Steel Products", "Almaty", "Astana", 7)
	request := seedPendingRequest(t, db, carrier.TelegramID, "Almaty", "Astana", 3)

	w := doJSON(t, r, http.MethodPost, "/cargos/1/assign", student.TelegramID, string(student.Role),
		map[string]uint{"request_id": request.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/cargos/1/accept", carrier.TelegramID, string(carrier.Role),
		map[string]interface{}{"accept": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cargo models.Cargo
	require.NoError(t, db.First(&cargo, 1).Error)
	assert.Equal(t, models.CargoStatusInProgress, cargo.Status)

	var updatedRequest models.CarrierRequest
	require.NoError(t, db.First(&updatedRequest, request.ID).Error)
	assert.Equal(t, models.CarrierRequestAccepted, updatedRequest.Status)

	// Назначивший студент уведомлен о подтверждении
	var note models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?",
		student.TelegramID, models.NotificationRequestAccepted).First(&note).Error)
}

func TestRejectAssignment(t *testing.T) {
	db := setupTestDB(t)
	r := assignmentTestRouter(db)

	carrier := seedUser(t, db, "100", models.RoleCarrier)
	student := seedUser(t, db, "300", models.RoleStudent)

	seedPendingCargo(t, db, "Steel Products", "Almaty", "Astana", 7)
	request := seedPendingRequest(t, db, carrier.TelegramID, "Almaty", "Astana", 3)

	w := doJSON(t, r, http.MethodPost, "/cargos/1/assign", student.TelegramID, string(student.Role),
		map[string]uint{"request_id": request.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/cargos/1/accept", carrier.TelegramID, string(carrier.Role),
		map[string]interface{}{"accept": false, "reason": "машина сломалась"})
	require.Equal(t, http.StatusOK, w.Code)

	// Груз возвращается в пул без перевозчика
	var cargo models.Cargo
	require.NoError(t, db.First(&cargo, 1).Error)
	assert.Equal(t, models.CargoStatusPending, cargo.Status)
	assert.Nil(t, cargo.AssignedToID)

	// Заявка отклонена и освобождена
	var updatedRequest models.CarrierRequest
	require.NoError(t, db.First(&updatedRequest, request.ID).Error)
	assert.Equal(t, models.CarrierRequestRejected, updatedRequest.Status)
	assert.Nil(t, updatedRequest.AssignedCargoID)

	var note models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?",
		student.TelegramID, models.NotificationRequestRejected).First(&note).Error)
	assert.Contains(t, note.Message, "машина сломалась")
}

func TestAcceptAssignmentWrongCarrier(t *testing.T) {
	db := setupTestDB(t)
	r := assignmentTestRouter(db)

	carrier := seedUser(t, db, "100", models.RoleCarrier)
	intruder := seedUser(t, db, "101", models.RoleCarrier)
	student := seedUser(t, db, "300", models.RoleStudent)

	seedPendingCargo(t, db, "Steel Products", "Almaty", "Astana", 7)
	request := seedPendingRequest(t, db, carrier.TelegramID, "Almaty", "Astana", 3)

	w := doJSON(t, r, http.MethodPost, "/cargos/1/assign", student.TelegramID, string(student.Role),
		map[string]uint{"request_id": request.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/cargos/1/accept", intruder.TelegramID, string(intruder.Role),
		map[string]interface{}{"accept": true})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
