package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"logit-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func vehicleTestRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(testIdentity())
	r.GET("/vehicles", GetVehicles(db))
	r.POST("/vehicles", CreateVehicle(db))
	r.PUT("/vehicles/:id", UpdateVehicle(db))
	r.POST("/vehicles/:id/verify", VerifyVehicle(db))
	r.GET("/vehicles/:id/inspections", GetVehicleInspections(db))
	r.POST("/vehicles/:id/inspections", CreateVehicleInspection(db))
	return r
}

func TestCreateVehicleWithInternationalPermits(t *testing.T) {
	db := setupTestDB(t)
	r := vehicleTestRouter(db)
	carrier := seedUser(t, db, "100", models.RoleCarrier)

	w := doJSON(t, r, http.MethodPost, "/vehicles", carrier.TelegramID, string(models.RoleCarrier), gin.H{
		"registration_number":  "ABC 123",
		"brand":                "Volvo",
		"body_type":            "tent",
		"registration_country": "KZ",
		"license_number":       "LIC-42",
		"has_adr":              true,
		"has_tir":              true,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var vehicle models.Vehicle
	require.NoError(t, db.Where("registration_number = ?", "ABC 123").First(&vehicle).Error)
	assert.Equal(t, carrier.TelegramID, vehicle.OwnerID)
	assert.Equal(t, "KZ", vehicle.RegistrationCountry)
	assert.Equal(t, "LIC-42", vehicle.LicenseNumber)
	assert.True(t, vehicle.HasADR)
	assert.True(t, vehicle.HasTIR)
	assert.False(t, vehicle.HasDozvol)
	assert.True(t, vehicle.IsActive)
}

func TestCreateVehicleDuplicateNumber(t *testing.T) {
	db := setupTestDB(t)
	r := vehicleTestRouter(db)
	carrier := seedUser(t, db, "100", models.RoleCarrier)

	body := gin.H{"registration_number": "DUP 777"}
	w := doJSON(t, r, http.MethodPost, "/vehicles", carrier.TelegramID, string(models.RoleCarrier), body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/vehicles", carrier.TelegramID, string(models.RoleCarrier), body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateVehicleResetsVerification(t *testing.T) {
	db := setupTestDB(t)
	r := vehicleTestRouter(db)
	carrier := seedUser(t, db, "100", models.RoleCarrier)
	seedUser(t, db, "200", models.RoleManager)

	vehicle := models.Vehicle{
		OwnerID:            carrier.TelegramID,
		RegistrationNumber: "KZ 555",
		IsActive:           true,
	}
	require.NoError(t, db.Create(&vehicle).Error)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/vehicles/%d/verify", vehicle.ID), "200", string(models.RoleManager), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, db.First(&vehicle, vehicle.ID).Error)
	require.True(t, vehicle.IsVerified)

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/vehicles/%d", vehicle.ID), carrier.TelegramID, string(models.RoleCarrier), gin.H{
		"registration_number": "KZ 555",
		"has_dozvol":          true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.First(&vehicle, vehicle.ID).Error)
	assert.False(t, vehicle.IsVerified)
	assert.Nil(t, vehicle.VerifiedByID)
	assert.True(t, vehicle.HasDozvol)
}

func TestUpdateVehicleForeignOwnerForbidden(t *testing.T) {
	db := setupTestDB(t)
	r := vehicleTestRouter(db)
	carrier := seedUser(t, db, "100", models.RoleCarrier)
	seedUser(t, db, "101", models.RoleCarrier)

	vehicle := models.Vehicle{
		OwnerID:            carrier.TelegramID,
		RegistrationNumber: "KZ 001",
		IsActive:           true,
	}
	require.NoError(t, db.Create(&vehicle).Error)

	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/vehicles/%d", vehicle.ID), "101", string(models.RoleCarrier), gin.H{
		"registration_number": "KZ 001",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVehicleInspectionsRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	r := vehicleTestRouter(db)
	carrier := seedUser(t, db, "100", models.RoleCarrier)

	vehicle := models.Vehicle{
		OwnerID:            carrier.TelegramID,
		RegistrationNumber: "KZ 777",
		IsActive:           true,
	}
	require.NoError(t, db.Create(&vehicle).Error)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/vehicles/%d/inspections", vehicle.ID),
		carrier.TelegramID, string(models.RoleCarrier), gin.H{
			"inspection_date": "2026-08-01T00:00:00Z",
			"passed":          true,
			"notes":           "без замечаний",
		})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/vehicles/%d/inspections", vehicle.ID),
		carrier.TelegramID, string(models.RoleCarrier), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var inspections []models.VehicleInspection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inspections))
	require.Len(t, inspections, 1)
	assert.True(t, inspections[0].Passed)
	assert.Equal(t, "без замечаний", inspections[0].Notes)

	w = doJSON(t, r, http.MethodGet, "/vehicles/9999/inspections",
		carrier.TelegramID, string(models.RoleCarrier), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetVehiclesScopedByOwner(t *testing.T) {
	db := setupTestDB(t)
	r := vehicleTestRouter(db)
	first := seedUser(t, db, "100", models.RoleCarrier)
	second := seedUser(t, db, "101", models.RoleCarrier)
	manager := seedUser(t, db, "200", models.RoleManager)

	require.NoError(t, db.Create(&models.Vehicle{OwnerID: first.TelegramID, RegistrationNumber: "A 1", IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Vehicle{OwnerID: second.TelegramID, RegistrationNumber: "B 2", IsActive: true}).Error)

	w := doJSON(t, r, http.MethodGet, "/vehicles", first.TelegramID, string(models.RoleCarrier), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var own []models.Vehicle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &own))
	assert.Len(t, own, 1)

	w = doJSON(t, r, http.MethodGet, "/vehicles", manager.TelegramID, string(models.RoleManager), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.Vehicle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 2)
}
