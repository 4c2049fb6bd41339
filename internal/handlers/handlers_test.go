package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"logit-backend/internal/models"
	"logit-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.UserDocument{},
		&models.Location{},
		&models.Cargo{},
		&models.CargoDocument{},
		&models.CargoStatusHistory{},
		&models.Vehicle{},
		&models.VehicleDocument{},
		&models.VehicleAvailability{},
		&models.VehicleInspection{},
		&models.CarrierRequest{},
		&models.Notification{},
		&models.Favorite{},
		&models.Rating{},
		&models.TelegramGroup{},
		&models.TelegramMessage{},
		&models.SearchFilter{},
	))
	return db
}

func testNotifier(db *gorm.DB) *services.Notifier {
	return services.NewNotifier(db, nil, zap.NewNop())
}

func testLocationService(db *gorm.DB) *services.LocationService {
	return services.NewLocationService(db, nil, zap.NewNop())
}

// testIdentity подставляет пользователя из заголовков запроса
func testIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("telegram_id", c.GetHeader("X-User"))
		c.Set("role", c.GetHeader("X-Role"))
	}
}

func seedUser(t *testing.T, db *gorm.DB, id string, role models.UserRole) models.User {
	t.Helper()
	user := models.User{
		TelegramID: id,
		FirstName:  "User " + id,
		Role:       role,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func doJSON(t *testing.T, r *gin.Engine, method, path, userID, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", userID)
	req.Header.Set("X-Role", role)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func futureDate(days int) time.Time {
	return time.Now().AddDate(0, 0, days).Truncate(24 * time.Hour)
}
