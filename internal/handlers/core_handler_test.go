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

func coreTestRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(testIdentity())
	r.POST("/ratings", CreateRating(db))
	r.GET("/users/:id/ratings", GetUserRatings(db))
	r.POST("/favorites", AddFavorite(db))
	r.GET("/favorites", GetFavorites(db))
	r.DELETE("/favorites/:id", RemoveFavorite(db))
	r.DELETE("/favorites", ClearFavorites(db))
	r.POST("/search-filters", CreateSearchFilter(db))
	r.PATCH("/search-filters/:id/notifications", ToggleSearchFilterNotifications(db))
	return r
}

func TestCreateRatingRecalculatesAverage(t *testing.T) {
	db := setupTestDB(t)
	r := coreTestRouter(db)

	carrier := seedUser(t, db, "100", models.RoleCarrier)
	ownerA := seedUser(t, db, "200", models.RoleCargoOwner)
	ownerB := seedUser(t, db, "201", models.RoleCargoOwner)

	w := doJSON(t, r, http.MethodPost, "/ratings", ownerA.TelegramID, string(ownerA.Role),
		map[string]interface{}{"to_user_id": carrier.TelegramID, "score": 5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/ratings", ownerB.TelegramID, string(ownerB.Role),
		map[string]interface{}{"to_user_id": carrier.TelegramID, "score": 2})
	require.Equal(t, http.StatusCreated, w.Code)

	var updated models.User
	require.NoError(t, db.Where("telegram_id = ?", carrier.TelegramID).First(&updated).Error)
	assert.InDelta(t, 3.5, updated.Rating, 1e-9)
}

func TestCreateRatingValidation(t *testing.T) {
	db := setupTestDB(t)
	r := coreTestRouter(db)

	carrier := seedUser(t, db, "100", models.RoleCarrier)
	owner := seedUser(t, db, "200", models.RoleCargoOwner)

	// Оценка вне диапазона
	w := doJSON(t, r, http.MethodPost, "/ratings", owner.TelegramID, string(owner.Role),
		map[string]interface{}{"to_user_id": carrier.TelegramID, "score": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Самооценка запрещена
	w = doJSON(t, r, http.MethodPost, "/ratings", owner.TelegramID, string(owner.Role),
		map[string]interface{}{"to_user_id": owner.TelegramID, "score": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Несуществующий получатель
	w = doJSON(t, r, http.MethodPost, "/ratings", owner.TelegramID, string(owner.Role),
		map[string]interface{}{"to_user_id": "999", "score": 5})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFavoritesNoDuplicates(t *testing.T) {
	db := setupTestDB(t)
	r := coreTestRouter(db)

	user := seedUser(t, db, "200", models.RoleCargoOwner)

	body := map[string]interface{}{"content_type": "cargo", "object_id": 1}
	w := doJSON(t, r, http.MethodPost, "/favorites", user.TelegramID, string(user.Role), body)
	require.Equal(t, http.StatusCreated, w.Code)

	// Повторное добавление не создает дубликат
	w = doJSON(t, r, http.MethodPost, "/favorites", user.TelegramID, string(user.Role), body)
	require.Equal(t, http.StatusCreated, w.Code)

	var count int64
	db.Model(&models.Favorite{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// Недопустимый тип объекта
	w = doJSON(t, r, http.MethodPost, "/favorites", user.TelegramID, string(user.Role),
		map[string]interface{}{"content_type": "user", "object_id": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFavoritesScopedToUser(t *testing.T) {
	db := setupTestDB(t)
	r := coreTestRouter(db)

	alice := seedUser(t, db, "200", models.RoleCargoOwner)
	bob := seedUser(t, db, "201", models.RoleCargoOwner)

	w := doJSON(t, r, http.MethodPost, "/favorites", alice.TelegramID, string(alice.Role),
		map[string]interface{}{"content_type": "cargo", "object_id": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	// Чужое избранное не видно
	w = doJSON(t, r, http.MethodGet, "/favorites", bob.TelegramID, string(bob.Role), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var favorites []models.Favorite
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &favorites))
	assert.Empty(t, favorites)

	// И не удаляется чужим пользователем
	w = doJSON(t, r, http.MethodDelete, "/favorites/1", bob.TelegramID, string(bob.Role), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClearFavorites(t *testing.T) {
	db := setupTestDB(t)
	r := coreTestRouter(db)

	student := seedUser(t, db, "300", models.RoleStudent)
	other := seedUser(t, db, "301", models.RoleStudent)

	for _, objectID := range []uint{1, 2, 3} {
		w := doJSON(t, r, http.MethodPost, "/favorites", student.TelegramID, string(student.Role),
			map[string]interface{}{"content_type": "cargo", "object_id": objectID})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := doJSON(t, r, http.MethodPost, "/favorites", other.TelegramID, string(other.Role),
		map[string]interface{}{"content_type": "cargo", "object_id": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/favorites", student.TelegramID, string(student.Role), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var mine, theirs int64
	db.Model(&models.Favorite{}).Where("user_id = ?", student.TelegramID).Count(&mine)
	db.Model(&models.Favorite{}).Where("user_id = ?", other.TelegramID).Count(&theirs)
	assert.EqualValues(t, 0, mine)
	assert.EqualValues(t, 1, theirs)
}

func TestToggleSearchFilterNotifications(t *testing.T) {
	db := setupTestDB(t)
	r := coreTestRouter(db)

	student := seedUser(t, db, "310", models.RoleStudent)

	w := doJSON(t, r, http.MethodPost, "/search-filters", student.TelegramID, string(student.Role),
		map[string]interface{}{"name": "Almaty routes", "filters": `{"loading_point":"Almaty"}`})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var filter models.SearchFilter
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &filter))
	require.False(t, filter.NotifyOnNew)

	w = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/search-filters/%d/notifications", filter.ID),
		student.TelegramID, string(student.Role), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.SearchFilter
	require.NoError(t, db.First(&stored, filter.ID).Error)
	assert.True(t, stored.NotifyOnNew)

	// Чужой фильтр переключить нельзя
	other := seedUser(t, db, "311", models.RoleStudent)
	w = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/search-filters/%d/notifications", filter.ID),
		other.TelegramID, string(other.Role), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
