package handlers

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"testing"

	"logit-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testAPIKey     = "test-api-key"
	testPrivateKey = "test-private-key"
)

func externalTestRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.POST("/external/cargos", IngestExternalCargos(db, testNotifier(db)))
	return r
}

func signedBatch(createdAt string, cargos []map[string]interface{}) map[string]interface{} {
	sum := md5.Sum([]byte(testPrivateKey + testAPIKey + createdAt))
	return map[string]interface{}{
		"api_key":    testAPIKey,
		"created_at": createdAt,
		"hash":       hex.EncodeToString(sum[:]),
		"cargos":     cargos,
	}
}

func externalItem(id, title string) map[string]interface{} {
	return map[string]interface{}{
		"external_id":     id,
		"title":           title,
		"loading_point":   "Almaty",
		"unloading_point": "Astana",
		"loading_date":    "2026-10-01",
	}
}

func TestIngestExternalCargosWrongHash(t *testing.T) {
	t.Setenv("EXTERNAL_API_KEY", testAPIKey)
	t.Setenv("EXTERNAL_PRIVATE_KEY", testPrivateKey)

	db := setupTestDB(t)
	r := externalTestRouter(db)

	batch := signedBatch("2026-09-01T00:00:00Z", []map[string]interface{}{
		externalItem("ext-1", "Steel"),
	})
	batch["hash"] = "deadbeef"

	w := doJSON(t, r, http.MethodPost, "/external/cargos", "", "", batch)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var count int64
	db.Model(&models.Cargo{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestIngestExternalCargosPartialSuccess(t *testing.T) {
	t.Setenv("EXTERNAL_API_KEY", testAPIKey)
	t.Setenv("EXTERNAL_PRIVATE_KEY", testPrivateKey)

	db := setupTestDB(t)
	r := externalTestRouter(db)

	bad := externalItem("ext-2", "Broken")
	bad["loading_date"] = "01.10.2026" // неверный формат даты

	batch := signedBatch("2026-09-01T00:00:00Z", []map[string]interface{}{
		externalItem("ext-1", "Steel"),
		bad,
		externalItem("ext-3", "Cement"),
	})

	w := doJSON(t, r, http.MethodPost, "/external/cargos", "", "", batch)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Total   int                  `json:"total"`
		Created int                  `json:"created"`
		Results []externalItemResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.Created)
	assert.Equal(t, "created", resp.Results[0].Status)
	assert.Equal(t, "error", resp.Results[1].Status)
	assert.Equal(t, "created", resp.Results[2].Status)

	// Ошибка одной позиции не мешает остальным
	var count int64
	db.Model(&models.Cargo{}).Count(&count)
	assert.Equal(t, int64(2), count)

	var cargo models.Cargo
	require.NoError(t, db.Where("source_id = ?", "ext-1").First(&cargo).Error)
	assert.Equal(t, models.CargoStatusPending, cargo.Status)
	assert.Equal(t, models.SourceAPI, cargo.SourceType)
}

func TestIngestExternalCargosDuplicate(t *testing.T) {
	t.Setenv("EXTERNAL_API_KEY", testAPIKey)
	t.Setenv("EXTERNAL_PRIVATE_KEY", testPrivateKey)

	db := setupTestDB(t)
	r := externalTestRouter(db)

	batch := signedBatch("2026-09-01T00:00:00Z", []map[string]interface{}{
		externalItem("ext-1", "Steel"),
	})

	w := doJSON(t, r, http.MethodPost, "/external/cargos", "", "", batch)
	require.Equal(t, http.StatusCreated, w.Code)

	// Повторная отправка того же пакета не создает дубликат
	w = doJSON(t, r, http.MethodPost, "/external/cargos", "", "", batch)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Created int                  `json:"created"`
		Results []externalItemResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Created)
	assert.Equal(t, "duplicate", resp.Results[0].Status)

	var count int64
	db.Model(&models.Cargo{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
