package routes

import (
	"logit-backend/internal/handlers"
	"logit-backend/internal/middleware"
	"logit-backend/internal/models"
	"logit-backend/internal/services"
	"logit-backend/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes регистрирует все маршруты API
func SetupRoutes(r *gin.Engine, db *gorm.DB, notifier *services.Notifier, locationService *services.LocationService, telegram *services.TelegramService) {
	api := r.Group("/api")

	// Публичные маршруты
	auth := api.Group("/auth")
	{
		auth.POST("/telegram", handlers.TelegramAuth(db))
		auth.POST("/refresh", handlers.RefreshToken(db))
	}

	// Прием грузов от внешних систем: подпись проверяется в обработчике
	api.POST("/external/cargos", handlers.IngestExternalCargos(db, notifier))

	// Справочник локаций доступен без авторизации
	locations := api.Group("/locations")
	{
		locations.GET("/search", handlers.SearchLocations(locationService))
		locations.GET("/radius", handlers.GetLocationsInRadius(locationService))
		locations.GET("/countries", handlers.GetCountries(db))
		locations.GET("/distance", handlers.GetLocationDistance(locationService))
		locations.GET("/:id/children", handlers.GetLocationChildren(locationService))
	}

	// Маршруты, требующие авторизации
	protected := api.Group("")
	protected.Use(middleware.JWTAuth())
	{
		protected.POST("/auth/register", handlers.Register(db))
		protected.GET("/auth/me", handlers.GetMe(db))
		protected.PUT("/auth/profile", handlers.UpdateProfile(db))
		protected.POST("/auth/logout", handlers.Logout(db))

		protected.POST("/upload", handlers.UploadFile)
		protected.GET("/ws", websocket.Handler())

		// Пользователи
		users := protected.Group("/users")
		{
			users.GET("/:id", handlers.GetUser(db))
			users.GET("/:id/ratings", handlers.GetUserRatings(db))
			users.GET("/documents", handlers.GetUserDocuments(db))
			users.POST("/documents", handlers.CreateUserDocument(db))
		}

		// Грузы
		cargos := protected.Group("/cargos")
		{
			cargos.GET("", handlers.GetCargos(db))
			cargos.GET("/search", handlers.SearchCargos(db, locationService))
			cargos.GET("/statistics", handlers.GetCargoStatistics(db))
			cargos.GET("/:id", handlers.GetCargo(db))
			cargos.POST("", handlers.CreateCargo(db, notifier))
			cargos.PUT("/:id", handlers.UpdateCargo(db))
			cargos.PATCH("/:id/status", handlers.UpdateCargoStatus(db, notifier))
			cargos.DELETE("/:id", handlers.DeleteCargo(db))
			cargos.POST("/:id/views", handlers.IncrementCargoViews(db))
			cargos.GET("/:id/documents", handlers.GetCargoDocuments(db))
			cargos.POST("/:id/documents", handlers.CreateCargoDocument(db))

			// Подбор и назначение перевозчика
			cargos.GET("/:id/matching-carriers", handlers.GetMatchingCarriers(db))
			cargos.POST("/:id/assign", middleware.RequireRoles(
				string(models.RoleStudent), string(models.RoleManager), string(models.RoleLogitTrans),
			), handlers.AssignCarrier(db, notifier))
			cargos.POST("/:id/accept", middleware.RequireRoles(
				string(models.RoleCarrier), string(models.RoleTransportCompany),
			), handlers.AcceptAssignment(db, notifier))
		}

		// Заявки перевозчиков
		requests := protected.Group("/carrier-requests")
		{
			requests.GET("", handlers.GetCarrierRequests(db))
			requests.GET("/:id", handlers.GetCarrierRequest(db))
			requests.GET("/:id/matching-cargos", handlers.GetMatchingCargos(db))
			requests.POST("", middleware.RequireRoles(
				string(models.RoleCarrier), string(models.RoleTransportCompany),
			), handlers.CreateCarrierRequest(db, notifier))
			requests.PUT("/:id", handlers.UpdateCarrierRequest(db))
			requests.PATCH("/:id/status", handlers.UpdateCarrierRequestStatus(db))
			requests.DELETE("/:id", handlers.DeleteCarrierRequest(db))
		}

		// Транспорт
		vehicles := protected.Group("/vehicles")
		{
			vehicles.GET("", handlers.GetVehicles(db))
			vehicles.GET("/:id", handlers.GetVehicle(db))
			vehicles.POST("", middleware.RequireRoles(
				string(models.RoleCarrier), string(models.RoleTransportCompany),
			), handlers.CreateVehicle(db))
			vehicles.PUT("/:id", handlers.UpdateVehicle(db))
			vehicles.DELETE("/:id", handlers.DeleteVehicle(db))
			vehicles.POST("/:id/documents", handlers.CreateVehicleDocument(db))
			vehicles.POST("/:id/availability", handlers.CreateVehicleAvailability(db))
			vehicles.GET("/:id/inspections", handlers.GetVehicleInspections(db))
			vehicles.POST("/:id/inspections", handlers.CreateVehicleInspection(db))
		}

		// Уведомления, избранное, оценки, фильтры
		protected.GET("/notifications", handlers.GetNotifications(db))
		protected.PATCH("/notifications/:id/read", handlers.MarkNotificationRead(db))
		protected.PATCH("/notifications/read-all", handlers.MarkAllNotificationsRead(db))
		protected.DELETE("/notifications", handlers.DeleteAllNotifications(db))
		protected.GET("/favorites", handlers.GetFavorites(db))
		protected.POST("/favorites", handlers.AddFavorite(db))
		protected.DELETE("/favorites/:id", handlers.RemoveFavorite(db))
		protected.DELETE("/favorites", handlers.ClearFavorites(db))
		protected.POST("/ratings", handlers.CreateRating(db))
		protected.GET("/search-filters", handlers.GetSearchFilters(db))
		protected.POST("/search-filters", handlers.CreateSearchFilter(db))
		protected.PATCH("/search-filters/:id/notifications", handlers.ToggleSearchFilterNotifications(db))
		protected.DELETE("/search-filters/:id", handlers.DeleteSearchFilter(db))

		// Операции менеджера
		manager := protected.Group("/manager")
		manager.Use(middleware.RequireRoles(string(models.RoleManager)))
		{
			manager.GET("/users", handlers.GetUsers(db))
			manager.PATCH("/users/:id/verify", handlers.VerifyUser(db))
			manager.PATCH("/documents/:id/verify", handlers.VerifyUserDocument(db))
			manager.GET("/cargos/pending-approval", handlers.GetPendingApprovalCargos(db))
			manager.GET("/cargos/approved", handlers.GetApprovedCargos(db))
			manager.POST("/cargos/:id/approve", handlers.ApproveCargo(db, notifier))
			manager.POST("/cargos/:id/reject", handlers.RejectCargo(db, notifier))
			manager.PATCH("/vehicles/:id/verify", handlers.VerifyVehicle(db))
			manager.POST("/locations", handlers.CreateLocation(db, locationService))

			// Интеграция с Telegram-группами
			manager.GET("/telegram-groups", handlers.GetTelegramGroups(db))
			manager.POST("/telegram-groups", handlers.CreateTelegramGroup(db))
			manager.POST("/telegram-groups/sync", handlers.SyncTelegramGroups(db, telegram))
			manager.POST("/telegram-groups/:id/messages", handlers.CreateTelegramMessage(db))
			manager.GET("/telegram-messages", handlers.GetUnprocessedMessages(db))
			manager.POST("/telegram-messages/:id/process", handlers.ProcessTelegramMessage(db, notifier))
		}
	}
}
