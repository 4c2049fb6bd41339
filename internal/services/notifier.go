package services

import (
	"fmt"

	"logit-backend/internal/models"
	"logit-backend/internal/websocket"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier отвечает за рассылку уведомлений: запись в БД,
// push через WebSocket и сообщение в Telegram.
type Notifier struct {
	db       *gorm.DB
	telegram *TelegramService
	logger   *zap.Logger
}

func NewNotifier(db *gorm.DB, telegram *TelegramService, logger *zap.Logger) *Notifier {
	return &Notifier{db: db, telegram: telegram, logger: logger}
}

// notify создает уведомление и доставляет его по всем каналам
func (n *Notifier) notify(userID string, nType models.NotificationType, title, message, contentType string, objectID uint, tgText string) {
	notification := models.Notification{
		UserID:      userID,
		Type:        nType,
		Title:       title,
		Message:     message,
		ContentType: contentType,
		ObjectID:    objectID,
	}
	if err := n.db.Create(&notification).Error; err != nil {
		n.logger.Error("не удалось сохранить уведомление",
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}

	websocket.SendNotification(userID, notification.ID, title, message)

	if tgText != "" && n.telegram != nil {
		n.telegram.Send(userID, tgText)
	}
}

func (n *Notifier) activeUsersByRole(role models.UserRole) []models.User {
	var users []models.User
	if err := n.db.Where("role = ? AND is_active = ?", role, true).Find(&users).Error; err != nil {
		n.logger.Error("не удалось получить пользователей по роли",
			zap.String("role", string(role)),
			zap.Error(err))
	}
	return users
}

// CargoCreated рассылает уведомления о новом грузе по его начальному статусу
func (n *Notifier) CargoCreated(cargo *models.Cargo) {
	switch cargo.Status {
	case models.CargoStatusPendingApproval:
		// Грузы на модерации видят менеджеры
		for _, m := range n.activeUsersByRole(models.RoleManager) {
			n.notify(m.TelegramID, models.NotificationCargoApproval,
				"Груз ожидает одобрения",
				fmt.Sprintf("Груз «%s» ожидает проверки", cargo.Title),
				"cargo", cargo.ID,
				FormatCargoNotification("Груз ожидает одобрения", cargo))
		}
	case models.CargoStatusManagerApproved, models.CargoStatusPending:
		n.cargoAvailable(cargo)
	}
}

// cargoAvailable уведомляет студентов-логистов о грузе, доступном к назначению
func (n *Notifier) cargoAvailable(cargo *models.Cargo) {
	for _, s := range n.activeUsersByRole(models.RoleStudent) {
		n.notify(s.TelegramID, models.NotificationNewCargo,
			"Новый груз",
			fmt.Sprintf("Доступен новый груз «%s»", cargo.Title),
			"cargo", cargo.ID,
			FormatCargoNotification("Новый груз", cargo))
	}
}

// CargoApproved уведомляет владельца и студентов об одобрении груза
func (n *Notifier) CargoApproved(cargo *models.Cargo) {
	if cargo.OwnerID != nil {
		n.notify(*cargo.OwnerID, models.NotificationCargoApproved,
			"Груз одобрен",
			fmt.Sprintf("Ваш груз «%s» одобрен менеджером", cargo.Title),
			"cargo", cargo.ID,
			FormatCargoNotification("Ваш груз одобрен", cargo))
	}
	n.cargoAvailable(cargo)
}

// CargoRejected уведомляет владельца об отклонении груза
func (n *Notifier) CargoRejected(cargo *models.Cargo, reason string) {
	if cargo.OwnerID == nil {
		return
	}
	msg := fmt.Sprintf("Ваш груз «%s» отклонен", cargo.Title)
	if reason != "" {
		msg += ": " + reason
	}
	n.notify(*cargo.OwnerID, models.NotificationCargoRejected,
		"Груз отклонен", msg, "cargo", cargo.ID,
		FormatCargoNotification("Ваш груз отклонен", cargo))
}

// CargoAssigned уведомляет перевозчика о назначении груза
func (n *Notifier) CargoAssigned(cargo *models.Cargo) {
	if cargo.AssignedToID == nil {
		return
	}
	n.notify(*cargo.AssignedToID, models.NotificationCargoAssigned,
		"Вам назначен груз",
		fmt.Sprintf("Вам назначен груз «%s». Подтвердите или отклоните назначение", cargo.Title),
		"cargo", cargo.ID,
		FormatCargoNotification("Вам назначен груз", cargo))
}

// CargoFinished уведомляет владельца и одобрившего менеджера о завершении
// или отмене перевозки
func (n *Notifier) CargoFinished(cargo *models.Cargo) {
	nType := models.NotificationCargoCompleted
	title := "Перевозка завершена"
	if cargo.Status == models.CargoStatusCancelled {
		nType = models.NotificationCargoCancelled
		title = "Груз отменен"
	}
	msg := fmt.Sprintf("Груз «%s»: %s", cargo.Title, cargo.Status.Display())

	recipients := map[string]bool{}
	if cargo.OwnerID != nil {
		recipients[*cargo.OwnerID] = true
	}
	if cargo.ApprovedByID != nil {
		recipients[*cargo.ApprovedByID] = true
	}
	for id := range recipients {
		n.notify(id, nType, title, msg, "cargo", cargo.ID,
			FormatCargoNotification(title, cargo))
	}
}

// CargoStatusChanged отправляет владельцу сообщение в Telegram о смене
// статуса. Запись в БД не создается, событие дублируется основными
// уведомлениями.
func (n *Notifier) CargoStatusChanged(cargo *models.Cargo) {
	if cargo.OwnerID == nil || n.telegram == nil {
		return
	}
	n.telegram.Send(*cargo.OwnerID, fmt.Sprintf("<b>Статус груза изменен</b>\n\nГруз «%s»: %s",
		cargo.Title, cargo.Status.Display()))
}

// CargoExpired уведомляет владельца о просроченном грузе
func (n *Notifier) CargoExpired(cargo *models.Cargo) {
	if cargo.OwnerID == nil {
		return
	}
	n.notify(*cargo.OwnerID, models.NotificationSystem,
		"Груз просрочен",
		fmt.Sprintf("Дата погрузки груза «%s» прошла, груз снят с публикации", cargo.Title),
		"cargo", cargo.ID,
		FormatCargoNotification("Груз просрочен", cargo))
}

// RequestCreated уведомляет студентов о новой заявке перевозчика
func (n *Notifier) RequestCreated(req *models.CarrierRequest) {
	for _, s := range n.activeUsersByRole(models.RoleStudent) {
		n.notify(s.TelegramID, models.NotificationNewRequest,
			"Новая заявка перевозчика",
			fmt.Sprintf("Свободный транспорт: %s → %s", req.LoadingPoint, req.UnloadingPoint),
			"carrier_request", req.ID,
			FormatCarrierNotification("Новая заявка перевозчика", req))
	}
}

// RequestAccepted уведомляет назначившего логиста и владельца груза
// о подтверждении назначения
func (n *Notifier) RequestAccepted(req *models.CarrierRequest, cargo *models.Cargo) {
	msg := fmt.Sprintf("Перевозчик подтвердил назначение по грузу «%s»", cargo.Title)
	if req.AssignedByID != nil {
		n.notify(*req.AssignedByID, models.NotificationRequestAccepted,
			"Назначение принято", msg, "carrier_request", req.ID,
			FormatCargoNotification("Назначение принято", cargo))
	}
	if cargo.OwnerID != nil && (req.AssignedByID == nil || *cargo.OwnerID != *req.AssignedByID) {
		n.notify(*cargo.OwnerID, models.NotificationRequestAccepted,
			"Назначение принято", msg, "cargo", cargo.ID,
			FormatCargoNotification("Перевозчик найден", cargo))
	}
}

// RequestRejected уведомляет назначившего логиста об отказе перевозчика
func (n *Notifier) RequestRejected(req *models.CarrierRequest, cargo *models.Cargo, reason string) {
	if req.AssignedByID == nil {
		return
	}
	msg := fmt.Sprintf("Перевозчик отклонил назначение по грузу «%s»", cargo.Title)
	if reason != "" {
		msg += ": " + reason
	}
	n.notify(*req.AssignedByID, models.NotificationRequestRejected,
		"Назначение отклонено", msg, "carrier_request", req.ID,
		FormatCargoNotification("Назначение отклонено", cargo))
}

// RequestCompleted уведомляет перевозчика и владельца груза о завершении
func (n *Notifier) RequestCompleted(req *models.CarrierRequest, cargo *models.Cargo) {
	msg := fmt.Sprintf("Перевозка по грузу «%s» завершена", cargo.Title)
	n.notify(req.CarrierID, models.NotificationCargoCompleted,
		"Перевозка завершена", msg, "carrier_request", req.ID,
		FormatCargoNotification("Перевозка завершена", cargo))
	if cargo.OwnerID != nil {
		n.notify(*cargo.OwnerID, models.NotificationCargoCompleted,
			"Перевозка завершена", msg, "cargo", cargo.ID,
			FormatCargoNotification("Перевозка завершена", cargo))
	}
}

// DocumentExpiring уведомляет владельца транспорта об истекающем документе
func (n *Notifier) DocumentExpiring(ownerID string, doc *models.VehicleDocument, vehicle *models.Vehicle, daysLeft int) {
	msg := fmt.Sprintf("Документ «%s» транспорта %s истекает через %d дн.",
		doc.Type, vehicle.RegistrationNumber, daysLeft)
	n.notify(ownerID, models.NotificationDocumentExpiry,
		"Истекает срок документа", msg, "vehicle_document", doc.ID,
		fmt.Sprintf("<b>Истекает срок документа</b>\n\n%s", msg))
}
