package models

import (
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationNewCargo        NotificationType = "new_cargo"         // Новый груз
	NotificationCargoApproval   NotificationType = "cargo_approval"    // Груз ожидает одобрения
	NotificationCargoApproved   NotificationType = "cargo_approved"    // Груз одобрен
	NotificationCargoRejected   NotificationType = "cargo_rejected"    // Груз отклонен
	NotificationCargoAssigned   NotificationType = "cargo_assigned"    // Груз назначен
	NotificationCargoCompleted  NotificationType = "cargo_completed"   // Перевозка завершена
	NotificationCargoCancelled  NotificationType = "cargo_cancelled"   // Груз отменен
	NotificationNewRequest      NotificationType = "new_request"       // Новая заявка перевозчика
	NotificationRequestAccepted NotificationType = "request_accepted"  // Назначение принято
	NotificationRequestRejected NotificationType = "request_rejected"  // Назначение отклонено
	NotificationDocumentExpiry  NotificationType = "document_expiry"   // Истекает срок документа
	NotificationSystem          NotificationType = "system"            // Системное уведомление
)

// Notification представляет уведомление пользователя. ContentType/ObjectID задают
// ссылку на связанный объект (cargo, carrier_request, vehicle_document).
type Notification struct {
	ID      uint             `json:"id" gorm:"primaryKey"`
	UserID  string           `json:"user_id" gorm:"column:user_id;not null;type:varchar(100);index"`
	Type    NotificationType `json:"type" gorm:"column:type;type:varchar(30);not null"`
	Title   string           `json:"title" gorm:"column:title;type:varchar(255)"`
	Message string           `json:"message" gorm:"column:message;type:text;not null"`

	ContentType string `json:"content_type,omitempty" gorm:"column:content_type;type:varchar(50);index"`
	ObjectID    uint   `json:"object_id,omitempty" gorm:"column:object_id;index"`

	IsRead    bool      `json:"is_read" gorm:"column:is_read;default:false;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	User User `json:"-" gorm:"foreignKey:UserID;references:TelegramID;constraint:OnDelete:CASCADE"`
}

// Favorite представляет закладку пользователя на груз или заявку
type Favorite struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"column:user_id;not null;type:varchar(100);uniqueIndex:idx_fav_user_object"`
	ContentType string    `json:"content_type" gorm:"column:content_type;not null;type:varchar(50);uniqueIndex:idx_fav_user_object"`
	ObjectID    uint      `json:"object_id" gorm:"column:object_id;not null;uniqueIndex:idx_fav_user_object"`
	CreatedAt   time.Time `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:TelegramID;constraint:OnDelete:CASCADE"`
}

// Rating представляет оценку одного пользователя другим по итогам перевозки
type Rating struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	FromUserID string    `json:"from_user_id" gorm:"column:from_user_id;not null;type:varchar(100);uniqueIndex:idx_rating_pair"`
	ToUserID   string    `json:"to_user_id" gorm:"column:to_user_id;not null;type:varchar(100);uniqueIndex:idx_rating_pair;index"`
	CargoID    *uint     `json:"cargo_id,omitempty" gorm:"column:cargo_id;uniqueIndex:idx_rating_pair"`
	Score      int       `json:"score" gorm:"column:score;not null"`
	Comment    string    `json:"comment,omitempty" gorm:"column:comment;type:text"`
	CreatedAt  time.Time `json:"created_at"`

	FromUser User `json:"from_user,omitempty" gorm:"foreignKey:FromUserID;references:TelegramID;constraint:OnDelete:CASCADE"`
	ToUser   User `json:"-" gorm:"foreignKey:ToUserID;references:TelegramID;constraint:OnDelete:CASCADE"`
}

// AfterSave пересчитывает средний рейтинг получателя оценки
func (r *Rating) AfterSave(tx *gorm.DB) error {
	var avg float64
	if err := tx.Model(&Rating{}).
		Where("to_user_id = ?", r.ToUserID).
		Select("COALESCE(AVG(score), 0)").
		Scan(&avg).Error; err != nil {
		return err
	}
	return tx.Model(&User{}).
		Where("telegram_id = ?", r.ToUserID).
		Update("rating", avg).Error
}

// TelegramGroup представляет группу в Telegram, из которой забираются сообщения о грузах
type TelegramGroup struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ChatID    string    `json:"chat_id" gorm:"column:chat_id;not null;type:varchar(100);uniqueIndex"`
	Title     string    `json:"title" gorm:"column:title;type:varchar(255)"`
	IsActive  bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt time.Time `json:"created_at"`

	Messages []TelegramMessage `json:"messages,omitempty" gorm:"foreignKey:GroupID"`
}

// TelegramMessage представляет сырое сообщение из группы, ожидающее разбора
type TelegramMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	GroupID   uint      `json:"group_id" gorm:"column:group_id;not null;index"`
	MessageID string    `json:"message_id" gorm:"column:message_id;not null;type:varchar(100)"`
	Sender    string    `json:"sender,omitempty" gorm:"column:sender;type:varchar(255)"`
	Text      string    `json:"text" gorm:"column:text;type:text;not null"`
	Processed bool      `json:"processed" gorm:"column:processed;default:false;index"`
	CargoID   *uint     `json:"cargo_id,omitempty" gorm:"column:cargo_id"`
	CreatedAt time.Time `json:"created_at"`

	Group TelegramGroup `json:"-" gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	Cargo *Cargo        `json:"-" gorm:"foreignKey:CargoID"`
}

// SearchFilter представляет сохраненный фильтр поиска пользователя
type SearchFilter struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"column:user_id;not null;type:varchar(100);index"`
	Name      string    `json:"name" gorm:"column:name;not null;type:varchar(255)"`
	// Filters хранит сериализованные параметры запроса как есть
	Filters     string    `json:"filters" gorm:"column:filters;type:text;not null"`
	NotifyOnNew bool      `json:"notify_on_new" gorm:"column:notify_on_new;default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:TelegramID;constraint:OnDelete:CASCADE"`
}
