package services

import (
	"time"

	"logit-backend/internal/models"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Scheduler выполняет периодические задачи: просрочка грузов,
// напоминания об истекающих документах, чистка старых уведомлений.
type Scheduler struct {
	db        *gorm.DB
	notifier  *Notifier
	logger    *zap.Logger
	scheduler gocron.Scheduler
}

func NewScheduler(db *gorm.DB, notifier *Notifier, logger *zap.Logger) (*Scheduler, error) {
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{db: db, notifier: notifier, logger: logger, scheduler: gs}, nil
}

// Start регистрирует задачи и запускает планировщик
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(s.expireOverdueCargos),
	); err != nil {
		return err
	}

	if _, err := s.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(s.notifyExpiringDocuments),
	); err != nil {
		return err
	}

	if _, err := s.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(s.cleanOldNotifications),
	); err != nil {
		return err
	}

	s.scheduler.Start()
	return nil
}

// Stop останавливает планировщик
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

// expireOverdueCargos помечает просроченными опубликованные грузы,
// дата загрузки которых прошла, а перевозчик так и не был назначен.
// Черновики и грузы на модерации не трогаются. Каждая смена статуса
// фиксируется в истории, владелец получает уведомление.
func (s *Scheduler) expireOverdueCargos() {
	today := time.Now().Truncate(24 * time.Hour)

	var cargos []models.Cargo
	if err := s.db.
		Where("loading_date < ? AND status IN ?", today, []models.CargoStatus{
			models.CargoStatusPending,
			models.CargoStatusManagerApproved,
		}).
		Find(&cargos).Error; err != nil {
		s.logger.Error("не удалось получить просроченные грузы", zap.Error(err))
		return
	}

	for i := range cargos {
		cargo := &cargos[i]
		if err := s.db.Model(cargo).Update("status", models.CargoStatusExpired).Error; err != nil {
			s.logger.Error("не удалось пометить груз просроченным",
				zap.Uint("cargo_id", cargo.ID), zap.Error(err))
			continue
		}
		cargo.Status = models.CargoStatusExpired
		s.db.Create(&models.CargoStatusHistory{
			CargoID: cargo.ID,
			Status:  models.CargoStatusExpired,
			Comment: "Дата погрузки прошла",
		})
		s.notifier.CargoExpired(cargo)
	}

	if len(cargos) > 0 {
		s.logger.Info("грузы помечены просроченными", zap.Int("count", len(cargos)))
	}
}

// notifyExpiringDocuments напоминает владельцам об истекающих в течение
// недели документах транспорта
func (s *Scheduler) notifyExpiringDocuments() {
	now := time.Now()
	deadline := now.AddDate(0, 0, 7)

	var docs []models.VehicleDocument
	if err := s.db.Preload("Vehicle").
		Where("expiry_date IS NOT NULL AND expiry_date >= ? AND expiry_date <= ?", now, deadline).
		Find(&docs).Error; err != nil {
		s.logger.Error("не удалось получить истекающие документы", zap.Error(err))
		return
	}

	for i := range docs {
		doc := &docs[i]
		daysLeft := int(doc.ExpiryDate.Sub(now).Hours() / 24)
		s.notifier.DocumentExpiring(doc.Vehicle.OwnerID, doc, &doc.Vehicle, daysLeft)
	}
}

// cleanOldNotifications удаляет прочитанные уведомления старше 30 дней
func (s *Scheduler) cleanOldNotifications() {
	cutoff := time.Now().AddDate(0, 0, -30)

	result := s.db.Where("created_at < ? AND is_read = ?", cutoff, true).
		Delete(&models.Notification{})
	if result.Error != nil {
		s.logger.Error("не удалось удалить старые уведомления", zap.Error(result.Error))
		return
	}
	if result.RowsAffected > 0 {
		s.logger.Info("старые уведомления удалены", zap.Int64("count", result.RowsAffected))
	}
}
