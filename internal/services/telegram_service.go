package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"logit-backend/internal/middleware"
	"logit-backend/internal/models"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// TelegramService отправляет сообщения пользователям через бота.
// Отправка асинхронная: сообщения кладутся в очередь и уходят
// в фоновой горутине, ошибки доставки только логируются.
type TelegramService struct {
	bot    *bot.Bot
	queue  chan outgoingMessage
	logger *zap.Logger
}

type outgoingMessage struct {
	chatID string
	text   string
}

// NewTelegramService создает сервис. При пустом BOT_TOKEN сервис
// работает вхолостую: сообщения принимаются и отбрасываются.
func NewTelegramService(logger *zap.Logger) *TelegramService {
	s := &TelegramService{
		queue:  make(chan outgoingMessage, 256),
		logger: logger,
	}

	token := os.Getenv("BOT_TOKEN")
	if token != "" {
		b, err := bot.New(token)
		if err != nil {
			logger.Error("не удалось инициализировать Telegram бота", zap.Error(err))
		} else {
			s.bot = b
		}
	} else {
		logger.Warn("BOT_TOKEN не задан, отправка в Telegram отключена")
	}

	return s
}

// Start запускает обработку очереди сообщений
func (s *TelegramService) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-s.queue:
				s.deliver(ctx, msg)
			}
		}
	}()
}

func (s *TelegramService) deliver(ctx context.Context, msg outgoingMessage) {
	if s.bot == nil {
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.bot.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID:    msg.chatID,
		Text:      msg.text,
		ParseMode: tgmodels.ParseModeHTML,
	})
	middleware.TrackTelegramMessage(err == nil)
	if err != nil {
		s.logger.Warn("не удалось отправить сообщение в Telegram",
			zap.String("chat_id", msg.chatID),
			zap.Error(err))
	}
}

// Send ставит сообщение в очередь. Никогда не блокирует вызывающего:
// при переполнении очереди сообщение отбрасывается.
func (s *TelegramService) Send(chatID, text string) {
	select {
	case s.queue <- outgoingMessage{chatID: chatID, text: text}:
	default:
		s.logger.Warn("очередь Telegram переполнена, сообщение отброшено",
			zap.String("chat_id", chatID))
	}
}

// ChatTitle запрашивает актуальное название чата у Telegram
func (s *TelegramService) ChatTitle(ctx context.Context, chatID string) (string, error) {
	if s.bot == nil {
		return "", fmt.Errorf("telegram бот не настроен")
	}

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	chat, err := s.bot.GetChat(reqCtx, &bot.GetChatParams{ChatID: chatID})
	if err != nil {
		return "", err
	}
	return chat.Title, nil
}

// FormatCargoNotification собирает HTML-карточку груза
func FormatCargoNotification(header string, cargo *models.Cargo) string {
	text := fmt.Sprintf("<b>%s</b>\n\n", header)
	text += fmt.Sprintf("📦 <b>%s</b>\n", cargo.Title)
	text += fmt.Sprintf("🚚 %s → %s\n", cargo.LoadingPoint, cargo.UnloadingPoint)
	text += fmt.Sprintf("📅 Дата загрузки: %s\n", cargo.LoadingDate.Format("02.01.2006"))
	if cargo.Weight != nil {
		text += fmt.Sprintf("⚖️ Вес: %.1f т\n", *cargo.Weight)
	}
	if cargo.Volume != nil {
		text += fmt.Sprintf("📐 Объем: %.1f м³\n", *cargo.Volume)
	}
	if cargo.Price != nil {
		text += fmt.Sprintf("💰 Цена: %.0f\n", *cargo.Price)
	}
	text += fmt.Sprintf("\nСтатус: %s", cargo.Status.Display())
	return text
}

// FormatCarrierNotification собирает HTML-карточку заявки перевозчика
func FormatCarrierNotification(header string, req *models.CarrierRequest) string {
	text := fmt.Sprintf("<b>%s</b>\n\n", header)
	text += fmt.Sprintf("🚛 %s → %s\n", req.LoadingPoint, req.UnloadingPoint)
	text += fmt.Sprintf("📅 Готовность: %s\n", req.ReadyDate.Format("02.01.2006"))
	if req.VehicleCount > 1 {
		text += fmt.Sprintf("🔢 Машин: %d\n", req.VehicleCount)
	}
	if req.PriceExpectation != nil {
		text += fmt.Sprintf("💰 Ожидаемая цена: %.0f\n", *req.PriceExpectation)
	}
	text += fmt.Sprintf("\nСтатус: %s", req.Status.Display())
	return text
}
