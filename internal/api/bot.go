package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "whatflower/internal/application"
	"whatflower/internal/container"
	"whatflower/internal/domain/entity"
	"whatflower/internal/infrastructure/classifier"
)

const (
	msgStart = `👋 Привет! Я узнаю цветы по фотографии.

📸 Отправьте мне фото цветка, и я расскажу, что это за вид.

📋 Команды:
/identify — распознать цветок
/history — последние распознавания
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото цветка
2️⃣ Бот определит вид
3️⃣ Вы получите название, описание из Википедии и фото вида

💡 Рекомендации:
• Цветок должен занимать большую часть кадра
• Снимайте при дневном свете
• Фото должно быть чётким

📋 Команды:
/identify — распознать цветок
/history — последние распознавания`

	msgAwaitingPhoto   = "📸 Отправьте фото цветка."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото цветка."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Распознаю цветок..."
	msgBusy            = "⏳ Предыдущее фото ещё обрабатывается, подождите."
	msgPoorQuality     = "⚠️ Фото не подходит для распознавания: слишком мелкое, размытое или пересвеченное. Попробуйте другое фото."
	msgNotRecognized   = "🤷 Не удалось распознать цветок. Попробуйте другое фото."
	msgInvalidImage    = "⚠️ Не удалось прочитать изображение. Поддерживаются JPEG и PNG."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте позже."
	msgNoDescription   = "📖 Описание не найдено."
	msgHistoryEmpty    = "🗂 История пуста. Отправьте фото цветка."
	msgHistoryError    = "⚠️ Не удалось загрузить историю."

	// Лимиты Telegram на длину сообщения и подписи к фото.
	maxMessageLen = 4096
	maxCaptionLen = 1024

	maxPhotoBytes = 20 << 20
)

// Bot представляет Telegram-бота
type Bot struct {
	api          *tgbotapi.BotAPI
	app          *container.Container
	http         *http.Client
	historyLimit int

	// inflight отслеживает фоновые обработчики фото
	inflight sync.WaitGroup
}

// NewBot создаёт нового бота
func NewBot(token string, appContainer *container.Container, historyLimit int, timeout time.Duration) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:          api,
		app:          appContainer,
		http:         &http.Client{Timeout: timeout},
		historyLimit: historyLimit,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx.
// Перед возвратом дожидается обработчиков фото, которые ещё идут.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Обработка фото: распознавание идёт в фоне, чтобы не задерживать других пользователей
	if len(msg.Photo) > 0 {
		b.spawn(func() { b.handlePhoto(ctx, msg) })
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	users := b.app.UserService
	userID, chatID := msg.From.ID, msg.Chat.ID

	var err error
	switch msg.Command() {
	case "start":
		_, err = users.Reset(ctx, userID, chatID)
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "identify":
		b.sendMessage(chatID, msgAwaitingPhoto)

	case "history":
		b.handleHistory(ctx, userID, chatID)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}

	if err != nil {
		log.Printf("Error updating user %d: %v", userID, err)
	}
}

// spawn запускает обработчик в фоне и учитывает его в inflight
func (b *Bot) spawn(fn func()) {
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		fn()
	}()
}

// handlePhoto распознаёт цветок на фото и отправляет описание
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	b.sendMessage(chatID, msgProcessing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		log.Printf("Error downloading photo: %v", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	log.Printf("Received image from user %d: %d bytes", msg.From.ID, len(imageData))

	ident, err := b.app.IdentificationService.Identify(ctx, msg.From.ID, chatID, imageData)
	if err != nil {
		log.Printf("Error identifying photo of user %d: %v", msg.From.ID, err)
		b.sendMessage(chatID, errorMessage(err))
		return
	}

	b.sendMessage(chatID, titleMessage(ident))
	b.sendMessage(chatID, extractMessage(ident))

	if ident.Info.ThumbnailURL != "" {
		b.sendPhoto(chatID, ident.Info.ThumbnailURL, truncate(ident.Title, maxCaptionLen))
	}
}

func (b *Bot) handleHistory(ctx context.Context, userID, chatID int64) {
	lookups, err := b.app.IdentificationService.History(ctx, userID, b.historyLimit)
	if err != nil {
		log.Printf("Error loading history of user %d: %v", userID, err)
		b.sendMessage(chatID, msgHistoryError)
		return
	}
	b.sendMessage(chatID, historyMessage(lookups))
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// sendPhoto отправляет фото по URL, Telegram скачивает его сам
func (b *Bot) sendPhoto(chatID int64, url, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		log.Printf("Error sending photo %s: %v", url, err)
	}
}

func titleMessage(ident *entity.Identification) string {
	return fmt.Sprintf("🌸 %s (%.0f%%)", ident.Title, ident.Confidence*100)
}

func extractMessage(ident *entity.Identification) string {
	text := strings.TrimSpace(ident.Info.Extract)
	if !ident.Described || text == "" {
		return msgNoDescription
	}
	return truncate(text, maxMessageLen)
}

func historyMessage(lookups []entity.Lookup) string {
	if len(lookups) == 0 {
		return msgHistoryEmpty
	}

	var sb strings.Builder
	sb.WriteString("🗂 Последние распознавания:\n")
	for i, l := range lookups {
		fmt.Fprintf(&sb, "\n%d. %s (%.0f%%), %s", i+1, l.Title, l.Confidence*100, l.CreatedAt.Format("02.01.2006 15:04"))
	}
	return truncate(sb.String(), maxMessageLen)
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, app.ErrBusy):
		return msgBusy
	case errors.Is(err, app.ErrPoorQuality):
		return msgPoorQuality
	case errors.Is(err, entity.ErrNoClassification):
		return msgNotRecognized
	case errors.Is(err, classifier.ErrInvalidImage):
		return msgInvalidImage
	default:
		return msgProcessingError
	}
}

// truncate обрезает текст до limit символов, добавляя многоточие
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
