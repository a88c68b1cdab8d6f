// Package notify delivers progress and operator notifications over
// telegram and email. Delivery is best effort, a lost notification
// never blocks or fails a settlement.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Jayke770/stablebot-worker/log"
	"github.com/Jayke770/stablebot-worker/params"
	"github.com/Jayke770/stablebot-worker/tools"
)

const (
	defaultBotAPI  = "https://api.telegram.org"
	requestTimeout = 10 * time.Second
)

// Telegram bot api client
type Telegram struct {
	apiAddress string
	botToken   string
	client     *resty.Client
}

// NewTelegram build a telegram client from config, nil when telegram
// notifications are not configured.
func NewTelegram(config *params.TelegramConfig) *Telegram {
	if config == nil || config.BotToken == "" {
		return nil
	}
	apiAddress := config.APIAddress
	if apiAddress == "" {
		apiAddress = defaultBotAPI
	}
	return &Telegram{
		apiAddress: apiAddress,
		botToken:   config.BotToken,
		client:     resty.New().SetTimeout(requestTimeout),
	}
}

type botResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
	Description string `json:"description"`
}

func (t *Telegram) call(method string, body map[string]interface{}) (*botResponse, error) {
	url := fmt.Sprintf("%s/bot%s/%s", t.apiAddress, t.botToken, method)
	resp, err := t.client.R().SetBody(body).Post(url)
	if err != nil {
		return nil, fmt.Errorf("telegram request error: %w", err)
	}
	var result botResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	if !result.OK {
		return nil, fmt.Errorf("telegram %v failed: %v", method, result.Description)
	}
	return &result, nil
}

// SendMessage send a html message, returns the message id for later
// edits.
func (t *Telegram) SendMessage(chatID int64, text string) (int64, error) {
	result, err := t.call("sendMessage", map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
		"link_preview_options": map[string]interface{}{
			"is_disabled": true,
		},
	})
	if err != nil {
		return 0, err
	}
	return result.Result.MessageID, nil
}

// EditMessage rewrite a previously sent message in place.
func (t *Telegram) EditMessage(chatID, messageID int64, text string) error {
	_, err := t.call("editMessageText", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
		"link_preview_options": map[string]interface{}{
			"is_disabled": true,
		},
	})
	return err
}

// DeleteMessage remove a previously sent message.
func (t *Telegram) DeleteMessage(chatID, messageID int64) error {
	_, err := t.call("deleteMessage", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
	})
	return err
}

// Notifier fans operator notices out to the configured telegram chats
// and email recipients.
type Notifier struct {
	telegram *Telegram
	chatIDs  []int64
	emailTo  []string
}

// NewNotifier build a notifier from the loaded config. Email transport
// must already be initialized through tools.InitEmailConfig.
func NewNotifier(telegram *Telegram) *Notifier {
	notifier := &Notifier{telegram: telegram}
	if config := params.GetConfig().Worker; config != nil {
		notifier.chatIDs = config.OperatorChatIDs
	}
	if config := params.GetConfig().Email; config != nil {
		notifier.emailTo = config.To
	}
	return notifier
}

// Notify deliver an operator notice on every configured channel.
func (n *Notifier) Notify(subject, text string) {
	if n.telegram != nil {
		for _, chatID := range n.chatIDs {
			if _, err := n.telegram.SendMessage(chatID, text); err != nil {
				log.Warn("notify telegram failed", "chatID", chatID, "err", err)
			}
		}
	}
	if len(n.emailTo) != 0 {
		if err := tools.SendEmail(n.emailTo, nil, subject, text); err != nil {
			log.Warn("notify email failed", "to", n.emailTo, "err", err)
		}
	}
}
