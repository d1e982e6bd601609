package notifications

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// TelegramNotifier delivers messages through the Telegram bot API. The
// recipient id is the user's Telegram chat id.
type TelegramNotifier struct {
	token  string
	client *http.Client
}

// NewTelegramNotifier creates a Telegram notifier using the given bot
// token.
func NewTelegramNotifier(token string) *TelegramNotifier {
	return &TelegramNotifier{
		token:  token,
		client: http.DefaultClient,
	}
}

// Send posts the message to the recipient's chat.
func (t *TelegramNotifier) Send(recipientID int64, message string) error {
	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)

	data := url.Values{}
	data.Set("chat_id", strconv.FormatInt(recipientID, 10))
	data.Set("text", message)

	resp, err := t.client.Post(apiURL, "application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}
