package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/haeli05/seaclaw/internal/agent"
	"github.com/haeli05/seaclaw/internal/bus"
	"github.com/haeli05/seaclaw/internal/config"
	"github.com/haeli05/seaclaw/internal/httpclient"
	"github.com/haeli05/seaclaw/internal/session"
)

const telegramChannelName = "telegram"

// telegramTypingInterval is how often the typing indicator is repeated
// while a turn is in flight; Telegram's own indicator expires after ~5s.
const telegramTypingInterval = 4 * time.Second

// Telegram drives the long-polling bot protocol directly over httpclient,
// with no SDK in between: getUpdates, sendMessage, sendChatAction are each
// one hand-built HTTPS call.
type Telegram struct {
	Token     string
	Access    config.Telegram
	Loop      *agent.Loop
	http      *httpclient.Client
	offset    int64
}

// NewTelegram builds a Telegram channel bound to loop for turn execution.
func NewTelegram(cfg config.Telegram, loop *agent.Loop) (*Telegram, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	http, err := httpclient.NewClient()
	if err != nil {
		return nil, fmt.Errorf("init telegram transport: %w", err)
	}
	return &Telegram{Token: cfg.Token, Access: cfg, Loop: loop, http: http}, nil
}

func (t *Telegram) apiURL(method string) string {
	return fmt.Sprintf("https://api.telegram.org/bot%s/%s", t.Token, method)
}

type tgUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int    `json:"message_id"`
		Text      string `json:"text"`
		Date      int64  `json:"date"`
		From      struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"from"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type tgGetUpdatesResponse struct {
	OK     bool       `json:"ok"`
	Result []tgUpdate `json:"result"`
}

// Run polls getUpdates until ctx is cancelled, dispatching each text
// message through the agent loop and replying with the turn's final text.
func (t *Telegram) Run(ctx context.Context) error {
	log.Printf("[telegram] polling started")
	for {
		select {
		case <-ctx.Done():
			log.Printf("[telegram] stopped")
			return nil
		default:
		}

		updates, err := t.getUpdates(ctx)
		if err != nil {
			log.Printf("[telegram] getUpdates failed: %v", err)
			continue
		}
		for _, u := range updates {
			t.offset = u.UpdateID + 1
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			t.handleMessage(ctx, u.Message.From.ID, u.Message.From.Username, u.Message.Chat.ID, u.Message.Text)
		}
	}
}

func (t *Telegram) getUpdates(ctx context.Context) ([]tgUpdate, error) {
	q := url.Values{}
	q.Set("timeout", "30")
	q.Set("offset", strconv.FormatInt(t.offset, 10))
	resp, err := t.http.Get(t.apiURL("getUpdates")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var decoded tgGetUpdatesResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("decode getUpdates response: %w", err)
	}
	return decoded.Result, nil
}

func (t *Telegram) handleMessage(ctx context.Context, senderID int64, username string, chatID int64, text string) {
	identity := strconv.FormatInt(senderID, 10)
	if !t.Access.Allowed(identity) && !t.Access.Allowed(username) {
		log.Printf("[telegram] rejected message from %s (%s)", identity, username)
		return
	}

	chatIDStr := strconv.FormatInt(chatID, 10)
	inbound := bus.InboundMessage{Channel: telegramChannelName, SenderID: identity, ChatID: chatIDStr, Content: text, Timestamp: time.Now()}
	sess := session.Open(t.Loop.Workspace, inbound.SessionKey())
	defer sess.Close()

	stopTyping := t.startTypingHeartbeat(chatIDStr)
	final, err := t.Loop.Run(ctx, sess, text, false, nil)
	stopTyping()
	if err != nil {
		log.Printf("[telegram] turn failed for chat %s: %v", chatIDStr, err)
		return
	}

	t.deliver(bus.OutboundMessage{Channel: telegramChannelName, ChatID: chatIDStr, Content: final})
}

// deliver turns an OutboundMessage back into a sendMessage call, per
// internal/bus's driver contract.
func (t *Telegram) deliver(out bus.OutboundMessage) {
	if err := t.sendMessage(out.ChatID, out.Content); err != nil {
		log.Printf("[telegram] send failed for chat %s: %v", out.ChatID, err)
	}
}

// startTypingHeartbeat sends a typing action immediately and repeats it
// every telegramTypingInterval until the returned func is called.
func (t *Telegram) startTypingHeartbeat(chatID string) func() {
	done := make(chan struct{})
	go func() {
		t.sendChatAction(chatID, "typing")
		ticker := time.NewTicker(telegramTypingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				t.sendChatAction(chatID, "typing")
			}
		}
	}()
	return func() { close(done) }
}

func (t *Telegram) sendChatAction(chatID, action string) {
	body, _ := json.Marshal(map[string]string{"chat_id": chatID, "action": action})
	if _, err := t.http.PostJSON(t.apiURL("sendChatAction"), body, nil); err != nil {
		log.Printf("[telegram] sendChatAction failed: %v", err)
	}
}

func (t *Telegram) sendMessage(chatID, text string) error {
	body, err := json.Marshal(map[string]string{"chat_id": chatID, "text": text, "parse_mode": "Markdown"})
	if err != nil {
		return err
	}
	_, err = t.http.PostJSON(t.apiURL("sendMessage"), body, nil)
	return err
}
