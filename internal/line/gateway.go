package line

import (
	"context"
	"fmt"
	"time"

	"yoyaku/pkg/client"
	apperrors "yoyaku/pkg/errors"
	"yoyaku/pkg/logger"
)

const (
	replyPath = "/v2/bot/message/reply"
	pushPath  = "/v2/bot/message/push"

	defaultTimeout = 10 * time.Second
)

// Gateway sends messages through the messaging provider. Reply answers a
// specific inbound event using its short-lived reply token; Push initiates a
// message to a user at any time.
type Gateway interface {
	Reply(ctx context.Context, replyToken string, messages ...Message) error
	Push(ctx context.Context, userID string, messages ...Message) error
}

type httpGateway struct {
	client      *client.HttpClient
	accessToken string
	log         *logger.Logger
}

func NewGateway(baseURL, channelAccessToken string, log *logger.Logger) Gateway {
	return &httpGateway{
		client:      client.NewHttpClient(baseURL, defaultTimeout),
		accessToken: channelAccessToken,
		log:         log,
	}
}

type replyRequest struct {
	ReplyToken string    `json:"replyToken"`
	Messages   []Message `json:"messages"`
}

type pushRequest struct {
	To       string    `json:"to"`
	Messages []Message `json:"messages"`
}

func (g *httpGateway) Reply(ctx context.Context, replyToken string, messages ...Message) error {
	if replyToken == "" {
		return apperrors.InvalidInput("reply token is required")
	}
	return g.send(ctx, replyPath, replyRequest{ReplyToken: replyToken, Messages: messages})
}

func (g *httpGateway) Push(ctx context.Context, userID string, messages ...Message) error {
	if userID == "" {
		return apperrors.InvalidInput("user id is required")
	}
	return g.send(ctx, pushPath, pushRequest{To: userID, Messages: messages})
}

func (g *httpGateway) send(ctx context.Context, path string, payload any) error {
	headers := map[string]string{
		"Authorization": "Bearer " + g.accessToken,
	}

	resp, err := g.client.POST(ctx, path, payload, headers)
	if err != nil {
		return apperrors.Gateway("failed to reach messaging API", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.log.Warn("messaging API rejected request",
			"path", path,
			"status", resp.StatusCode,
			"body", string(resp.Body),
		)
		return apperrors.Gateway(
			fmt.Sprintf("messaging API returned status %d", resp.StatusCode),
			nil,
		)
	}

	return nil
}
