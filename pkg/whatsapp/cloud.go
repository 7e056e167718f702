package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

type CloudClient struct {
	apiURL        string
	phoneNumberID string
	accessToken   string
	appName       string
	timeout       time.Duration
}

func NewCloudClient(apiURL, phoneNumberID, accessToken, appName string) *CloudClient {
	return &CloudClient{
		apiURL:        strings.TrimSuffix(apiURL, "/"),
		phoneNumberID: phoneNumberID,
		accessToken:   accessToken,
		appName:       appName,
		timeout:       10 * time.Second,
	}
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (c *CloudClient) SendWelcomeMessage(ctx context.Context, name, phone string) error {
	return c.sendText(ctx, phone, WelcomeText(c.appName, name))
}

func (c *CloudClient) SendVerificationMessage(ctx context.Context, name, phone, link string) error {
	return c.sendText(ctx, phone, VerificationText(c.appName, name, link))
}

func (c *CloudClient) sendText(ctx context.Context, phone, body string) error {
	if !ValidateNumber(phone) {
		return fmt.Errorf("whatsapp: invalid recipient %q", phone)
	}

	msg := textMessage{
		MessagingProduct: "whatsapp",
		To:               strings.TrimPrefix(phone, "+"),
		Type:             "text",
	}
	msg.Text.Body = body

	agent := fiber.Post(fmt.Sprintf("%s/%s/messages", c.apiURL, c.phoneNumberID))
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.accessToken)
	agent.JSON(msg)
	agent.Timeout(c.timeout)

	errChan := make(chan error, 1)
	go func() {
		code, respBody, errs := agent.Bytes()
		if len(errs) > 0 {
			errChan <- fmt.Errorf("whatsapp: %w", errors.Join(errs...))
			return
		}
		if code >= fiber.StatusBadRequest {
			var apiErr apiError
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
				errChan <- fmt.Errorf("whatsapp: status %d: %s", code, apiErr.Error.Message)
				return
			}
			errChan <- fmt.Errorf("whatsapp: unexpected status %d", code)
			return
		}
		errChan <- nil
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return fmt.Errorf("whatsapp send canceled: %w", ctx.Err())
	}
}
