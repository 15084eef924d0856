package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/editlance/marketplace/internal/logging"
	"github.com/editlance/marketplace/internal/mykafka"
	"github.com/editlance/marketplace/internal/service"
)

type MessageHandler struct {
	Svc      *service.MessageService
	Producer *mykafka.Producer
}

func (h *MessageHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "message_events", fmt.Sprint(event["messageID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *MessageHandler) SendMessage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "message.send_message")

	var req service.SendMessageInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	msg, err := h.Svc.Send(ctx, actorID(c), req)
	if err != nil {
		l.Warn("send_message_failed", "error", err)
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":        "message_sent",
		"messageID":   msg.ID,
		"senderID":    msg.SenderID,
		"recipientID": msg.RecipientID,
	})

	l.Info("send_message_success", "messageID", msg.ID)
	return c.JSON(http.StatusCreated, msg)
}

// GetConversation returns both directions of the thread with the given user
// and marks the counterpart's messages as read.
func (h *MessageHandler) GetConversation(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "message.get_conversation")

	otherID, err := strconv.Atoi(c.Param("userID"))
	if err != nil || otherID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	msgs, err := h.Svc.Conversation(ctx, actorID(c), uint(otherID))
	if err != nil {
		l.Error("get_conversation_failed", "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": msgs})
}

func (h *MessageHandler) GetUnreadCount(c echo.Context) error {
	ctx := c.Request().Context()

	count, err := h.Svc.UnreadCount(ctx, actorID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": count})
}
