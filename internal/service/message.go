package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/editlance/marketplace/internal/models"
)

type MessageService struct {
	DB *gorm.DB
}

type SendMessageInput struct {
	RecipientID uint   `json:"recipientId"`
	ProjectID   *uint  `json:"projectId"`
	Body        string `json:"body"`
	Attachment  string `json:"attachment"`
}

func (s *MessageService) Send(ctx context.Context, senderID uint, in SendMessageInput) (*models.Message, error) {
	if in.Body == "" && in.Attachment == "" {
		return nil, fmt.Errorf("%w: message body required", ErrValidation)
	}
	if in.RecipientID == senderID {
		return nil, fmt.Errorf("%w: cannot message yourself", ErrValidation)
	}

	var recipient models.User
	err := s.DB.WithContext(ctx).First(&recipient, in.RecipientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, in.RecipientID)
	}
	if err != nil {
		return nil, err
	}

	if in.ProjectID != nil {
		var project models.Project
		err := s.DB.WithContext(ctx).First(&project, *in.ProjectID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project %d", ErrNotFound, *in.ProjectID)
		}
		if err != nil {
			return nil, err
		}
	}

	msg := models.Message{
		SenderID:    senderID,
		RecipientID: in.RecipientID,
		ProjectID:   in.ProjectID,
		Body:        in.Body,
		Attachment:  in.Attachment,
		CreatedAt:   time.Now().Unix(),
	}
	if err := s.DB.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// Conversation returns the exchange between userID and otherID and, as a
// side effect of the read itself, marks everything the counterpart sent to
// the reader as read. Re-marking already-read rows is a no-op, so fetching
// twice is safe.
func (s *MessageService) Conversation(ctx context.Context, userID, otherID uint) ([]models.Message, error) {
	if err := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND recipient_id = ? AND read = ?", otherID, userID, false).
		Update("read", true).Error; err != nil {
		return nil, err
	}

	var msgs []models.Message
	err := s.DB.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *MessageService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Count(&n).Error
	return n, err
}
