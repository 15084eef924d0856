package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/editlance/marketplace/internal/models"
)

type BidService struct {
	DB *gorm.DB
}

type BidInput struct {
	ProjectID    uint   `json:"project"`
	Amount       int64  `json:"amount"`
	DeliveryDays int    `json:"deliveryTime"`
	Proposal     string `json:"proposal"`
}

func (in BidInput) validate() error {
	if in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be > 0", ErrValidation)
	}
	if in.DeliveryDays <= 0 {
		return fmt.Errorf("%w: deliveryTime must be > 0", ErrValidation)
	}
	return nil
}

// Create places a bid on an open project. One bid per (project, freelancer)
// pair; the project's own client cannot bid.
func (s *BidService) Create(ctx context.Context, freelancerID uint, in BidInput) (*models.Bid, error) {
	if in.ProjectID == 0 {
		return nil, fmt.Errorf("%w: project required", ErrValidation)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var project models.Project
	err := s.DB.WithContext(ctx).First(&project, in.ProjectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: project %d", ErrNotFound, in.ProjectID)
	}
	if err != nil {
		return nil, err
	}

	if project.ClientID == freelancerID {
		return nil, fmt.Errorf("%w: cannot bid on your own project", ErrForbidden)
	}
	if project.Status != models.ProjectOpen {
		return nil, fmt.Errorf("%w: project is %s", ErrInvalidTransition, project.Status)
	}

	var existing models.Bid
	err = s.DB.WithContext(ctx).
		Where("project_id = ? AND freelancer_id = ?", in.ProjectID, freelancerID).
		First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: already bid on project %d", ErrConflict, in.ProjectID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	bid := models.Bid{
		ProjectID:    in.ProjectID,
		FreelancerID: freelancerID,
		Amount:       in.Amount,
		DeliveryDays: in.DeliveryDays,
		Proposal:     in.Proposal,
		Status:       models.BidPending,
		CreatedAt:    time.Now().Unix(),
	}
	if err := s.DB.WithContext(ctx).Create(&bid).Error; err != nil {
		// The unique index backs the in-flight duplicate check; anything
		// else is a real store failure and must not read as a conflict.
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: already bid on project %d", ErrConflict, in.ProjectID)
		}
		return nil, err
	}
	return &bid, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE") || strings.Contains(msg, "duplicate")
}

// pendingOwned loads a bid and enforces the shared update/withdraw guards:
// freelancer owns the bid, bid is pending, parent project is still open.
func (s *BidService) pendingOwned(ctx context.Context, freelancerID, bidID uint) (*models.Bid, error) {
	var bid models.Bid
	err := s.DB.WithContext(ctx).First(&bid, bidID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: bid %d", ErrNotFound, bidID)
	}
	if err != nil {
		return nil, err
	}

	if bid.FreelancerID != freelancerID {
		return nil, fmt.Errorf("%w: not your bid", ErrForbidden)
	}
	if bid.Status != models.BidPending {
		return nil, fmt.Errorf("%w: bid is %s", ErrInvalidTransition, bid.Status)
	}

	var project models.Project
	if err := s.DB.WithContext(ctx).First(&project, bid.ProjectID).Error; err != nil {
		return nil, err
	}
	if project.Status != models.ProjectOpen {
		return nil, fmt.Errorf("%w: project is %s", ErrInvalidTransition, project.Status)
	}

	return &bid, nil
}

func (s *BidService) Update(ctx context.Context, freelancerID, bidID uint, in BidInput) (*models.Bid, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	bid, err := s.pendingOwned(ctx, freelancerID, bidID)
	if err != nil {
		return nil, err
	}

	bid.Amount = in.Amount
	bid.DeliveryDays = in.DeliveryDays
	bid.Proposal = in.Proposal
	if err := s.DB.WithContext(ctx).Save(bid).Error; err != nil {
		return nil, err
	}
	return bid, nil
}

func (s *BidService) Withdraw(ctx context.Context, freelancerID, bidID uint) (*models.Bid, error) {
	bid, err := s.pendingOwned(ctx, freelancerID, bidID)
	if err != nil {
		return nil, err
	}

	res := s.DB.WithContext(ctx).Model(&models.Bid{}).
		Where("id = ? AND status = ?", bid.ID, models.BidPending).
		Updates(map[string]interface{}{"status": models.BidWithdrawn, "decided_at": time.Now().Unix()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: bid is no longer pending", ErrInvalidTransition)
	}

	var out models.Bid
	if err := s.DB.WithContext(ctx).First(&out, bid.ID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// decidable loads a bid with its project and enforces the accept/reject
// guards: actor owns the project, bid is pending.
func (s *BidService) decidable(ctx context.Context, tx *gorm.DB, clientID, bidID uint) (*models.Bid, *models.Project, error) {
	var bid models.Bid
	err := tx.First(&bid, bidID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("%w: bid %d", ErrNotFound, bidID)
	}
	if err != nil {
		return nil, nil, err
	}

	var project models.Project
	if err := tx.First(&project, bid.ProjectID).Error; err != nil {
		return nil, nil, err
	}

	if project.ClientID != clientID {
		return nil, nil, fmt.Errorf("%w: not your project", ErrForbidden)
	}
	if bid.Status != models.BidPending {
		return nil, nil, fmt.Errorf("%w: bid is %s", ErrInvalidTransition, bid.Status)
	}
	return &bid, &project, nil
}

// Accept is the one multi-record invariant in the system: the bid flips to
// accepted, the project to in_progress with the selected freelancer, and
// every sibling pending bid to rejected — all in one transaction, or none
// of it.
func (s *BidService) Accept(ctx context.Context, clientID, bidID uint) (*models.Bid, error) {
	err := withRetry(ctx, func(ctx context.Context) error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			bid, project, err := s.decidable(ctx, tx, clientID, bidID)
			if err != nil {
				return err
			}
			if project.Status != models.ProjectOpen {
				return fmt.Errorf("%w: project is %s", ErrInvalidTransition, project.Status)
			}

			now := time.Now().Unix()

			res := tx.Model(&models.Bid{}).
				Where("id = ? AND status = ?", bid.ID, models.BidPending).
				Updates(map[string]interface{}{"status": models.BidAccepted, "decided_at": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: bid is no longer pending", ErrInvalidTransition)
			}

			res = tx.Model(&models.Project{}).
				Where("id = ? AND status = ?", project.ID, models.ProjectOpen).
				Updates(map[string]interface{}{
					"status":                 models.ProjectInProgress,
					"selected_freelancer_id": bid.FreelancerID,
					"accepted_bid_id":        bid.ID,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: project is no longer open", ErrInvalidTransition)
			}

			// Fan-out rejection of the competing pending bids.
			return tx.Model(&models.Bid{}).
				Where("project_id = ? AND status = ? AND id <> ?", project.ID, models.BidPending, bid.ID).
				Updates(map[string]interface{}{"status": models.BidRejected, "decided_at": now}).Error
		})
	})
	if err != nil {
		return nil, err
	}

	var out models.Bid
	if err := s.DB.WithContext(ctx).First(&out, bidID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *BidService) Reject(ctx context.Context, clientID, bidID uint) (*models.Bid, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bid, _, err := s.decidable(ctx, tx, clientID, bidID)
		if err != nil {
			return err
		}

		res := tx.Model(&models.Bid{}).
			Where("id = ? AND status = ?", bid.ID, models.BidPending).
			Updates(map[string]interface{}{"status": models.BidRejected, "decided_at": time.Now().Unix()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: bid is no longer pending", ErrInvalidTransition)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out models.Bid
	if err := s.DB.WithContext(ctx).First(&out, bidID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *BidService) ListByProject(ctx context.Context, projectID uint, offset, limit int) (int64, []models.Bid, error) {
	q := s.DB.WithContext(ctx).Model(&models.Bid{}).Where("project_id = ?", projectID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var bids []models.Bid
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&bids).Error; err != nil {
		return 0, nil, err
	}
	return total, bids, nil
}
