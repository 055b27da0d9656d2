package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"sokoni/internal/domain"
	"sokoni/internal/models"
	"sokoni/internal/repository"
	"sokoni/pkg/staging"

	"gorm.io/gorm"
)

var (
	ErrMissingArtifact  = errors.New("payment screenshot is required")
	ErrArtifactUpload   = errors.New("failed to store payment screenshot")
	ErrInvalidStatus    = errors.New("payment status must be VERIFIED or REJECTED")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrAlreadyProcessed = errors.New("payment has already been processed")
	ErrUserNotFound     = errors.New("user not found")
)

// PaymentService owns the payment lifecycle: a payment is created PENDING
// with a durably stored screenshot, transitions exactly once to VERIFIED or
// REJECTED, and credits the owner's balance on verification.
type PaymentService struct {
	payments *repository.PaymentRepository
	users    *repository.UserRepository
	stager   *staging.Stager
}

func NewPaymentService(payments *repository.PaymentRepository, users *repository.UserRepository, stager *staging.Stager) *PaymentService {
	return &PaymentService{payments: payments, users: users, stager: stager}
}

// Submit stages the screenshot and records a PENDING payment. On staging
// failure nothing is persisted, so no payment can exist without a reachable
// artifact.
func (s *PaymentService) Submit(ctx context.Context, userID uint, amountCents int64, screenshot []byte) (*models.Payment, error) {
	if len(screenshot) == 0 {
		return nil, ErrMissingArtifact
	}
	// Reject a bad amount before uploading so an invalid request leaves no
	// orphan artifact in blob storage.
	if amountCents <= 0 {
		return nil, repository.ErrInvalidAmount
	}
	url, err := s.stager.Stage(ctx, screenshot)
	if err != nil {
		if errors.Is(err, staging.ErrEmptyArtifact) {
			return nil, ErrMissingArtifact
		}
		return nil, fmt.Errorf("%w: %v", ErrArtifactUpload, err)
	}
	p := &models.Payment{
		UserID:        userID,
		AmountCents:   amountCents,
		ScreenshotURL: url,
	}
	if err := s.payments.Create(p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetStatus resolves a PENDING payment to VERIFIED or REJECTED. The status
// write is a conditional update that only one caller can win, so a payment is
// never resolved twice and the credit below never applies twice.
func (s *PaymentService) SetStatus(ctx context.Context, paymentID uint, status string) (*models.Payment, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status != domain.PaymentStatusVerified && status != domain.PaymentStatusRejected {
		return nil, ErrInvalidStatus
	}
	p, err := s.payments.GetByID(paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	won, err := s.payments.Resolve(paymentID, status)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrAlreadyProcessed
	}
	p.Status = status

	// The credit follows the status write. If we crash in between, the
	// payment reads VERIFIED with no credit applied, which an audit can find
	// and fix; the reverse order could silently inflate a balance.
	if status == domain.PaymentStatusVerified {
		if err := s.users.AddCredits(p.UserID, p.AmountCents); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("[payment] id=%d verified but owner user=%d is gone; credit not applied", p.ID, p.UserID)
				return nil, ErrUserNotFound
			}
			log.Printf("[payment] id=%d verified but credit failed: %v", p.ID, err)
			return nil, err
		}
	}
	return p, nil
}

// History returns the user's own payments, newest first.
func (s *PaymentService) History(userID uint) ([]models.Payment, error) {
	return s.payments.ListByUser(userID)
}

// ListAll returns every payment, pending first then oldest first.
func (s *PaymentService) ListAll() ([]models.Payment, error) {
	return s.payments.ListAll()
}

func (s *PaymentService) Get(paymentID uint) (*models.Payment, error) {
	p, err := s.payments.GetByID(paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}
