package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aklny/internal/model"
	"aklny/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	UserEmail  string `json:"user_email"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

// AuditEntry describes one security relevant event.
type AuditEntry struct {
	UserID     *uuid.UUID
	Action     string
	EntityID   string
	EntityName string
	Details    interface{}
}

type AuditService interface {
	// Log writes the entry and returns any failure, so callers inside a
	// transaction can roll back with it.
	Log(ctx context.Context, entry AuditEntry) error
	// Record writes the entry and only logs a failure.
	Record(ctx context.Context, entry AuditEntry)
	GetAuditLogs(ctx context.Context, page, limit int, filter repository.AuditFilter) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo   repository.AuditRepository
	logger *zap.Logger
}

func NewAuditService(repo repository.AuditRepository, logger *zap.Logger) AuditService {
	return &auditService{repo: repo, logger: logger.Named("audit")}
}

func (s *auditService) Log(ctx context.Context, entry AuditEntry) error {
	details := "{}"
	if entry.Details != nil {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
		details = string(raw)
	}

	log := &model.AuditLog{
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityID:   entry.EntityID,
		EntityName: entry.EntityName,
		Details:    details,
	}
	if err := s.repo.Log(ctx, log); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	if err := s.Log(ctx, entry); err != nil {
		s.logger.Error("audit entry dropped", zap.String("action", entry.Action), zap.String("entity_id", entry.EntityID), zap.Error(err))
	}
}

func (s *auditService) GetAuditLogs(ctx context.Context, page, limit int, filter repository.AuditFilter) ([]AuditLogResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	logs, total, err := s.repo.List(ctx, page, limit, filter)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		email := "anonymous"
		userID := ""
		if l.User != nil {
			email = l.User.Email
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			UserEmail:  email,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format(time.RFC3339),
		})
	}

	return res, total, nil
}

func userRef(id uuid.UUID) *uuid.UUID {
	return &id
}
