package services

import (
	"context"
	"errors"
	"fmt"

	"meritbot/domain/entities"
	"meritbot/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// reportService implements the ReportService interface
type reportService struct {
	recipients interfaces.ReportRecipientRepository
	deliverer  interfaces.ReportDeliverer
}

// NewReportService creates a report fan-out service bound to one unit of work
func NewReportService(
	recipients interfaces.ReportRecipientRepository,
	deliverer interfaces.ReportDeliverer,
) interfaces.ReportService {
	return &reportService{
		recipients: recipients,
		deliverer:  deliverer,
	}
}

// Dispatch delivers the report to every subscribed recipient. A single
// failed delivery never aborts the fan-out; recipients that can no longer be
// messaged are removed from the set.
func (s *reportService) Dispatch(ctx context.Context, report interfaces.ActionReport) (*interfaces.DispatchResult, error) {
	recipients, err := s.recipients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list report recipients for guild %d: %w", report.GuildID, err)
	}

	result := &interfaces.DispatchResult{}
	for _, recipient := range recipients {
		err := s.deliverer.DeliverReport(ctx, recipient.UserID, report)
		if err == nil {
			result.Delivered++
			continue
		}

		if errors.Is(err, entities.ErrRecipientBlocked) {
			if pruneErr := s.recipients.Remove(ctx, recipient.UserID); pruneErr != nil {
				log.Errorf("Failed to prune blocked recipient %d in guild %d: %v",
					recipient.UserID, report.GuildID, pruneErr)
				result.Failed++
				continue
			}
			result.Pruned = append(result.Pruned, recipient.UserID)
			continue
		}

		log.Warnf("Failed to deliver report to recipient %d in guild %d: %v",
			recipient.UserID, report.GuildID, err)
		result.Failed++
	}

	return result, nil
}
