package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/dmelnick/relaychat/internal/database"
	"github.com/dmelnick/relaychat/internal/types"
)

// reportCaptureCount is how many recent messages a report snapshots.
const reportCaptureCount = 3

// FileReport snapshots the room's most recent messages into an immutable
// report record for moderation review. The snapshot is taken once, at filing
// time, and never tracks later edits or deletions.
func (s *Service) FileReport(ctx context.Context, roomId, reporterId int, targetUserId int) (types.Report, error) {
	if _, err := s.db.GetMember(roomId, reporterId); err != nil {
		if errors.Is(storeErr(err), ErrNotFound) {
			return types.Report{}, ErrForbidden
		}
		return types.Report{}, storeErr(err)
	}

	// deleted rows don't count toward the capture; keep paging back until
	// enough survive or history runs out
	captured := make([]types.CapturedMessage, 0, reportCaptureCount)
	before := 0
	for {
		page, err := s.db.GetMessages(roomId, 0, before, reportCaptureCount*3)
		if err != nil {
			return types.Report{}, storeErr(err)
		}

		for _, m := range page {
			if m.IsDeleted {
				continue
			}
			captured = append(captured, types.CapturedMessage{
				SenderId:   m.SenderId,
				SenderName: m.SenderName,
				Preview:    preview(m.Content, m.AttachmentName),
				SentAt:     m.CreatedAt,
			})
			if len(captured) == reportCaptureCount {
				break
			}
		}

		if len(captured) == reportCaptureCount || len(page) < reportCaptureCount*3 {
			break
		}
		before = page[len(page)-1].SeqId
	}

	// store chronologically; the page arrives newest first
	for i, j := 0, len(captured)-1; i < j; i, j = i+1, j-1 {
		captured[i], captured[j] = captured[j], captured[i]
	}

	payload, err := json.Marshal(captured)
	if err != nil {
		return types.Report{}, fmt.Errorf("marshal captured messages: %w", err)
	}

	params := database.CreateReportParams{
		Id:               uuid.NewString(),
		RoomId:           roomId,
		ReportedBy:       reporterId,
		CapturedMessages: payload,
	}
	if targetUserId != 0 {
		params.TargetUserId = &targetUserId
	}

	report, err := s.db.CreateReport(params)
	if err != nil {
		return types.Report{}, storeErr(err)
	}

	return toReport(report)
}

// UpdateReport lets an admin move a report through the review workflow. Only
// status and notes are mutable; the captured snapshot never changes.
func (s *Service) UpdateReport(ctx context.Context, adminId int, reportId, status, notes string) (types.Report, error) {
	if err := s.requireAdmin(adminId); err != nil {
		return types.Report{}, err
	}

	switch status {
	case types.ReportStatusPending, types.ReportStatusNoAction, types.ReportStatusActionTaken:
	default:
		return types.Report{}, fmt.Errorf("%w: unknown report status %q", ErrInvariant, status)
	}

	report, err := s.db.UpdateReport(database.UpdateReportParams{
		Id:         reportId,
		Status:     status,
		AdminNotes: notes,
	})
	if err != nil {
		return types.Report{}, storeErr(err)
	}

	return toReport(report)
}

func (s *Service) ListReports(ctx context.Context, adminId int) ([]types.Report, error) {
	if err := s.requireAdmin(adminId); err != nil {
		return nil, err
	}

	dbReports, err := s.db.ListReports()
	if err != nil {
		return nil, storeErr(err)
	}

	reports := make([]types.Report, 0, len(dbReports))
	for _, r := range dbReports {
		report, err := toReport(r)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, nil
}

func (s *Service) requireAdmin(userId int) error {
	actor, err := s.db.GetAccountById(userId)
	if err != nil {
		return storeErr(err)
	}
	if !actor.IsAdmin {
		return ErrForbidden
	}
	return nil
}

func toReport(r database.Report) (types.Report, error) {
	report := types.Report{
		Id:               r.Id,
		RoomId:           r.RoomId,
		ReportedByUserId: r.ReportedBy,
		Status:           r.Status,
		AdminNotes:       r.AdminNotes,
		CreatedAt:        r.CreatedAt,
	}
	if r.TargetUserId != nil {
		report.TargetUserId = *r.TargetUserId
	}

	if err := json.Unmarshal(r.CapturedMessages, &report.CapturedMessages); err != nil {
		return types.Report{}, fmt.Errorf("unmarshal captured messages: %w", err)
	}

	return report, nil
}
