package review

import (
	"context"

	"dateflow/auth"
	"dateflow/meeting"
)

// Service guards the review queue. Opening a case is an internal operation
// driven by finalize; listing and resolving are moderator actions.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Open implements the queue hook the finalize coordinator calls for
// pending_review settlements.
func (s *Service) Open(ctx context.Context, meetingID, openedBy string) error {
	return s.repo.Open(ctx, meetingID, openedBy)
}

func (s *Service) List(ctx context.Context, role auth.Role, status Status) ([]Case, error) {
	if !role.Privileged() {
		return nil, meeting.ErrForbidden
	}
	return s.repo.List(ctx, status)
}

func (s *Service) Resolve(ctx context.Context, role auth.Role, caseID, resolvedBy string) (Case, error) {
	if !role.Privileged() {
		return Case{}, meeting.ErrForbidden
	}
	return s.repo.Resolve(ctx, caseID, resolvedBy)
}
