package exam

import (
	"context"
	"fmt"

	"github.com/pavelanni/bandscore/internal/model"
	"github.com/pavelanni/bandscore/internal/scoring"
)

// GradeTest marks answers against a listening or reading test without
// touching any session. Nothing is stored.
func (s *Service) GradeTest(ctx context.Context, testID string, answers []model.StudentAnswer) (scoring.Report, error) {
	test, err := s.repo.GetTest(ctx, testID)
	if err != nil {
		return scoring.Report{}, err
	}
	table, err := scoring.TableFor(test.Skill, test.TestType)
	if err != nil {
		return scoring.Report{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return scoring.Grade(answers, test.Sections, table), nil
}
