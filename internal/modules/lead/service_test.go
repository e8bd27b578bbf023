package lead

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"divemanager/internal/domain"
	"divemanager/internal/repository"
)

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	args := m.Called(ctx, lead)
	if lead != nil {
		lead.ID = 5
	}
	return args.Error(0)
}

func TestCapture_NormalizesEmail(t *testing.T) {
	leads := new(MockLeadRepository)
	s := NewService(leads, nil)

	leads.On("Create", mock.Anything, mock.MatchedBy(func(l *domain.Lead) bool {
		return l.Email == "curious@example.com" && l.Status == domain.LeadNew
	})).Return(nil)

	l, err := s.Capture(context.Background(), 7, CaptureRequest{Email: " Curious@Example.COM ", Name: "Cas"})

	assert.NoError(t, err)
	assert.Equal(t, int64(5), l.ID)
	leads.AssertExpectations(t)
}

func TestCapture_Duplicate(t *testing.T) {
	leads := new(MockLeadRepository)
	s := NewService(leads, nil)

	leads.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

	_, err := s.Capture(context.Background(), 7, CaptureRequest{Email: "curious@example.com"})

	assert.ErrorIs(t, err, ErrAlreadyCaptured)
}
