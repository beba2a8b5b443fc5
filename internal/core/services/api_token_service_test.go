package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/apperrors"
	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockAPITokenRepository is a mock type for the APITokenRepository interface
type MockAPITokenRepository struct {
	mock.Mock
}

func (m *MockAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAPITokenRepository) FindByID(ctx context.Context, id string) (*domain.APIToken, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIToken), args.Error(1)
}

func (m *MockAPITokenRepository) FindByMemberID(ctx context.Context, memberID string) ([]domain.APIToken, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.APIToken), args.Error(1)
}

func (m *MockAPITokenRepository) Update(ctx context.Context, token *domain.APIToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAPITokenRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPITokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAPITokenRepository) ListActive(ctx context.Context) ([]domain.APIToken, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.APIToken), args.Error(1)
}

// --- Test Suite Setup ---

type APITokenServiceTestSuite struct {
	suite.Suite
	mockRepo *MockAPITokenRepository
	service  portssvc.APITokenSvc
}

func (suite *APITokenServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockAPITokenRepository)
	suite.service = services.NewAPITokenService(suite.mockRepo)
}

// --- Test Cases ---

func (suite *APITokenServiceTestSuite) TestCreateToken_Success() {
	ctx := context.Background()
	var saved *domain.APIToken

	suite.mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.APIToken")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*domain.APIToken)
		}).Return(nil).Once()

	token, plaintext, err := suite.service.CreateToken(ctx, "member-1", "laptop", nil)

	suite.Require().NoError(err)
	suite.Require().NotNil(token)
	suite.NotEmpty(token.ID)
	suite.Equal("member-1", token.MemberID)
	suite.Equal("laptop", token.Name)
	suite.NotEmpty(token.TokenHash)

	// Plaintext carries the ID prefix so validation can hit a single row.
	id, secret, found := strings.Cut(plaintext, ".")
	suite.True(found)
	suite.Equal(token.ID, id)
	suite.NotEmpty(secret)
	suite.NotContains(token.TokenHash, secret, "the raw secret must never be stored")

	suite.Same(token, saved)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *APITokenServiceTestSuite) TestCreateToken_RequiresNameAndMember() {
	ctx := context.Background()

	_, _, err := suite.service.CreateToken(ctx, "", "laptop", nil)
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, _, err = suite.service.CreateToken(ctx, "member-1", "", nil)
	suite.ErrorIs(err, apperrors.ErrValidation)

	past := time.Now().Add(-time.Hour)
	_, _, err = suite.service.CreateToken(ctx, "member-1", "laptop", &past)
	suite.ErrorIs(err, apperrors.ErrValidation)

	suite.mockRepo.AssertNotCalled(suite.T(), "Create")
}

func (suite *APITokenServiceTestSuite) TestValidateToken_RoundTrip() {
	ctx := context.Background()
	var saved *domain.APIToken

	suite.mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.APIToken")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*domain.APIToken)
		}).Return(nil).Once()

	_, plaintext, err := suite.service.CreateToken(ctx, "member-1", "laptop", nil)
	suite.Require().NoError(err)

	suite.mockRepo.On("FindByID", ctx, saved.ID).Return(saved, nil).Once()
	suite.mockRepo.On("Update", ctx, saved).Return(nil).Once()

	validated, err := suite.service.ValidateToken(ctx, plaintext)

	suite.Require().NoError(err)
	suite.Equal("member-1", validated.MemberID)
	suite.NotNil(validated.LastUsedAt)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *APITokenServiceTestSuite) TestValidateToken_WrongSecretFails() {
	ctx := context.Background()
	var saved *domain.APIToken

	suite.mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.APIToken")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*domain.APIToken)
		}).Return(nil).Once()

	_, _, err := suite.service.CreateToken(ctx, "member-1", "laptop", nil)
	suite.Require().NoError(err)

	suite.mockRepo.On("FindByID", ctx, saved.ID).Return(saved, nil).Once()

	_, err = suite.service.ValidateToken(ctx, saved.ID+".wrong-secret")

	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	suite.mockRepo.AssertNotCalled(suite.T(), "Update")
}

func (suite *APITokenServiceTestSuite) TestValidateToken_MalformedFails() {
	ctx := context.Background()

	_, err := suite.service.ValidateToken(ctx, "no-separator")
	suite.ErrorIs(err, apperrors.ErrUnauthorized)

	_, err = suite.service.ValidateToken(ctx, ".secret-only")
	suite.ErrorIs(err, apperrors.ErrUnauthorized)

	suite.mockRepo.AssertNotCalled(suite.T(), "FindByID")
}

func (suite *APITokenServiceTestSuite) TestValidateToken_ExpiredIsDeleted() {
	ctx := context.Background()
	var saved *domain.APIToken

	suite.mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.APIToken")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*domain.APIToken)
		}).Return(nil).Once()

	future := time.Now().Add(time.Hour)
	_, plaintext, err := suite.service.CreateToken(ctx, "member-1", "laptop", &future)
	suite.Require().NoError(err)

	// Expire it behind the service's back.
	past := time.Now().Add(-time.Minute)
	saved.ExpiresAt = &past

	suite.mockRepo.On("FindByID", ctx, saved.ID).Return(saved, nil).Once()
	suite.mockRepo.On("Delete", ctx, saved.ID).Return(nil).Once()

	_, err = suite.service.ValidateToken(ctx, plaintext)

	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *APITokenServiceTestSuite) TestRevokeToken_OwnershipHidden() {
	ctx := context.Background()
	token := &domain.APIToken{ID: "tok-1", MemberID: "member-1"}

	suite.mockRepo.On("FindByID", ctx, "tok-1").Return(token, nil).Twice()
	suite.mockRepo.On("Delete", ctx, "tok-1").Return(nil).Once()

	// The owner can revoke.
	suite.Require().NoError(suite.service.RevokeToken(ctx, "member-1", "tok-1"))

	// Anyone else sees not-found, not forbidden.
	err := suite.service.RevokeToken(ctx, "member-2", "tok-1")
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestAPITokenServiceTestSuite(t *testing.T) {
	suite.Run(t, new(APITokenServiceTestSuite))
}
