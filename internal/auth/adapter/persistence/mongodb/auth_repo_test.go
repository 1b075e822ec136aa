package mongodb_test

import (
	"context"
	"testing"
	"time"

	"taskflow/internal/auth/adapter/persistence/mongodb"
	"taskflow/internal/auth/domain/model"
	"taskflow/internal/auth/domain/repository"
	apperrors "taskflow/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuthRepoTestSuite struct {
	suite.Suite
	client     *mongo.Client
	database   *mongo.Database
	repository repository.AuthRepository
}

func (suite *AuthRepoTestSuite) SetupSuite() {
	ctx := context.Background()

	// Connect to MongoDB test instance
	client, err := mongo.Connect(ctx, options.Client().ApplyURI("mongodb://localhost:27017"))
	if err != nil {
		suite.T().Skip("MongoDB not available for testing")
		return
	}

	suite.client = client
	suite.database = client.Database("auth_test_db")

	repo, err := mongodb.NewMongoAuthRepository(suite.database)
	if err != nil {
		suite.T().Skip("MongoDB not available for testing")
		return
	}
	suite.repository = repo
}

func (suite *AuthRepoTestSuite) SetupTest() {
	ctx := context.Background()
	_, err := suite.database.Collection("users").DeleteMany(ctx, bson.M{})
	require.NoError(suite.T(), err)
	_, err = suite.database.Collection("user_sessions").DeleteMany(ctx, bson.M{})
	require.NoError(suite.T(), err)
}

func (suite *AuthRepoTestSuite) TearDownSuite() {
	if suite.client != nil {
		suite.database.Drop(context.Background())
		suite.client.Disconnect(context.Background())
	}
}

func (suite *AuthRepoTestSuite) TestCreateUser_DuplicateEmailIsConflict() {
	ctx := context.Background()

	user := &model.User{ID: "provider-1", Email: "user@example.com", Name: "User"}
	require.NoError(suite.T(), suite.repository.CreateUser(ctx, user))

	dup := &model.User{ID: "provider-2", Email: "user@example.com", Name: "Impostor"}
	err := suite.repository.CreateUser(ctx, dup)
	assert.ErrorIs(suite.T(), err, apperrors.ErrConflict)
}

func (suite *AuthRepoTestSuite) TestGetUserByEmail() {
	ctx := context.Background()

	user := &model.User{ID: "provider-1", Email: "user@example.com", Name: "User"}
	require.NoError(suite.T(), suite.repository.CreateUser(ctx, user))

	got, err := suite.repository.GetUserByEmail(ctx, "user@example.com")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "provider-1", got.ID)

	got, err = suite.repository.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(suite.T(), err, apperrors.ErrUserNotFound)
	assert.Nil(suite.T(), got)
}

func (suite *AuthRepoTestSuite) TestSessionRoundTrip() {
	ctx := context.Background()

	session := &model.Session{
		UserID:       "provider-1",
		SessionToken: "token-1",
		ExpiresAt:    time.Now().UTC().Add(time.Hour).Truncate(time.Millisecond),
	}
	require.NoError(suite.T(), suite.repository.CreateSession(ctx, session))
	assert.NotEmpty(suite.T(), session.ID)

	got, err := suite.repository.GetSessionByToken(ctx, "token-1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), session.ID, got.ID)
	assert.Equal(suite.T(), "provider-1", got.UserID)

	got, err = suite.repository.GetSessionByToken(ctx, "unknown-token")
	assert.ErrorIs(suite.T(), err, apperrors.ErrSessionNotFound)
	assert.Nil(suite.T(), got)
}

func (suite *AuthRepoTestSuite) TestDeleteSessionByToken_Idempotent() {
	ctx := context.Background()

	session := &model.Session{
		UserID:       "provider-1",
		SessionToken: "token-1",
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
	}
	require.NoError(suite.T(), suite.repository.CreateSession(ctx, session))

	require.NoError(suite.T(), suite.repository.DeleteSessionByToken(ctx, "token-1"))
	// Deleting an already-deleted token is still success
	require.NoError(suite.T(), suite.repository.DeleteSessionByToken(ctx, "token-1"))

	_, err := suite.repository.GetSessionByToken(ctx, "token-1")
	assert.ErrorIs(suite.T(), err, apperrors.ErrSessionNotFound)
}

func (suite *AuthRepoTestSuite) TestDeleteUserSessions_ScopedToUser() {
	ctx := context.Background()
	expires := time.Now().UTC().Add(time.Hour)

	for _, s := range []*model.Session{
		{UserID: "user-a", SessionToken: "a-token-1", ExpiresAt: expires},
		{UserID: "user-a", SessionToken: "a-token-2", ExpiresAt: expires},
		{UserID: "user-b", SessionToken: "b-token-1", ExpiresAt: expires},
	} {
		require.NoError(suite.T(), suite.repository.CreateSession(ctx, s))
	}

	require.NoError(suite.T(), suite.repository.DeleteUserSessions(ctx, "user-a"))

	_, err := suite.repository.GetSessionByToken(ctx, "a-token-1")
	assert.ErrorIs(suite.T(), err, apperrors.ErrSessionNotFound)
	_, err = suite.repository.GetSessionByToken(ctx, "a-token-2")
	assert.ErrorIs(suite.T(), err, apperrors.ErrSessionNotFound)

	// The other user's session survives
	got, err := suite.repository.GetSessionByToken(ctx, "b-token-1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "user-b", got.UserID)
}

func TestAuthRepoTestSuite(t *testing.T) {
	suite.Run(t, new(AuthRepoTestSuite))
}
