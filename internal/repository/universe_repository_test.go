package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cosmos-backend/internal/errors"
	"cosmos-backend/internal/repository"
	"cosmos-backend/internal/universe"
)

type RepositoryIntegrationSuite struct {
	suite.Suite
	client    *mongo.Client
	repo      *repository.UniverseRepository
	container testcontainers.Container
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "mongo:6",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		s.T().Skipf("skipping integration test: %v", err)
		return
	}
	s.container = container

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "27017")
	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())

	s.client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
	s.Require().NoError(err)
	s.Require().NoError(s.client.Ping(ctx, nil))

	s.repo = repository.NewUniverseRepository(s.client.Database("cosmos_test"))
	s.Require().NoError(s.repo.EnsureIndexes(ctx))
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Disconnect(context.Background())
	}
	if s.container != nil {
		s.container.Terminate(context.Background())
	}
}

func (s *RepositoryIntegrationSuite) SetupTest() {
	if s.client == nil {
		s.T().Skip("mongo not initialized")
	}
	s.client.Database("cosmos_test").Collection("universes").Drop(context.Background())
}

func (s *RepositoryIntegrationSuite) TestCreateAndGet() {
	ctx := context.Background()
	u := universe.New("owner-1", "Alpha", "seed-1", universe.DifficultyBeginner, universe.DefaultConstants(), universe.InitialConditions{})

	s.Require().NoError(s.repo.Create(ctx, u))

	retrieved, err := s.repo.Get(ctx, u.ID)
	s.NoError(err)
	s.Equal(u.Name, retrieved.Name)
	s.Equal(u.OwnerID, retrieved.OwnerID)
}

func (s *RepositoryIntegrationSuite) TestGetMissingReturnsNotFound() {
	_, err := s.repo.Get(context.Background(), "does-not-exist")
	s.ErrorIs(err, errors.ErrUniverseNotFound)
}

func (s *RepositoryIntegrationSuite) TestListByOwnerReturnsSummaries() {
	ctx := context.Background()
	a := universe.New("owner-2", "Alpha", "seed-a", universe.DifficultyBeginner, universe.DefaultConstants(), universe.InitialConditions{})
	b := universe.New("owner-2", "Beta", "seed-b", universe.DifficultyAdvanced, universe.DefaultConstants(), universe.InitialConditions{})
	s.Require().NoError(s.repo.Create(ctx, a))
	s.Require().NoError(s.repo.Create(ctx, b))

	summaries, err := s.repo.ListByOwner(ctx, "owner-2")
	s.NoError(err)
	s.Len(summaries, 2)
}

func (s *RepositoryIntegrationSuite) TestSaveRejectsStaleVersion() {
	ctx := context.Background()
	u := universe.New("owner-3", "Gamma", "seed-c", universe.DifficultyBeginner, universe.DefaultConstants(), universe.InitialConditions{})
	s.Require().NoError(s.repo.Create(ctx, u))

	stale, err := s.repo.Get(ctx, u.ID)
	s.Require().NoError(err)

	fresh, err := s.repo.Get(ctx, u.ID)
	s.Require().NoError(err)
	fresh.Name = "Gamma Prime"
	s.Require().NoError(s.repo.Save(ctx, fresh))

	stale.Name = "Gamma Stale"
	err = s.repo.Save(ctx, stale)
	s.ErrorIs(err, errors.ErrWriteConflict)
}

func (s *RepositoryIntegrationSuite) TestSaveWithRetryRecoversFromConflict() {
	ctx := context.Background()
	u := universe.New("owner-4", "Delta", "seed-d", universe.DifficultyBeginner, universe.DefaultConstants(), universe.InitialConditions{})
	s.Require().NoError(s.repo.Create(ctx, u))

	concurrent, err := s.repo.Get(ctx, u.ID)
	s.Require().NoError(err)
	concurrent.Name = "Delta Concurrent"
	s.Require().NoError(s.repo.Save(ctx, concurrent))

	stale, err := s.repo.Get(ctx, u.ID)
	s.Require().NoError(err)
	stale.Version = u.Version

	err = s.repo.SaveWithRetry(ctx, &stale, func(target *universe.Universe) error {
		target.Name = "Delta Retried"
		return nil
	})
	s.NoError(err)

	final, err := s.repo.Get(ctx, u.ID)
	s.NoError(err)
	s.Equal("Delta Retried", final.Name)
}

func (s *RepositoryIntegrationSuite) TestDelete() {
	ctx := context.Background()
	u := universe.New("owner-5", "Epsilon", "seed-e", universe.DifficultyBeginner, universe.DefaultConstants(), universe.InitialConditions{})
	s.Require().NoError(s.repo.Create(ctx, u))

	s.Require().NoError(s.repo.Delete(ctx, u.ID))

	_, err := s.repo.Get(ctx, u.ID)
	s.ErrorIs(err, errors.ErrUniverseNotFound)
}

func TestRepositoryIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(RepositoryIntegrationSuite))
}
