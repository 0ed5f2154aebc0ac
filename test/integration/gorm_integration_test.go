package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"insightslm-be/internal/entity"
	"insightslm-be/internal/repository/specification"
	"insightslm-be/internal/repository/unitofwork"
	"insightslm-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.NotebookRepository())
	assert.NotNil(t, uow.ChatMessageRepository())
	assert.NotNil(t, uow.BookRepository())
	assert.NotNil(t, uow.DocumentChunkRepository())
	assert.NotNil(t, uow.NoteRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Check Document Chunk Repository", func(t *testing.T) {
		// Count implies table and vector column exist
		count, err := uow.DocumentChunkRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("DocumentChunk count: %d", count)
	})

	t.Run("Notebook And Chat Row Round Trip", func(t *testing.T) {
		ctx := context.Background()

		user := &entity.User{
			Id:       uuid.New(),
			Email:    "test-integration-" + uuid.New().String() + "@example.com",
			FullName: "Integration Test User",
		}
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()

		require.NoError(t, uow.UserRepository().Create(ctx, user))

		notebook := &entity.Notebook{
			Id:             uuid.New(),
			UserId:         user.Id,
			Name:           "Integration Notebook",
			SelectedBooks:  []string{},
			SelectedGenres: []string{"science"},
			CreatedAt:      time.Now(),
		}
		require.NoError(t, uow.NotebookRepository().Create(ctx, notebook))

		row := &entity.ChatMessage{
			Id:                uuid.New(),
			NotebookId:        notebook.Id,
			UserMessage:       "What is entropy?",
			AssistantResponse: "A measure of disorder.",
			CreatedAt:         time.Now(),
		}
		require.NoError(t, uow.ChatMessageRepository().Create(ctx, row))

		fetched, err := uow.NotebookRepository().FindOne(ctx, specification.ByID{ID: notebook.Id})
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, []string{"science"}, fetched.SelectedGenres)

		rows, err := uow.ChatMessageRepository().FindAll(ctx, specification.ByNotebookID{NotebookID: notebook.Id})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "What is entropy?", rows[0].UserMessage)

		require.NoError(t, uow.ChatMessageRepository().DeleteByNotebookId(ctx, notebook.Id))
		rows, err = uow.ChatMessageRepository().FindAll(ctx, specification.ByNotebookID{NotebookID: notebook.Id})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}
