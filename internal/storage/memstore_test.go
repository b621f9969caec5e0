package storage_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herms/internal/model"
	"herms/internal/storage"
	"herms/internal/storage/storagetest"
)

func TestMemStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		return storage.NewMemStore(storage.NewClock())
	})
}

func TestMemStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemStore(nil)

	owner, err := s.CreateProfile(ctx, model.InsertProfile{Email: "owner@example.com"})
	require.NoError(t, err)
	p, err := s.CreateProject(ctx, model.InsertProject{Title: "Launch", OwnerID: owner.ID})
	require.NoError(t, err)

	p.Title = "Changed by caller"

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Launch", got.Title)
}

func TestMemStore_ReturnsDeepCopies(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemStore(nil)

	name := "Alice"
	owner, err := s.CreateProfile(ctx, model.InsertProfile{Email: "owner@example.com", FullName: &name})
	require.NoError(t, err)
	p, err := s.CreateProject(ctx, model.InsertProject{Title: "Launch", OwnerID: owner.ID})
	require.NoError(t, err)
	tpl, err := s.CreateDocumentTemplate(ctx, model.InsertDocumentTemplate{Title: "NDA", Content: "x", CreatedBy: &owner.ID})
	require.NoError(t, err)
	due := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	task, err := s.CreateTask(ctx, model.InsertTask{
		Title: "Design", ProjectID: p.ID, CreatedBy: owner.ID, AssigneeID: &owner.ID, DueDate: &due,
	})
	require.NoError(t, err)
	url := "https://example.com/nda.pdf"
	doc, err := s.CreateDocument(ctx, model.InsertDocument{
		Title: "NDA", ProjectID: p.ID, CreatedBy: owner.ID, TemplateID: &tpl.ID, FileURL: &url,
	})
	require.NoError(t, err)

	// пишем через указатели возвращённых записей
	got, err := s.GetProfile(ctx, owner.ID)
	require.NoError(t, err)
	*got.FullName = "Mallory"
	*task.AssigneeID = uuid.New()
	*task.DueDate = due.AddDate(1, 0, 0)
	listed, err := s.ListTasks(ctx, p.ID)
	require.NoError(t, err)
	*listed[0].AssigneeID = uuid.New()
	*doc.TemplateID = uuid.New()
	*doc.FileURL = "https://evil.example.com"
	*tpl.CreatedBy = uuid.New()

	again, err := s.GetProfile(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", *again.FullName)

	storedTask, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, *storedTask.AssigneeID)
	assert.True(t, due.Equal(*storedTask.DueDate))

	storedDoc, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, *storedDoc.TemplateID)
	assert.Equal(t, url, *storedDoc.FileURL)

	storedTpl, err := s.GetDocumentTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, *storedTpl.CreatedBy)
}

func TestMemStore_ConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemStore(nil)

	owner, err := s.CreateProfile(ctx, model.InsertProfile{Email: "owner@example.com"})
	require.NoError(t, err)
	p, err := s.CreateProject(ctx, model.InsertProject{Title: "Launch", OwnerID: owner.ID})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateTask(ctx, model.InsertTask{Title: "Task", ProjectID: p.ID, CreatedBy: owner.ID})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	tasks, err := s.ListTasks(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 50)
	for i := 1; i < len(tasks); i++ {
		assert.True(t, tasks[i-1].CreatedAt.After(tasks[i].CreatedAt))
	}
}
