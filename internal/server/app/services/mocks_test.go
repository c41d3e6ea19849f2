package services_test

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"notedrop/internal/server/domain/entities"
)

type mockNoteRepository struct {
	mock.Mock
}

func (m *mockNoteRepository) GetByPath(ctx context.Context, path string) (*entities.Note, error) {
	args := m.Called(ctx, path)
	if note := args.Get(0); note != nil {
		return note.(*entities.Note), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNoteRepository) Upsert(ctx context.Context, path, content string) (*entities.Note, error) {
	args := m.Called(ctx, path, content)
	if note := args.Get(0); note != nil {
		return note.(*entities.Note), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNoteRepository) EnsureByPath(ctx context.Context, path string) (*entities.Note, error) {
	args := m.Called(ctx, path)
	if note := args.Get(0); note != nil {
		return note.(*entities.Note), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockFileRepository struct {
	mock.Mock
}

func (m *mockFileRepository) Create(ctx context.Context, ref *entities.FileRef) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *mockFileRepository) GetByID(ctx context.Context, id string) (*entities.FileRef, error) {
	args := m.Called(ctx, id)
	if ref := args.Get(0); ref != nil {
		return ref.(*entities.FileRef), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFileRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockFileRepository) CountByNoteID(ctx context.Context, noteID string) (int, error) {
	args := m.Called(ctx, noteID)
	return args.Int(0), args.Error(1)
}

type mockObjectStorage struct {
	mock.Mock
}

func (m *mockObjectStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, body, size, contentType)
	return args.Error(0)
}

func (m *mockObjectStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockObjectStorage) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	args := m.Called(ctx, key, expires)
	return args.String(0), args.Error(1)
}

type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	args := m.Called(ctx, channel, payload)
	return args.Error(0)
}
