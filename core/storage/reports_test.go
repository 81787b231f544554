package storage

import (
	"context"
	"testing"

	"cdc-reconciler/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUploadReport(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "reports").Return(true, nil)
	client.On("PutObject", mock.Anything, "reports", "reports/users/run-1.json",
		mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	name, err := UploadReport(context.Background(), client, "reports", "users", "run-1",
		map[string]any{"match_percentage": 99.5})
	require.NoError(t, err)
	assert.Equal(t, "reports/users/run-1.json", name)
	client.AssertExpectations(t)
}

func TestUploadReport_CreatesBucket(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "reports").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "reports", mock.Anything).Return(nil)
	client.On("PutObject", mock.Anything, "reports", mock.Anything,
		mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	_, err := UploadReport(context.Background(), client, "reports", "users", "run-2", map[string]any{})
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestUploadReport_BucketCheckFails(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "reports").Return(false, assert.AnError)

	_, err := UploadReport(context.Background(), client, "reports", "users", "run-3", map[string]any{})
	assert.Error(t, err)
}
