package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"taskify-project/microservices/tasks-service/models"
	"taskify-project/microservices/tasks-service/repositories"
	"taskify-project/microservices/tasks-service/storage"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func countFiles(t *testing.T, fs afero.Fs) int {
	t.Helper()
	n := 0
	err := afero.Walk(fs, "/", func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

func textFile(name, body string) UploadedFile {
	return UploadedFile{OriginalName: name, MimeType: "text/plain", Size: int64(len(body)), Content: strings.NewReader(body)}
}

type failingAssetStore struct {
	*repositories.MemoryTaskRepo
}

func (failingAssetStore) PushAssets(context.Context, repositories.TaskFilter, []models.Asset) (*models.Task, error) {
	return nil, errors.New("write concern error")
}

func TestUploadAssets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "docs", "u1")

	assets, err := f.assetService.UploadAssets(ctx, member, task.ID.Hex(), []UploadedFile{
		textFile("a.txt", "alpha"),
		{OriginalName: "chart.png", MimeType: "image/png", Size: 3, Content: bytes.NewReader([]byte{1, 2, 3})},
		textFile("c.txt", "gamma"),
	})
	require.NoError(t, err)
	require.Len(t, assets, 3)
	assert.Equal(t, 3, countFiles(t, f.fs))

	ids := map[primitive.ObjectID]bool{}
	for _, a := range assets {
		ids[a.ID] = true
		assert.Equal(t, "u1", a.UploadedBy)
		assert.True(t, strings.HasPrefix(a.StorageLocation, "tasks/"+task.ID.Hex()+"/"))
		assert.True(t, strings.HasSuffix(a.Filename, a.OriginalName))
	}
	assert.Len(t, ids, 3, "asset ids are unique")
	assert.Equal(t, int64(3), assets[1].Size)
	assert.Equal(t, "image/png", assets[1].MimeType)

	more, err := f.assetService.UploadAssets(ctx, admin, task.ID.Hex(), []UploadedFile{textFile("d.txt", "delta")})
	require.NoError(t, err)
	assert.Len(t, more, 4, "returns the full asset list")

	listed, err := f.assetService.ListAssets(ctx, member, task.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, more, listed)
}

func TestUploadAssets_DoubleDotInName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "docs", "u1")

	assets, err := f.assetService.UploadAssets(ctx, member, task.ID.Hex(), []UploadedFile{
		textFile("release..notes.txt", "x"),
		textFile("a..b.txt", "y"),
	})
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "release..notes.txt", assets[0].OriginalName)
	assert.Equal(t, 2, countFiles(t, f.fs))

	_, content, err := f.assetService.DownloadAsset(ctx, member, task.ID.Hex(), assets[1].ID.Hex())
	require.NoError(t, err)
	body, err := io.ReadAll(content)
	require.NoError(t, err)
	require.NoError(t, content.Close())
	assert.Equal(t, "y", string(body))
}

func TestUploadAssets_ValidationWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "docs", "u1")

	cases := map[string][]UploadedFile{
		"no files":      nil,
		"too many":      {textFile("1", "x"), textFile("2", "x"), textFile("3", "x"), textFile("4", "x"), textFile("5", "x"), textFile("6", "x")},
		"bad mime":      {textFile("ok.txt", "x"), {OriginalName: "run.exe", MimeType: "application/x-msdownload", Content: strings.NewReader("MZ")}},
		"declared size": {{OriginalName: "big.pdf", MimeType: "application/pdf", Size: MaxUploadSize + 1, Content: strings.NewReader("x")}},
	}
	for name, files := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.assetService.UploadAssets(ctx, member, task.ID.Hex(), files)
			assert.True(t, IsValidation(err), "got %v", err)
			assert.Equal(t, 0, countFiles(t, f.fs))
		})
	}
}

func TestUploadAssets_MimeParameters(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "docs", "u1")

	assets, err := f.assetService.UploadAssets(context.Background(), member, task.ID.Hex(), []UploadedFile{
		{OriginalName: "a.txt", MimeType: "Text/Plain; charset=utf-8", Size: 1, Content: strings.NewReader("a")},
	})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", assets[0].MimeType)
}

func TestUploadAssets_OversizedContentIsRemoved(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "docs", "u1")

	_, err := f.assetService.UploadAssets(context.Background(), member, task.ID.Hex(), []UploadedFile{
		textFile("small.txt", "fine"),
		{OriginalName: "liar.txt", MimeType: "text/plain", Size: 10, Content: bytes.NewReader(make([]byte, MaxUploadSize+1))},
	})
	assert.True(t, IsValidation(err))
	assert.Equal(t, 0, countFiles(t, f.fs))
}

func TestUploadAssets_OutOfScopeLeavesNoFiles(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "docs", "u1")

	_, err := f.assetService.UploadAssets(context.Background(), other, task.ID.Hex(), []UploadedFile{
		textFile("a.txt", "a"), textFile("b.txt", "b"), textFile("c.txt", "c"),
	})
	require.True(t, IsNotFound(err))
	assert.Equal(t, msgTaskNotFound, PublicMessage(err))
	assert.Equal(t, 0, countFiles(t, f.fs))

	stored, err := f.tasks.FindOne(context.Background(), repositories.ByID(admin, task.ID))
	require.NoError(t, err)
	assert.Empty(t, stored.Assets)
}

func TestUploadAssets_StoreFailureLeavesNoFiles(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "docs", "u1")
	svc := NewAssetService(failingAssetStore{f.tasks}, storage.NewStorage(f.fs))

	_, err := svc.UploadAssets(context.Background(), member, task.ID.Hex(), []UploadedFile{textFile("a.txt", "a")})
	assert.True(t, IsDependency(err))
	assert.Equal(t, 0, countFiles(t, f.fs))
}

func TestDownloadAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "docs", "u1")
	assets, err := f.assetService.UploadAssets(ctx, member, task.ID.Hex(), []UploadedFile{textFile("report.txt", "quarterly")})
	require.NoError(t, err)
	id := assets[0].ID.Hex()

	asset, content, err := f.assetService.DownloadAsset(ctx, member, task.ID.Hex(), id)
	require.NoError(t, err)
	body, err := io.ReadAll(content)
	require.NoError(t, err)
	require.NoError(t, content.Close())
	assert.Equal(t, "quarterly", string(body))
	assert.Equal(t, "report.txt", asset.OriginalName)
	assert.Equal(t, int64(9), asset.Size)

	_, _, err = f.assetService.DownloadAsset(ctx, other, task.ID.Hex(), id)
	assert.Equal(t, msgTaskNotFound, PublicMessage(err))

	_, _, err = f.assetService.DownloadAsset(ctx, member, task.ID.Hex(), primitive.NewObjectID().Hex())
	assert.Equal(t, msgAssetNotFound, PublicMessage(err))

	require.NoError(t, f.fs.Remove("/"+assets[0].StorageLocation))
	_, _, err = f.assetService.DownloadAsset(ctx, member, task.ID.Hex(), id)
	require.True(t, IsNotFound(err))
	assert.Equal(t, msgFileMissing, PublicMessage(err))
}

func TestDeleteAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "docs", "u1")
	assets, err := f.assetService.UploadAssets(ctx, member, task.ID.Hex(), []UploadedFile{
		textFile("keep.txt", "k"), textFile("drop.txt", "d"),
	})
	require.NoError(t, err)

	assert.True(t, IsNotFound(f.assetService.DeleteAsset(ctx, other, task.ID.Hex(), assets[1].ID.Hex())))
	assert.Equal(t, 2, countFiles(t, f.fs))

	require.NoError(t, f.assetService.DeleteAsset(ctx, member, task.ID.Hex(), assets[1].ID.Hex()))
	assert.Equal(t, 1, countFiles(t, f.fs))

	remaining, err := f.assetService.ListAssets(ctx, member, task.ID.Hex())
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "keep.txt", remaining[0].OriginalName)

	err = f.assetService.DeleteAsset(ctx, member, task.ID.Hex(), assets[1].ID.Hex())
	assert.Equal(t, msgAssetNotFound, PublicMessage(err))

	require.NoError(t, f.fs.Remove("/"+assets[0].StorageLocation))
	require.NoError(t, f.assetService.DeleteAsset(ctx, member, task.ID.Hex(), assets[0].ID.Hex()), "a missing file does not block deletion")
}
