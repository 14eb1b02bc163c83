package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"taskify-project/microservices/tasks-service/logging"
	"taskify-project/microservices/tasks-service/models"
	"taskify-project/microservices/tasks-service/repositories"
	"taskify-project/microservices/tasks-service/storage"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MaxUploadFiles       = 5
	MaxUploadSize  int64 = 10 * 1024 * 1024
)

var allowedMimeTypes = mapset.NewSet(
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"text/plain",
)

// UploadedFile is one received file. Size is the size the client declared.
type UploadedFile struct {
	OriginalName string
	MimeType     string
	Size         int64
	Content      io.Reader
}

type AssetService struct {
	tasks repositories.TaskStore
	files storage.FileStorage
	now   func() time.Time
}

func NewAssetService(tasks repositories.TaskStore, files storage.FileStorage) *AssetService {
	return &AssetService{tasks: tasks, files: files, now: time.Now}
}

func normalizeMimeType(value string) string {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return mediaType
}

func validateUpload(files []UploadedFile) error {
	if len(files) == 0 {
		return validation("No files uploaded")
	}
	if len(files) > MaxUploadFiles {
		return validation("Too many files. At most %d files can be uploaded at once", MaxUploadFiles)
	}
	for _, f := range files {
		if !allowedMimeTypes.Contains(normalizeMimeType(f.MimeType)) {
			return validation("File type %s is not allowed. Allowed types: PDF, DOC, DOCX, XLS, XLSX, PPT, PPTX, JPG, PNG, GIF, TXT", f.MimeType)
		}
		if f.Size > MaxUploadSize {
			return validation("File %s is too large. Maximum size is 10MB", f.OriginalName)
		}
	}
	return nil
}

// storedName builds a unique, path-free filename that keeps the original name readable.
func (s *AssetService) storedName(original string) string {
	base := path.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		base = "file"
	}
	return fmt.Sprintf("%d-%s-%s", s.now().UnixMilli(), uuid.NewString()[:8], base)
}

func (s *AssetService) cleanup(locations []string) {
	for _, loc := range locations {
		if err := s.files.Remove(loc); err != nil {
			logging.Logger.Warnf("Event ID: ASSET_CLEANUP_FAILED, Description: Failed to remove %s: %v", loc, err)
		}
	}
}

func (s *AssetService) write(loc string, content io.Reader) (int64, error) {
	w, err := s.files.Create(loc)
	if err != nil {
		return 0, dependency("Failed to store file", err)
	}
	n, err := io.Copy(w, io.LimitReader(content, MaxUploadSize+1))
	closeErr := w.Close()
	if err != nil {
		return n, dependency("Failed to store file", err)
	}
	if closeErr != nil {
		return n, dependency("Failed to store file", closeErr)
	}
	if n > MaxUploadSize {
		return n, validation("File is too large. Maximum size is 10MB")
	}
	return n, nil
}

// UploadAssets validates the files, writes them to storage and attaches them to the task.
// Any failure after the first write removes every file written by this call.
func (s *AssetService) UploadAssets(ctx context.Context, scope models.Scope, taskID string, files []UploadedFile) ([]models.Asset, error) {
	if err := validateUpload(files); err != nil {
		return nil, err
	}
	oid, err := parseTaskID(taskID)
	if err != nil {
		return nil, err
	}
	filter := repositories.ByID(scope, oid)

	var written []string
	assets := make([]models.Asset, 0, len(files))
	for _, f := range files {
		filename := s.storedName(f.OriginalName)
		loc := path.Join("tasks", oid.Hex(), filename)
		written = append(written, loc)

		size, err := s.write(loc, f.Content)
		if err != nil {
			s.cleanup(written)
			logging.Logger.Warnf("Event ID: ASSET_UPLOAD_REJECTED, Description: Upload of %s to task %s failed: %v", f.OriginalName, taskID, err)
			return nil, err
		}

		assets = append(assets, models.Asset{
			ID:              primitive.NewObjectID(),
			Filename:        filename,
			OriginalName:    f.OriginalName,
			StorageLocation: loc,
			Size:            size,
			MimeType:        normalizeMimeType(f.MimeType),
			UploadedBy:      scope.AccountID,
			UploadedAt:      s.now().UTC(),
		})
	}

	task, err := s.tasks.PushAssets(ctx, filter, assets)
	if err != nil {
		s.cleanup(written)
		if errors.Is(err, repositories.ErrNotFound) {
			logging.Logger.Warnf("Event ID: ASSET_UPLOAD_DENIED, Description: %s has no access to task %s, %d file(s) removed", scope.AccountID, taskID, len(written))
			return nil, notFound(msgTaskNotFound)
		}
		logging.Logger.Errorf("Event ID: ASSET_UPLOAD_FAILED, Description: Failed to attach files to task %s: %v", taskID, err)
		return nil, dependency("Failed to save uploaded files", err)
	}

	logging.Logger.Infof("Event ID: ASSETS_UPLOADED, Description: %d file(s) uploaded to task %s by %s", len(assets), taskID, scope.AccountID)
	return task.Assets, nil
}

func (s *AssetService) ListAssets(ctx context.Context, scope models.Scope, taskID string) ([]models.Asset, error) {
	task, err := s.findTask(ctx, scope, taskID)
	if err != nil {
		return nil, err
	}
	if task.Assets == nil {
		return []models.Asset{}, nil
	}
	return task.Assets, nil
}

func (s *AssetService) findTask(ctx context.Context, scope models.Scope, taskID string) (*models.Task, error) {
	oid, err := parseTaskID(taskID)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.FindOne(ctx, repositories.ByID(scope, oid))
	if err != nil {
		return nil, storeError(err, "Failed to fetch task")
	}
	return task, nil
}

func (s *AssetService) findAsset(ctx context.Context, scope models.Scope, taskID, assetID string) (*models.Task, *models.Asset, error) {
	task, err := s.findTask(ctx, scope, taskID)
	if err != nil {
		return nil, nil, err
	}
	oid, err := primitive.ObjectIDFromHex(assetID)
	if err != nil {
		return nil, nil, notFound(msgAssetNotFound)
	}
	asset := task.FindAsset(oid)
	if asset == nil {
		return nil, nil, notFound(msgAssetNotFound)
	}
	return task, asset, nil
}

// DownloadAsset opens the asset's bytes. The caller must close the returned reader.
func (s *AssetService) DownloadAsset(ctx context.Context, scope models.Scope, taskID, assetID string) (*models.Asset, io.ReadCloser, error) {
	_, asset, err := s.findAsset(ctx, scope, taskID, assetID)
	if err != nil {
		return nil, nil, err
	}
	content, _, err := s.files.Open(asset.StorageLocation)
	if err != nil {
		if errors.Is(err, storage.ErrFileMissing) {
			logging.Logger.Warnf("Event ID: ASSET_FILE_MISSING, Description: Asset %s of task %s has no file at %s", assetID, taskID, asset.StorageLocation)
			return nil, nil, notFound(msgFileMissing)
		}
		return nil, nil, dependency("Failed to read file", err)
	}
	return asset, content, nil
}

// DeleteAsset removes the asset's file, then its record. A file that is already gone is ignored.
func (s *AssetService) DeleteAsset(ctx context.Context, scope models.Scope, taskID, assetID string) error {
	task, asset, err := s.findAsset(ctx, scope, taskID, assetID)
	if err != nil {
		return err
	}
	if err := s.files.Remove(asset.StorageLocation); err != nil {
		logging.Logger.Errorf("Event ID: ASSET_FILE_DELETE_FAILED, Description: Failed to remove %s: %v", asset.StorageLocation, err)
		return dependency("Failed to delete file", err)
	}
	if err := s.tasks.PullAsset(ctx, repositories.ByID(scope, task.ID), asset.ID); err != nil {
		logging.Logger.Errorf("Event ID: ASSET_RECORD_DELETE_FAILED, Description: File of asset %s removed but record kept: %v", assetID, err)
		return storeError(err, "Failed to delete asset")
	}
	logging.Logger.Infof("Event ID: ASSET_DELETED, Description: Asset %s removed from task %s by %s", assetID, taskID, scope.AccountID)
	return nil
}
