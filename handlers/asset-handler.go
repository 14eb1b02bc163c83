package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"taskify-project/microservices/tasks-service/logging"
	"taskify-project/microservices/tasks-service/services"

	"github.com/gorilla/mux"
)

const (
	uploadField     = "files"
	multipartMemory = 8 << 20
	// the form may carry a little more than the files themselves
	maxUploadBody = services.MaxUploadFiles*services.MaxUploadSize + 1<<20
)

type AssetHandler struct {
	service *services.AssetService
}

func NewAssetHandler(service *services.AssetService) *AssetHandler {
	return &AssetHandler{service: service}
}

func openUploads(headers []*multipart.FileHeader) ([]services.UploadedFile, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	files := make([]services.UploadedFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open %s: %w", header.Filename, err)
		}
		opened = append(opened, f)
		files = append(files, services.UploadedFile{
			OriginalName: header.Filename,
			MimeType:     header.Header.Get("Content-Type"),
			Size:         header.Size,
			Content:      f,
		})
	}
	return files, closeAll, nil
}

func (h *AssetHandler) UploadAssets(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	taskID := mux.Vars(r)["id"]

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeBadRequest(w, "Upload is too large. Maximum size is 10MB per file")
			return
		}
		writeBadRequest(w, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files, closeAll, err := openUploads(r.MultipartForm.File[uploadField])
	if err != nil {
		logging.Logger.Errorf("Event ID: ASSET_UPLOAD_READ_FAILED, Description: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{Status: false, Message: "Failed to read uploaded files"})
		return
	}
	defer closeAll()

	assets, err := h.service.UploadAssets(r.Context(), scope, taskID, files)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, fmt.Sprintf("%d file(s) uploaded successfully", len(files)), assets)
}

func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	assets, err := h.service.ListAssets(r.Context(), scope, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", assets)
}

// contentDisposition names the attachment after filename with control characters removed.
// A name with nothing left gives a bare "attachment".
func contentDisposition(filename string) string {
	name := strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return -1
		}
		return r
	}, filename))
	if name == "" {
		return "attachment"
	}
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}

// DownloadAsset streams the file under its original name. The file is closed when the
// copy ends, including when the client goes away.
func (h *AssetHandler) DownloadAsset(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	asset, content, err := h.service.DownloadAsset(r.Context(), scope, vars["id"], vars["assetId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Disposition", contentDisposition(asset.OriginalName))
	w.Header().Set("Content-Type", asset.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(asset.Size, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, content); err != nil {
		logging.Logger.Warnf("Event ID: ASSET_DOWNLOAD_INTERRUPTED, Description: Download of asset %s stopped: %v", asset.ID.Hex(), err)
	}
}

func (h *AssetHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	if err := h.service.DeleteAsset(r.Context(), scope, vars["id"], vars["assetId"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Asset deleted successfully", nil)
}
