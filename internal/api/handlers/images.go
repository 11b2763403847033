package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/audit"
	"github.com/your-org/photohub/internal/auth"
	"github.com/your-org/photohub/internal/media"
	"github.com/your-org/photohub/internal/models"
	"github.com/your-org/photohub/internal/queue"
	"github.com/your-org/photohub/internal/storage"
	"github.com/your-org/photohub/pkg/dto"
)

type ImageHandler struct {
	db       *storage.PostgresStore
	minio    *storage.MinIOStore
	producer *queue.Producer
	recorder Recorder
}

func NewImageHandler(db *storage.PostgresStore, minio *storage.MinIOStore, producer *queue.Producer, recorder Recorder) *ImageHandler {
	return &ImageHandler{db: db, minio: minio, producer: producer, recorder: recorder}
}

func toImageResponse(img models.Image) dto.ImageResponse {
	resp := dto.ImageResponse{
		ID:           img.ID,
		EventID:      img.EventID,
		Filename:     img.Filename,
		UploadedBy:   img.UploadedBy,
		ConsentGiven: img.ConsentGiven,
		FileSize:     img.FileSize,
		ContentType:  img.ContentType,
		Timestamp:    formatTime(img.Timestamp),
		ContentURL:   dto.ImageContentURL(img.EventID, img.ID),
	}
	if img.ThumbnailURL != nil {
		thumb := dto.ImageThumbnailURL(img.EventID, img.ID)
		resp.ThumbnailURL = &thumb
	}
	if img.CapturedAt != nil {
		s := formatTime(*img.CapturedAt)
		resp.CapturedAt = &s
	}
	return resp
}

// Upload handles POST /v1/upload (multipart: file, event_id, consent_given).
func (h *ImageHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()
	user := auth.CurrentUser(c)

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds the maximum allowed size"})
			return
		}
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only image uploads are allowed"})
		return
	}

	eventID, err := uuid.Parse(c.PostForm("event_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event_id"})
		return
	}
	exists, err := h.db.EventExists(ctx, eventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	consent, _ := strconv.ParseBool(c.DefaultPostForm("consent_given", "false"))

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}

	imageID := uuid.New()
	key := storage.ImageKey(eventID.String(), imageID.String(), media.Extension(header.Filename, contentType))
	tags := map[string]string{
		"consent_given": strconv.FormatBool(consent),
		"uploaded_by":   user.ID.String(),
		"upload_time":   time.Now().UTC().Format("2006-01-02T15-04-05Z"),
	}
	if err := h.minio.PutObject(ctx, key, data, contentType, tags); err != nil {
		slog.Error("store image object", "key", key, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not store image"})
		return
	}
	objects := []string{key}

	img := &models.Image{
		ID:           imageID,
		EventID:      eventID,
		Filename:     key,
		UploadedBy:   user.ID,
		ConsentGiven: consent,
		FileSize:     int64(len(data)),
		ContentType:  contentType,
		CapturedAt:   media.CapturedAt(data),
	}

	// A missing thumbnail is not fatal; content is still served from the original.
	if thumb, err := media.Thumbnail(data, media.ThumbnailMaxSize); err != nil {
		slog.Warn("generate thumbnail", "image_id", imageID, "error", err)
	} else {
		thumbKey := storage.ThumbnailKey(eventID.String(), imageID.String())
		if err := h.minio.PutObject(ctx, thumbKey, thumb, "image/jpeg", nil); err != nil {
			slog.Warn("store thumbnail", "key", thumbKey, "error", err)
		} else {
			img.ThumbnailURL = &thumbKey
			objects = append(objects, thumbKey)
		}
	}

	if err := h.db.CreateImage(ctx, img); err != nil {
		if derr := h.minio.DeleteObjects(ctx, objects); derr != nil {
			slog.Warn("clean up orphaned objects", "keys", objects, "error", derr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	task := models.IndexTask{
		ImageID:     img.ID,
		EventID:     eventID,
		ObjectKey:   key,
		Filename:    header.Filename,
		ContentType: contentType,
	}
	if err := h.producer.PublishIndexTask(ctx, task); err != nil {
		// The image is stored; it just won't be searchable until re-indexed.
		slog.Warn("publish index task", "image_id", img.ID, "error", err)
	}

	record(c, h.recorder, audit.Entry{
		UserID: callerID(c),
		Action: audit.ActionUploadImage,
		Details: map[string]any{
			"image_id":      img.ID.String(),
			"event_id":      eventID.String(),
			"filename":      header.Filename,
			"file_size":     img.FileSize,
			"consent_given": consent,
		},
		Notify: true,
	})

	c.JSON(http.StatusCreated, dto.UploadResponse{
		Message: "Image uploaded successfully",
		Image:   toImageResponse(*img),
	})
}

func (h *ImageHandler) List(c *gin.Context) {
	eventID, err := uuid.Parse(c.Query("event_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event_id is required"})
		return
	}
	page, limit, ok := parsePage(c)
	if !ok {
		return
	}

	images, total, err := h.db.ListImages(c.Request.Context(), eventID, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := dto.ImageListResponse{
		Images: make([]dto.ImageResponse, 0, len(images)),
		Total:  total,
		Page:   page,
		Limit:  limit,
	}
	for _, img := range images {
		resp.Images = append(resp.Images, toImageResponse(img))
	}
	c.JSON(http.StatusOK, resp)
}

// lookup parses the :event/:image path and loads the row. It writes the
// error response itself and returns nil in that case.
func (h *ImageHandler) lookup(c *gin.Context) *models.Image {
	eventID, err := uuid.Parse(c.Param("event"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return nil
	}
	imageID, err := uuid.Parse(c.Param("image"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image id"})
		return nil
	}

	img, err := h.db.GetImage(c.Request.Context(), eventID, imageID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil
	}
	if img == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return nil
	}
	return img
}

func (h *ImageHandler) Get(c *gin.Context) {
	img := h.lookup(c)
	if img == nil {
		return
	}
	c.JSON(http.StatusOK, toImageResponse(*img))
}

// Content redirects to a short-lived presigned URL for the original, or for
// the thumbnail when ?thumb=true and one exists.
func (h *ImageHandler) Content(c *gin.Context) {
	img := h.lookup(c)
	if img == nil {
		return
	}

	key := img.Filename
	if thumb, _ := strconv.ParseBool(c.Query("thumb")); thumb && img.ThumbnailURL != nil {
		key = *img.ThumbnailURL
	}

	url, err := h.minio.PresignedURL(c.Request.Context(), key)
	if err != nil {
		slog.Error("presign object", "key", key, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not sign content url"})
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (h *ImageHandler) Delete(c *gin.Context) {
	img := h.lookup(c)
	if img == nil {
		return
	}

	if err := h.db.DeleteImage(c.Request.Context(), img.EventID, img.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	keys := []string{img.Filename}
	if img.ThumbnailURL != nil {
		keys = append(keys, *img.ThumbnailURL)
	}
	if err := h.minio.DeleteObjects(c.Request.Context(), keys); err != nil {
		slog.Warn("delete image objects", "image_id", img.ID, "error", err)
	}

	record(c, h.recorder, audit.Entry{
		UserID:  callerID(c),
		Action:  audit.ActionDeleteImage,
		Details: map[string]any{"image_id": img.ID.String(), "event_id": img.EventID.String()},
		Notify:  true,
	})

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
