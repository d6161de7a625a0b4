package common

import (
	"food_delivery/internal/pkg/uploader"
	"food_delivery/pkg/logger"
	"food_delivery/pkg/response"
	"mime/multipart"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	maxFiles       = 9
	maxFileSize    = 5 << 20
	uploadParallel = 5
)

type UploadHandler struct {
	uploader uploader.Uploader
}

func NewUploadHandler(u uploader.Uploader) *UploadHandler {
	return &UploadHandler{uploader: u}
}

// UploadFile 上传文件 (支持批量)
// @Summary 上传图片到 OSS (支持批量)
// @Tags Common
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param files formData file true "Files"
// @Param dir formData string false "Directory"
// @Success 200 {object} response.Response{data=[]string} "URLs"
// @Router /upload [post]
func (h *UploadHandler) UploadFile(c *gin.Context) {
	if h.uploader == nil {
		response.Error(c, http.StatusServiceUnavailable, response.ErrServerInternal, "Object storage not configured")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid form data")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "No files uploaded")
		return
	}
	if len(files) > maxFiles {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Too many files")
		return
	}
	for _, f := range files {
		if f.Size > maxFileSize {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "File too large: "+f.Filename)
			return
		}
		if err := uploader.CheckImage(f.Filename); err != nil {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Unsupported file type: "+f.Filename)
			return
		}
	}

	dir := c.DefaultPostForm("dir", "uploads")
	urls, err := UploadAll(h.uploader, dir, files)
	if err != nil {
		logger.Log.Error("upload failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Upload failed")
		return
	}

	response.Success(c, urls)
}

// UploadAll 并发上传，结果顺序与输入一致，任一失败即返回错误
func UploadAll(u uploader.Uploader, dir string, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, len(files))

	var wg sync.WaitGroup
	var errOnce sync.Once
	var uploadErr error

	// 限制并发数
	sem := make(chan struct{}, uploadParallel)

	for i, file := range files {
		wg.Add(1)
		go func(index int, f *multipart.FileHeader) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			url, err := u.UploadFile(dir, f)
			if err != nil {
				errOnce.Do(func() { uploadErr = err })
				return
			}
			urls[index] = url
		}(i, file)
	}

	wg.Wait()

	if uploadErr != nil {
		return nil, uploadErr
	}
	return urls, nil
}
