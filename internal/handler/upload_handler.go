package handler

import (
	"errors"
	"net/http"

	"github.com/blues/propdao/internal/upload"
	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	store *upload.LocalStore
}

func NewUploadHandler(store *upload.LocalStore) *UploadHandler {
	return &UploadHandler{store: store}
}

// Upload 上传图片，返回访问URL
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, CodeValidation, "缺少上传文件")
		return
	}

	url, err := h.store.Save(file)
	switch {
	case errors.Is(err, upload.ErrNotImage):
		ErrorResponse(c, http.StatusBadRequest, CodeValidation, err.Error())
		return
	case errors.Is(err, upload.ErrTooLarge):
		ErrorResponse(c, http.StatusRequestEntityTooLarge, CodeValidation, err.Error())
		return
	case err != nil:
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "上传成功", UploadResponse{Url: url})
}
