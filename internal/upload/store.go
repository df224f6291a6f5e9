package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/blues/propdao/internal/config"
	"github.com/google/uuid"
)

var (
	ErrNotImage = errors.New("只允许上传图片")
	ErrTooLarge = errors.New("文件过大")
)

// sniffLen http.DetectContentType 最多读取的字节数
const sniffLen = 512

// LocalStore 本地磁盘文件存储，文件通过静态路由对外提供
type LocalStore struct {
	dir        string
	publicBase string
	maxSize    int64
}

// NewLocalStore 创建本地存储并确保目录存在
func NewLocalStore(cfg config.UploadConfig) (*LocalStore, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}

	publicBase := cfg.PublicBase
	if publicBase == "" {
		publicBase = "/uploads"
	}

	return &LocalStore{
		dir:        dir,
		publicBase: strings.TrimRight(publicBase, "/"),
		maxSize:    cfg.MaxSizeMB << 20,
	}, nil
}

// Dir 存储目录
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save 保存上传的图片，返回可访问的URL
func (s *LocalStore) Save(header *multipart.FileHeader) (string, error) {
	if s.maxSize > 0 && header.Size > s.maxSize {
		return "", ErrTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("读取上传文件失败: %w", err)
	}
	defer file.Close()

	// 只按文件内容识别类型，不信任表单声明的类型和文件名
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("读取上传文件失败: %w", err)
	}
	head = head[:n]

	contentType := mediaType(http.DetectContentType(head))
	ext := extension(contentType)
	if !strings.HasPrefix(contentType, "image/") || ext == "" {
		return "", ErrNotImage
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("保存文件失败: %w", err)
	}
	defer dst.Close()

	if _, err := dst.Write(head); err != nil {
		return "", fmt.Errorf("保存文件失败: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("保存文件失败: %w", err)
	}

	return path.Join(s.publicBase, name), nil
}

func mediaType(value string) string {
	parsed, _, err := mime.ParseMediaType(value)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed)
}

// imageExtensions 可识别图片类型的固定扩展名
var imageExtensions = map[string]string{
	"image/png":                ".png",
	"image/jpeg":               ".jpg",
	"image/gif":                ".gif",
	"image/webp":               ".webp",
	"image/bmp":                ".bmp",
	"image/x-icon":             ".ico",
	"image/avif":               ".avif",
	"image/vnd.microsoft.icon": ".ico",
}

// extension 按识别出的类型决定扩展名
func extension(contentType string) string {
	if ext, ok := imageExtensions[contentType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
