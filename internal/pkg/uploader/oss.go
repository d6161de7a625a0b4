package uploader

import (
	"errors"
	"fmt"
	"food_delivery/internal/pkg/config"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
)

// 允许上传的图片类型
var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

var ErrUnsupportedFileType = errors.New("unsupported file type")

type Uploader interface {
	// UploadFile 上传表单文件到 dir 目录，返回公网 URL
	UploadFile(dir string, file *multipart.FileHeader) (string, error)
	// Upload 上传任意流
	Upload(dir, filename string, r io.Reader) (string, error)
}

type AliyunOSSUploader struct {
	client *oss.Client
	bucket *oss.Bucket
	config config.OSSConfig
}

func NewAliyunOSSUploader(cfg config.OSSConfig) (*AliyunOSSUploader, error) {
	if cfg.Endpoint == "" || cfg.BucketName == "" {
		return nil, errors.New("oss config missing")
	}
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &AliyunOSSUploader{
		client: client,
		bucket: bucket,
		config: cfg,
	}, nil
}

func (u *AliyunOSSUploader) UploadFile(dir string, file *multipart.FileHeader) (string, error) {
	if err := CheckImage(file.Filename); err != nil {
		return "", err
	}
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	return u.Upload(dir, file.Filename, src)
}

func (u *AliyunOSSUploader) Upload(dir, filename string, r io.Reader) (string, error) {
	key := ObjectKey(dir, filename, time.Now())
	if err := u.bucket.PutObject(key, r); err != nil {
		return "", fmt.Errorf("oss put object: %w", err)
	}
	// bucket 为 public-read (或挂 CDN)，直接拼接公网地址
	return fmt.Sprintf("https://%s.%s/%s", u.config.BucketName, u.config.Endpoint, key), nil
}

// ObjectKey 生成对象名: dir/YYYYMMDD/uuid.ext
func ObjectKey(dir, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	dir = strings.Trim(dir, "/")
	if dir == "" {
		dir = "misc"
	}
	return fmt.Sprintf("%s/%s/%s%s", dir, now.Format("20060102"), uuid.New().String(), ext)
}

// CheckImage 校验文件扩展名
func CheckImage(filename string) error {
	if !allowedExt[strings.ToLower(filepath.Ext(filename))] {
		return ErrUnsupportedFileType
	}
	return nil
}
