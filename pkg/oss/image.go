package oss

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidImage 无法解码或不是支持的图片
	ErrInvalidImage = errors.New("invalid image")
	// ErrImageTooLarge 图片超过大小限制
	ErrImageTooLarge = errors.New("image too large")
)

// 支持的图片类型及扩展名
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image 解码后的图片
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// DecodeImage 解码 data URI（data:image/png;base64,...）或裸 base64 字符串
// 真实类型以文件头嗅探为准
func DecodeImage(input string, maxSize int64) (*Image, error) {
	payload := strings.TrimSpace(input)
	if payload == "" {
		return nil, ErrInvalidImage
	}

	if strings.HasPrefix(payload, "data:") {
		comma := strings.Index(payload, ",")
		if comma < 0 || !strings.HasSuffix(payload[:comma], ";base64") {
			return nil, ErrInvalidImage
		}
		payload = payload[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// 兼容无填充的 base64
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
	}

	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, ErrImageTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %s", ErrInvalidImage, contentType)
	}

	return &Image{Data: data, ContentType: contentType, Ext: ext}, nil
}

// GenerateObjectKey 生成对象键，如 spaces/2025/03/01/<uuid>.png
func GenerateObjectKey(prefix, ext string) string {
	return path.Join(prefix, time.Now().UTC().Format("2006/01/02"), uuid.NewString()+ext)
}

// UploadImage 解码并上传图片，返回访问 URL
func UploadImage(ctx context.Context, uploader Uploader, prefix, input string, maxSize int64) (string, error) {
	img, err := DecodeImage(input, maxSize)
	if err != nil {
		return "", err
	}
	return uploader.Upload(ctx, GenerateObjectKey(prefix, img.Ext), img.Data, img.ContentType)
}
