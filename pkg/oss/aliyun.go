// Package oss 对象存储服务
package oss

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// Uploader 媒体上传器接口
type Uploader interface {
	Upload(ctx context.Context, objectKey string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, objectKey string) error
	GetURL(objectKey string) string
}

// AliyunConfig 阿里云 OSS 配置
type AliyunConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	BucketName      string
	Domain          string // 自定义域名（可选）
	BasePath        string // 基础路径，如 "uploads/"
}

// AliyunUploader 阿里云 OSS 上传器
type AliyunUploader struct {
	bucket *oss.Bucket
	config *AliyunConfig
}

// NewAliyunUploader 创建阿里云 OSS 上传器
func NewAliyunUploader(config *AliyunConfig) (*AliyunUploader, error) {
	client, err := oss.New(config.Endpoint, config.AccessKeyID, config.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("create oss client: %w", err)
	}

	bucket, err := client.Bucket(config.BucketName)
	if err != nil {
		return nil, fmt.Errorf("open oss bucket %s: %w", config.BucketName, err)
	}

	return &AliyunUploader{
		bucket: bucket,
		config: config,
	}, nil
}

// Upload 上传对象并返回公开访问 URL
func (u *AliyunUploader) Upload(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
	options := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		options = append(options, oss.ContentType(contentType))
	}

	if err := u.bucket.PutObject(u.getFullKey(objectKey), bytes.NewReader(data), options...); err != nil {
		return "", fmt.Errorf("put object %s: %w", objectKey, err)
	}

	return u.GetURL(objectKey), nil
}

// Delete 删除对象
func (u *AliyunUploader) Delete(ctx context.Context, objectKey string) error {
	return u.bucket.DeleteObject(u.getFullKey(objectKey), oss.WithContext(ctx))
}

// GetURL 获取对象 URL
func (u *AliyunUploader) GetURL(objectKey string) string {
	return objectURL(u.config, u.getFullKey(objectKey))
}

// getFullKey 获取完整的对象键
func (u *AliyunUploader) getFullKey(objectKey string) string {
	if u.config.BasePath == "" {
		return objectKey
	}
	return path.Join(u.config.BasePath, objectKey)
}

// objectURL 优先使用自定义域名
func objectURL(config *AliyunConfig, fullKey string) string {
	if config.Domain != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(config.Domain, "/"), fullKey)
	}

	endpoint := strings.TrimPrefix(strings.TrimPrefix(config.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", config.BucketName, endpoint, fullKey)
}
