package oss

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MockUploader 模拟上传器（用于开发/测试）
type MockUploader struct {
	mu    sync.Mutex
	Files map[string][]byte
	Err   error // 非空时 Upload 返回该错误
}

// NewMockUploader 创建模拟上传器
func NewMockUploader() *MockUploader {
	return &MockUploader{
		Files: make(map[string][]byte),
	}
}

// Upload 模拟上传
func (u *MockUploader) Upload(_ context.Context, objectKey string, data []byte, _ string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return "", u.Err
	}
	u.Files[objectKey] = data
	return u.GetURL(objectKey), nil
}

// Delete 模拟删除
func (u *MockUploader) Delete(_ context.Context, objectKey string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.Files, objectKey)
	return nil
}

// GetURL 获取模拟 URL
func (u *MockUploader) GetURL(objectKey string) string {
	return fmt.Sprintf("https://mock-oss.example.com/%s", objectKey)
}

// Count 已上传对象数
func (u *MockUploader) Count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.Files)
}

// ErrUploadFailed 模拟上传失败
var ErrUploadFailed = errors.New("mock upload failed")
