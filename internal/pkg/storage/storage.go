package storage

import (
	"context"
	"io"
)

// Storage 存储接口
// 生成结果只需要服务端上传并拿到可访问URL，接口保持最小
type Storage interface {
	// Upload 上传文件（服务端上传），返回可访问URL
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)

	// Delete 删除文件
	Delete(ctx context.Context, key string) error

	// Exists 检查文件是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// GetStorageType 获取存储类型
	GetStorageType() string
}

// StorageType 存储类型
type StorageType string

const (
	StorageTypeLocal StorageType = "local" // 本地文件系统
	StorageTypeOSS   StorageType = "oss"   // 阿里云OSS
)
