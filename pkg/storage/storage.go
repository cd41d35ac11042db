package storage

import (
	"errors"
	"io"
)

// ErrObjectNotFound 请求的文档不存在
var ErrObjectNotFound = errors.New("document not found in storage")

// FileInfo 文档文件元数据结构
type FileInfo struct {
	Collection string // 所属集合名称
	Name       string // 文件名
	Size       int64  // 文件大小(字节)
	MimeType   string // 文件MIME类型
}

// Storage 集合文档存储接口
// 按(集合, 文件名)定位文档，可以有不同实现(本地文件系统、MinIO等)
type Storage interface {
	// Save 保存文档并返回文件信息
	Save(reader io.Reader, collection, filename string) (FileInfo, error)

	// Get 获取文档内容
	Get(collection, filename string) (io.ReadCloser, error)

	// Delete 删除文档
	Delete(collection, filename string) error

	// List 列出某个集合中的全部文档
	List(collection string) ([]FileInfo, error)

	// Exists 检查文档是否存在
	Exists(collection, filename string) (bool, error)
}
