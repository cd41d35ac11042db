package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage 本地文件存储实现
// 文档按 <base>/<collection>/<filename> 布局存放
type LocalStorage struct {
	basePath string // 基础存储路径
}

// LocalConfig 本地存储配置
type LocalConfig struct {
	Path string // 本地存储路径
}

// NewLocalStorage 创建本地存储实例
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	// 确保路径是绝对路径
	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %v", err)
	}

	// 确保目录存在
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %v", err)
	}

	return &LocalStorage{
		basePath: absPath,
	}, nil
}

// Save 保存文档到本地存储
func (s *LocalStorage) Save(reader io.Reader, collection, filename string) (FileInfo, error) {
	dirPath := filepath.Join(s.basePath, sanitize(collection))
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return FileInfo{}, fmt.Errorf("failed to create collection directory: %v", err)
	}

	filePath := filepath.Join(dirPath, sanitize(filename))
	file, err := os.Create(filePath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	size, err := io.Copy(file, reader)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to write file: %v", err)
	}

	return FileInfo{
		Collection: collection,
		Name:       filename,
		Size:       size,
		MimeType:   getMimeType(filename),
	}, nil
}

// Get 获取文档内容
func (s *LocalStorage) Get(collection, filename string) (io.ReadCloser, error) {
	filePath := filepath.Join(s.basePath, sanitize(collection), sanitize(filename))
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, collection, filename)
		}
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	return file, nil
}

// Delete 删除文档
func (s *LocalStorage) Delete(collection, filename string) error {
	filePath := filepath.Join(s.basePath, sanitize(collection), sanitize(filename))
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s/%s", ErrObjectNotFound, collection, filename)
		}
		return fmt.Errorf("failed to delete file: %v", err)
	}
	return nil
}

// List 列出某个集合中的全部文档
func (s *LocalStorage) List(collection string) ([]FileInfo, error) {
	dirPath := filepath.Join(s.basePath, sanitize(collection))
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list collection: %v", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Collection: collection,
			Name:       entry.Name(),
			Size:       info.Size(),
			MimeType:   getMimeType(entry.Name()),
		})
	}
	return files, nil
}

// Exists 检查文档是否存在
func (s *LocalStorage) Exists(collection, filename string) (bool, error) {
	filePath := filepath.Join(s.basePath, sanitize(collection), sanitize(filename))
	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// BasePath 返回存储根目录
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

// sanitize 去除路径分隔符，防止越出存储目录
func sanitize(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	return name
}

// getMimeType 简单根据文件扩展名判断MIME类型
func getMimeType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
