package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrUnsupportedImage 上传内容不是 JPEG 或 PNG
var ErrUnsupportedImage = errors.New("unsupported image format")

// ErrInvalidName 文件名试图逃出头像目录
var ErrInvalidName = errors.New("invalid avatar file name")

const suffixLen = 10

// 最多重试次数，实际上第二次就能成功
const maxAttempts = 5

var allowedImages = []string{"image/jpeg", "image/png"}

// DetectImage 按内容嗅探图片类型，只接受 JPEG 和 PNG（含其子类型，如 APNG）
// 返回匹配到的允许类型，其 Extension() 即保存时使用的扩展名
func DetectImage(data []byte) (*mimetype.MIME, error) {
	detected := mimetype.Detect(data)
	for mt := detected; mt != nil; mt = mt.Parent() {
		for _, allowed := range allowedImages {
			if mt.Is(allowed) {
				return mt, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, detected.String())
}

// AvatarStore 本地扁平目录的头像存储
type AvatarStore struct {
	dir string
}

// NewAvatarStore 创建存储并确保目录存在
func NewAvatarStore(dir string) (*AvatarStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &AvatarStore{dir: dir}, nil
}

// Dir 头像目录
func (s *AvatarStore) Dir() string {
	return s.dir
}

// Path 返回文件在磁盘上的完整路径
func (s *AvatarStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Save 以原始文件名保存，重名时在文件名后追加随机后缀
// 扩展名由内容决定（.png / .jpg），忽略客户端给出的扩展名
// 返回的是文件名，不是完整路径
func (s *AvatarStore) Save(data []byte, originalName string) (string, error) {
	mt, err := DetectImage(data)
	if err != nil {
		return "", err
	}
	base := splitName(originalName)
	ext := mt.Extension()

	name := base + ext
	for attempt := 0; attempt < maxAttempts; attempt++ {
		// O_EXCL 保证并发保存同名文件时不会互相覆盖
		f, err := os.OpenFile(s.Path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			name = base + "_" + randomSuffix() + ext
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create avatar %s: %w", name, err)
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(s.Path(name))
			return "", fmt.Errorf("write avatar %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(s.Path(name))
			return "", fmt.Errorf("close avatar %s: %w", name, err)
		}
		return name, nil
	}
	return "", fmt.Errorf("no free avatar name for %q", originalName)
}

// Delete 删除头像文件；文件不存在时返回 fs.ErrNotExist，由调用方决定是否忽略
func (s *AvatarStore) Delete(name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := os.Remove(s.Path(name)); err != nil {
		return fmt.Errorf("delete avatar %s: %w", name, err)
	}
	return nil
}

// splitName 只保留去掉扩展名的文件名部分，防止路径穿越
func splitName(originalName string) string {
	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(originalName, `\`, "/")))
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" || base == "." || base == "/" {
		base = "avatar"
	}
	return base
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]
}
