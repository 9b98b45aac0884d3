package pkg

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// PostImageDir 帖子配图在媒体目录下的子目录
const PostImageDir = "posts"

var ErrUnsupportedImage = errors.New("unsupported image type")

// 允许上传的图片扩展名
var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// ValidImageName 校验文件名是否是允许的图片类型
func ValidImageName(name string) bool {
	return allowedImageExt[filepath.Ext(name)]
}

// SaveImage 将上传的图片写入 <mediaDir>/posts/ 下，返回相对媒体目录的路径
// 文件重名时加 uuid 前缀避让，不覆盖已有文件
func SaveImage(mediaDir string, fh *multipart.FileHeader) (string, error) {
	name := filepath.Base(fh.Filename)
	if !ValidImageName(name) {
		return "", ErrUnsupportedImage
	}

	dir := filepath.Join(mediaDir, PostImageDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	// O_EXCL 独占创建，并发重名时退避到 uuid 前缀而不是互相覆盖
	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		name = uuid.NewString() + "_" + name
		dst, err = os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", err
	}
	defer dst.Close()

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return filepath.ToSlash(filepath.Join(PostImageDir, name)), nil
}
