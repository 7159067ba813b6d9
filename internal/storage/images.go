package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"aniwatch/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrBadImageType = errors.New("недопустимый тип изображения")

// разрешённые расширения обложек
var allowedExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageStore кладёт обложки на диск под непрозрачными именами.
// Имя файла — единственное, что хранится в БД.
type ImageStore struct {
	dir string
}

func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	return &ImageStore{dir: dir}, nil
}

// Save сохраняет файл под новым uuid-именем и возвращает это имя.
// Исходное имя нужно только ради расширения.
func (s *ImageStore) Save(src io.Reader, origName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(origName))
	if _, ok := allowedExt[ext]; !ok {
		return "", ErrBadImageType
	}

	filename := uuid.New().String() + ext
	fullPath := filepath.Join(s.dir, filename)

	dst, err := os.Create(fullPath)
	if err != nil {
		logger.Log.Error("Ошибка при сохранении файла", zap.Error(err))
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		logger.Log.Error("Ошибка записи файла", zap.Error(err))
		_ = os.Remove(fullPath)
		return "", err
	}

	logger.Log.Info("Файл сохранён", zap.String("filename", filename))
	return filename, nil
}

// Remove удаляет ровно один файл по его имени. filepath.Base отрезает
// любые попытки выйти из каталога загрузок.
func (s *ImageStore) Remove(filename string) error {
	if filename == "" {
		return nil
	}
	fullPath := filepath.Join(s.dir, filepath.Base(filename))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		logger.Log.Error("Ошибка при удалении файла с диска", zap.String("filepath", fullPath), zap.Error(err))
		return err
	}
	return nil
}

// Dir возвращает каталог хранилища (для статической раздачи).
func (s *ImageStore) Dir() string {
	return s.dir
}
