// Package attachments validates and prepares file/image attachments before
// any HTTP request is issued, per spec.md's Attachment entity and Testable
// Property 7 (fail-fast: any validation failure aborts before the network
// call).
package attachments

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Ad4m2017/agent-cli-sub000/internal/chatmodel"
	"github.com/Ad4m2017/agent-cli-sub000/internal/config"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

var imageMimeByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// ResolveAll validates and loads every file/image path against limits,
// returning the in-memory attachments used to build the user message. It
// stops at the first invalid attachment (fail-fast, Testable Property 7).
func ResolveAll(cwd string, filePaths, imagePaths []string, limits config.AttachmentLimits) ([]chatmodel.Attachment, []chatmodel.Attachment, error) {
	if err := checkCount(len(filePaths), limits.MaxFiles, errs.CodeAttachmentTooManyFiles); err != nil {
		return nil, nil, err
	}
	if err := checkCount(len(imagePaths), limits.MaxImages, errs.CodeAttachmentTooManyImages); err != nil {
		return nil, nil, err
	}

	files := make([]chatmodel.Attachment, 0, len(filePaths))
	for _, p := range filePaths {
		a, err := resolveFile(cwd, p, limits.MaxFileBytes)
		if err != nil {
			return nil, nil, err
		}
		files = append(files, a)
	}

	images := make([]chatmodel.Attachment, 0, len(imagePaths))
	for _, p := range imagePaths {
		a, err := resolveImage(cwd, p, limits.MaxImageBytes)
		if err != nil {
			return nil, nil, err
		}
		images = append(images, a)
	}

	return files, images, nil
}

func checkCount(n int, limit *int, code errs.Code) error {
	if limit == nil || *limit <= 0 {
		return nil
	}
	if n > *limit {
		return errs.New(code, "too many attachments")
	}
	return nil
}

func resolveFile(cwd, path string, maxBytes *int) (chatmodel.Attachment, error) {
	abs := absPath(cwd, path)
	info, err := os.Stat(abs)
	if err != nil {
		return chatmodel.Attachment{}, errs.Wrap(errs.CodeAttachmentNotFound, "attachment not found", err)
	}
	if info.IsDir() {
		return chatmodel.Attachment{}, errs.New(errs.CodeAttachmentNotFound, "attachment path is a directory")
	}
	if err := checkBytes(info.Size(), maxBytes); err != nil {
		return chatmodel.Attachment{}, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return chatmodel.Attachment{}, errs.Wrap(errs.CodeAttachmentUnreadable, "attachment unreadable", err)
	}
	if !utf8.Valid(data) {
		return chatmodel.Attachment{}, errs.New(errs.CodeAttachmentTypeUnsupported, "attachment is not valid UTF-8 text")
	}

	return chatmodel.Attachment{
		Kind:    "file",
		Path:    abs,
		Size:    info.Size(),
		Content: string(data),
	}, nil
}

func resolveImage(cwd, path string, maxBytes *int) (chatmodel.Attachment, error) {
	abs := absPath(cwd, path)
	ext := strings.ToLower(filepath.Ext(abs))
	mime, ok := imageMimeByExt[ext]
	if !ok {
		return chatmodel.Attachment{}, errs.New(errs.CodeAttachmentTypeUnsupported, "unsupported image type")
	}

	info, err := os.Stat(abs)
	if err != nil {
		return chatmodel.Attachment{}, errs.Wrap(errs.CodeAttachmentNotFound, "attachment not found", err)
	}
	if info.IsDir() {
		return chatmodel.Attachment{}, errs.New(errs.CodeAttachmentNotFound, "attachment path is a directory")
	}
	if err := checkBytes(info.Size(), maxBytes); err != nil {
		return chatmodel.Attachment{}, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return chatmodel.Attachment{}, errs.Wrap(errs.CodeAttachmentUnreadable, "attachment unreadable", err)
	}

	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	return chatmodel.Attachment{
		Kind:     "image",
		Path:     abs,
		Size:     info.Size(),
		MimeType: mime,
		DataURL:  dataURL,
	}, nil
}

func checkBytes(size int64, maxBytes *int) error {
	if maxBytes == nil || *maxBytes <= 0 {
		return nil
	}
	if size > int64(*maxBytes) {
		return errs.New(errs.CodeAttachmentTooLarge, "attachment exceeds configured byte limit")
	}
	return nil
}

func absPath(cwd, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(cwd, path))
}
