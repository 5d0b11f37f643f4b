// Package media stores uploaded images in the blob store and keeps only
// their public URLs.
package media

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"lodge/infras/s3"
	"lodge/shared/constant"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FileName gives an upload a random name that keeps the original extension.
func FileName(original string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(original))
}

// Upload stores every file under directory and returns the URLs in order.
// When one upload fails the files already stored are removed again.
func Upload(ctx context.Context, store s3.S3, directory string, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))

	for _, header := range files {
		url, err := upload(ctx, store, directory, header)
		if err != nil {
			Remove(ctx, store, urls)

			return nil, err
		}

		urls = append(urls, url)
	}

	return urls, nil
}

func upload(ctx context.Context, store s3.S3, directory string, header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return constant.Empty, fmt.Errorf("failed to open %s: %w", header.Filename, err)
	}
	defer file.Close()

	contentType := header.Header.Get(constant.RequestHeaderContentType)

	url, err := store.Upload(ctx, directory, FileName(header.Filename), contentType, file)
	if err != nil {
		return constant.Empty, fmt.Errorf("failed to upload %s: %w", header.Filename, err)
	}

	return url, nil
}

// Remove deletes the given URLs, logging failures.
func Remove(ctx context.Context, store s3.S3, urls []string) {
	for _, url := range urls {
		if err := store.Delete(ctx, url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("failed to delete image")
		}
	}
}

// Without returns images minus the ones listed in drop.
func Without(images []string, drop []string) (kept, removed []string) {
	dropped := make(map[string]struct{}, len(drop))
	for _, url := range drop {
		dropped[url] = struct{}{}
	}

	for _, url := range images {
		if _, ok := dropped[url]; ok {
			removed = append(removed, url)

			continue
		}

		kept = append(kept, url)
	}

	return kept, removed
}
