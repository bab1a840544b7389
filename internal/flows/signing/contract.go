package signing

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ViewContract downloads a document and writes it under dir. It returns
// the written path.
func (f *Flow) ViewContract(ctx context.Context, documentID, dir string) (string, error) {
	content, err := f.api.DownloadDocument(ctx, documentID)
	if err != nil {
		f.errs.Handle("open document", err, "Failed to open document")
		return "", err
	}
	data, err := base64.StdEncoding.DecodeString(content.Data)
	if err != nil {
		f.notifier.Error("Failed to open document")
		return "", fmt.Errorf("document %s is not valid base64: %w", documentID, err)
	}

	name := filepath.Base(strings.TrimSpace(content.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = documentID + extensionFor(content.ContentType)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		f.notifier.Error("Failed to save document")
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		f.notifier.Error("Failed to save document")
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	f.log.Debug("document written", map[string]interface{}{"documentId": documentID, "path": path, "bytes": len(data)})
	return path, nil
}

func extensionFor(contentType string) string {
	switch {
	case contentType == "", strings.Contains(contentType, "pdf"):
		return ".pdf"
	case strings.Contains(contentType, "html"):
		return ".html"
	case strings.Contains(contentType, "png"):
		return ".png"
	}
	return ".bin"
}
