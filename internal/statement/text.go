package statement

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/ledongthuc/pdf"
)

// readText loads the text of an unstructured statement.
func readText(ctx context.Context, path string, format Format) (string, error) {
	if format == FormatPDF {
		return readPDF(ctx, path)
	}
	return readPlain(path)
}

func readPlain(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("readPlain: open %q: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(newDecodingReader(f))
	if err != nil {
		return "", fmt.Errorf("readPlain: read %q: %w", path, err)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

// readPDF concatenates the plain text of every readable, non-empty page.
func readPDF(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("readPDF: pdf library crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("readPDF: open %q: %w", path, err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			font := page.Font(name)
			fonts[name] = &font
		}
		content, pageErr := page.GetPlainText(fonts)
		if pageErr != nil {
			logger.FromContext(ctx).Debug().Err(pageErr).Int("page", i).Msg("Skipping unreadable PDF page")
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n"), nil
}
