package document

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strconv"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// PageImage is one rendered page of a bill document
type PageImage struct {
	PageNo string
	PNG    []byte
}

// Pages converts a downloaded document into an ordered list of PNG page
// images. PDFs are rendered page by page; anything else is decoded as a
// single image. Detection goes by magic bytes first, content type second.
func Pages(data []byte, contentType string) ([]PageImage, error) {
	switch {
	case isPDF(data) || strings.Contains(contentType, "pdf"):
		return pdfToPages(data)
	case isImageData(data) || strings.Contains(contentType, "image"):
		return imageToPages(data, contentType)
	default:
		// Not clearly identified, attempt to decode as an image
		return imageToPages(data, contentType)
	}
}

// pdfToPages renders every page of a PDF to a PNG image
func pdfToPages(pdfData []byte) ([]PageImage, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	pages := make([]PageImage, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.Image(n)
		if err != nil {
			return nil, fmt.Errorf("rendering PDF page %d: %w", n+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding PNG for page %d: %w", n+1, err)
		}

		pages = append(pages, PageImage{
			PageNo: strconv.Itoa(n + 1),
			PNG:    buf.Bytes(),
		})
	}

	return pages, nil
}

// imageToPages decodes a single image document into one PNG page
func imageToPages(imageData []byte, contentType string) ([]PageImage, error) {
	var img image.Image
	var err error

	// HEIC/HEIF (common on iPhones) isn't handled by the standard image package
	if isHEICFormat(imageData) || isHEICMimeType(contentType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
				return nil, fmt.Errorf("unsupported document format. Supported formats: PDF, JPEG, PNG, GIF, HEIC, HEIF. Error: %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return []PageImage{{PageNo: "1", PNG: buf.Bytes()}}, nil
}

// Extension returns a file extension for a document, sniffed from its
// magic bytes. Unrecognized documents get ".bin".
func Extension(data []byte) string {
	switch {
	case isPDF(data):
		return ".pdf"
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return ".png"
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return ".jpg"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return ".gif"
	case bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")):
		return ".tiff"
	case isHEICFormat(data):
		return ".heic"
	default:
		return ".bin"
	}
}

// isPDF checks for the %PDF magic bytes
func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// isImageData checks the magic bytes of the formats we can decode
func isImageData(data []byte) bool {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return true
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return true // JPEG
	case bytes.HasPrefix(data, []byte("GIF8")):
		return true
	case bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")):
		return true // TIFF
	case isHEICFormat(data):
		return true
	}
	return false
}

// isHEICFormat checks if the image data is in HEIC/HEIF format
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	// ftyp box at offset 4 with a HEIC-related brand
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return mimeType == "image/heic" || mimeType == "image/heif" ||
		strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
