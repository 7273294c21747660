package sitekit

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/png"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/arclabs/sitekit/docstore"
)

const (
	maxImageWidth = 1600
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB

	// MediaCollection holds metadata for processed media-library uploads.
	MediaCollection = "media"
	uploadsPrefix   = "uploads"
)

// processImage decodes an image from src, resizes it down to maxImageWidth
// if wider, and encodes it as JPEG. Returns metadata and the encoded bytes.
func processImage(src io.Reader, originalName string) (MediaImage, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return MediaImage{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return MediaImage{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	filename := slugifyFilename(originalName) + ".jpg"

	return MediaImage{
		Filename:     filename,
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
		UploadedAt:   time.Now().UTC().Format(time.RFC3339),
	}, buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return Slugify(base)
}

// ensureUniqueFilename appends a counter if the filename is already taken in
// the blob store.
func (a *App) ensureUniqueFilename(img *MediaImage) error {
	existing, err := a.Blobs.List(uploadsPrefix)
	if err != nil {
		return err
	}
	taken := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		taken[strings.TrimPrefix(p, uploadsPrefix+"/")] = struct{}{}
	}
	base := strings.TrimSuffix(img.Filename, ".jpg")
	candidate := img.Filename
	counter := 1
	for {
		if _, ok := taken[candidate]; !ok {
			break
		}
		counter++
		candidate = fmt.Sprintf("%s-%d.jpg", base, counter)
	}
	img.Filename = candidate
	return nil
}

// handleImageUpload receives a media-library upload, processes it, stores
// the bytes in the blob store, and records metadata in the media collection.
func (a *App) handleImageUpload(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.String(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 10MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := processImage(src, file.Filename)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid image: "+err.Error())
	}

	if err := a.ensureUniqueFilename(&img); err != nil {
		return err
	}

	url, err := a.Blobs.Put(uploadsPrefix+"/"+img.Filename, data)
	if err != nil {
		return fmt.Errorf("store image: %w", err)
	}
	img.URL = url

	if _, err := a.Docs.Add(MediaCollection, map[string]any{
		"filename":     img.Filename,
		"originalName": img.OriginalName,
		"url":          img.URL,
		"width":        img.Width,
		"height":       img.Height,
		"size":         img.Size,
		"uploadedAt":   docstore.ServerTimestamp,
	}); err != nil {
		return err
	}

	return a.renderImageList(c)
}

// handleBlogImageUpload is the editor's direct upload path: raw bytes land
// at blog-images/{epoch-millis}_{filename} and the public URL comes back as
// JSON for the editor to embed.
func (a *App) handleBlogImageUpload(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.NoContent(http.StatusForbidden)
	}
	file, err := c.FormFile("image")
	if err != nil {
		return c.String(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 10MB)")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return err
	}
	url, err := a.Blogs.UploadImage(data, file.Filename)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

func (a *App) handleImageDelete(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}

	filename := c.Param("filename")
	if filename == "" {
		return c.String(http.StatusBadRequest, "Filename required")
	}

	if err := a.Blobs.Delete(uploadsPrefix + "/" + filename); err != nil {
		return err
	}

	docs, err := a.Docs.QueryEq(MediaCollection, "filename", filename, 0)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := a.Docs.Delete(MediaCollection, d.ID); err != nil {
			return err
		}
	}

	return a.renderImageList(c)
}

func (a *App) handleImageList(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return a.renderImageList(c)
}

func (a *App) renderImageList(c echo.Context) error {
	docs, err := a.Docs.List(MediaCollection, "uploadedAt", true)
	if err != nil {
		return err
	}
	images := make([]MediaImage, 0, len(docs))
	for _, d := range docs {
		images = append(images, MediaImage{
			Filename:     stringField(d.Data, "filename"),
			OriginalName: stringField(d.Data, "originalName"),
			URL:          stringField(d.Data, "url"),
			Width:        intField(d.Data, "width"),
			Height:       intField(d.Data, "height"),
			Size:         intField(d.Data, "size"),
			UploadedAt:   timeField(d.Data, "uploadedAt"),
		})
	}
	return Render(c, a.Views.AdminImages(images, CsrfToken(c)))
}
