package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resto-system/internal/menu"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	UPLOAD_URL_PREFIX = "/uploads/"
	MAX_IMAGE_BYTES   = 5 << 20
)

var allowedImageExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

type ProductHTTPHandler struct {
	menu      *menu.Service
	uploadDir string
}

func NewProductHTTPHandler(menuService *menu.Service, uploadDir string) *ProductHTTPHandler {
	return &ProductHTTPHandler{
		menu:      menuService,
		uploadDir: uploadDir,
	}
}

func (h *ProductHTTPHandler) PublicMenu(c *gin.Context) {
	products, err := h.menu.PublicMenu(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Menu", products))
}

func (h *ProductHTTPHandler) ListAll(c *gin.Context) {
	products, err := h.menu.AllProducts(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Products", products))
}

// Save creates or updates a product from a multipart form with an optional
// image file.
func (h *ProductHTTPHandler) Save(c *gin.Context) {
	price, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("price")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid price"))
		return
	}

	in := menu.ProductInput{
		ID:       strings.TrimSpace(c.PostForm("id")),
		Name:     c.PostForm("name"),
		Price:    price,
		Category: c.PostForm("category"),
	}

	image, err := h.saveUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	in.Image = image

	product, err := h.menu.Save(c.Request.Context(), in)
	if err != nil {
		if image != "" {
			_ = os.Remove(filepath.Join(h.uploadDir, strings.TrimPrefix(image, UPLOAD_URL_PREFIX)))
		}
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Product saved", product))
}

func (h *ProductHTTPHandler) ToggleVisibility(c *gin.Context) {
	visible, err := h.menu.ToggleVisibility(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "isVisible": visible})
}

func (h *ProductHTTPHandler) Delete(c *gin.Context) {
	if err := h.menu.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Product deleted", nil))
}

// saveUpload stores the "image" form file, if any, and returns its public URL.
func (h *ProductHTTPHandler) saveUpload(c *gin.Context) (string, error) {
	file, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("invalid image upload")
	}
	if file.Size > MAX_IMAGE_BYTES {
		return "", fmt.Errorf("image larger than %d bytes", MAX_IMAGE_BYTES)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExt[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	name := fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(h.uploadDir, name)); err != nil {
		return "", fmt.Errorf("failed to store image")
	}
	return UPLOAD_URL_PREFIX + name, nil
}
