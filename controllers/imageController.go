package controllers

import (
	"io"
	"net/http"

	"civicreport-be/apperror"
	"civicreport-be/services"
	"civicreport-be/utils"

	"github.com/gin-gonic/gin"
)

// ImageFormField is the multipart field carrying the files.
const ImageFormField = "images"

type ImageController struct {
	Images *services.ImageService
}

// UploadImages stores up to three images and returns their public URLs
func (ic *ImageController) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.RespondError(c, apperror.ValidationFailed(ImageFormField, "Expected a multipart form with images"))
		return
	}

	headers := form.File[ImageFormField]
	if len(headers) > services.MaxUploadFiles {
		utils.RespondError(c, apperror.ValidationFailed(ImageFormField, "You can upload a maximum of 3 images."))
		return
	}

	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > services.MaxImageBytes {
			utils.RespondError(c, apperror.ValidationFailed(ImageFormField, fh.Filename+" exceeds the 5MB limit"))
			return
		}
		f, err := fh.Open()
		if err != nil {
			utils.RespondError(c, apperror.ValidationFailed(ImageFormField, "Could not read "+fh.Filename))
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, services.MaxImageBytes+1))
		_ = f.Close()
		if err != nil {
			utils.RespondError(c, apperror.ValidationFailed(ImageFormField, "Could not read "+fh.Filename))
			return
		}
		uploads = append(uploads, services.Upload{Name: fh.Filename, Data: data})
	}

	images, err := ic.Images.Upload(c.Request.Context(), uploads)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, images)
}

// DeleteImage removes an uploaded image by key
func (ic *ImageController) DeleteImage(c *gin.Context) {
	if err := ic.Images.Delete(c.Request.Context(), c.Param("key")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Image deleted successfully"})
}
