package controllers

import (
	"errors"
	"log"
	"net/http"

	"card-grading-api/services"

	"github.com/gin-gonic/gin"
)

const maxProofImageSize = 10 << 20 // 10 MB

var allowedProofTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// UploadProofImage accepts the encapsulation photo and returns the hosted
// URL. The client passes that URL as slabbing_proof_image on the
// Slabbing -> Ready for Return transition; the bytes never touch the
// workflow store.
func UploadProofImage(store *services.ProofStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Proof image storage is not configured"})
			return
		}

		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}

		if file.Size > maxProofImageSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Image exceeds the 10MB limit"})
			return
		}

		contentType := file.Header.Get("Content-Type")
		if !allowedProofTypes[contentType] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only JPEG, PNG and GIF images are accepted"})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read uploaded file"})
			return
		}
		defer src.Close()

		url, err := store.UploadProof(c.Request.Context(), src, file.Size, contentType)
		if err != nil {
			if errors.Is(err, services.ErrUpload) {
				log.Printf("proof upload: %v", err)
				c.JSON(http.StatusBadGateway, gin.H{"error": "Proof image upload failed"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Proof image upload failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}
