package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medlit/paperclass/internal/service"
)

// ClassifyHandler handles synchronous single-text classification.
type ClassifyHandler struct {
	classifier service.Classifier
	categories []string
}

// NewClassifyHandler creates a new classify handler.
// Parameters:
//   - classifier: classification capability.
//   - categories: configured category label set.
// Returns:
//   - *ClassifyHandler: initialized handler.
func NewClassifyHandler(classifier service.Classifier, categories []string) *ClassifyHandler {
	return &ClassifyHandler{
		classifier: classifier,
		categories: categories,
	}
}

type classifyTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// ClassifyText handles POST /api/v1/classify-text. It forwards one text to
// the model service and returns the predictions immediately.
func (h *ClassifyHandler) ClassifyText(c *gin.Context) {
	var req classifyTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	preds, err := h.classifier.Classify(c.Request.Context(), []string{req.Text})
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, service.ErrModelUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"predictions": preds[0]})
}

// GetCategories handles GET /api/v1/categories.
func (h *ClassifyHandler) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": h.categories,
		"total":      len(h.categories),
	})
}
