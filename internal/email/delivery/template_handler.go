package delivery

import (
	"errors"
	"net/http"
	"strconv"

	emaildomain "mail-assistant-backend/internal/email/domain"
	emaildto "mail-assistant-backend/internal/email/dto"
	"mail-assistant-backend/internal/email/usecase"

	"github.com/gin-gonic/gin"
)

type TemplateHandler struct {
	templateUsecase usecase.TemplateUsecase
}

func NewTemplateHandler(templateUsecase usecase.TemplateUsecase) *TemplateHandler {
	return &TemplateHandler{
		templateUsecase: templateUsecase,
	}
}

func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templateUsecase.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *TemplateHandler) Create(c *gin.Context) {
	var req emaildto.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template := &emaildomain.Template{
		Name:    req.Name,
		Subject: req.Subject,
		Content: req.Content,
	}
	if err := h.templateUsecase.Create(template); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, template)
}

func (h *TemplateHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return
	}

	var req emaildto.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template := &emaildomain.Template{
		ID:      uint(id),
		Name:    req.Name,
		Subject: req.Subject,
		Content: req.Content,
	}
	if err := h.templateUsecase.Update(template); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, template)
}

func (h *TemplateHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return
	}

	if err := h.templateUsecase.Delete(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "template deleted"})
}

func (h *TemplateHandler) Render(c *gin.Context) {
	name := c.Param("name")

	var req emaildto.RenderTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subject, content, err := h.templateUsecase.Render(name, req.Vars)
	if err != nil {
		if errors.Is(err, emaildomain.ErrTemplateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, emaildto.RenderTemplateResponse{Subject: subject, Content: content})
}
