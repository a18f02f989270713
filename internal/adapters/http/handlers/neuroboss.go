package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/neuroboss/internal/adapters/http/dto"
	"github.com/jsamuelsen/neuroboss/internal/app"
	"github.com/jsamuelsen/neuroboss/internal/domain"
)

// Generator produces frameworks and a quote for a project description.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*app.Generation, error)
}

// NeurobossHandler serves the generation endpoint.
type NeurobossHandler struct {
	generator Generator
}

// NewNeurobossHandler creates a new generation handler.
func NewNeurobossHandler(generator Generator) *NeurobossHandler {
	return &NeurobossHandler{generator: generator}
}

// Generate handles POST /api/neuroboss.
//
// A missing, null or empty project yields 400 {"error":"No project"}.
// Unusable model output still yields 200 with the fallback body and the
// X-Neuroboss-Fallback header set.
//
// @Summary Suggest frameworks for a project
// @Accept json
// @Produce json
// @Param body body dto.GenerateRequest true "Project description"
// @Success 200 {object} dto.GenerateResponse
// @Failure 400 {object} dto.SimpleError
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/neuroboss [post]
func (h *NeurobossHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest

	err := dto.BindAndValidate(c, &req)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	gen, err := h.generator.Generate(c.Request.Context(), req.ToDomain())
	if err != nil {
		if domain.IsValidation(err) {
			c.JSON(http.StatusBadRequest, dto.SimpleError{Error: dto.NoProjectMessage})
			return
		}

		dto.HandleError(c, err)

		return
	}

	if gen.Fallback {
		c.Header(dto.HeaderFallback, "true")
	}

	c.JSON(http.StatusOK, dto.NewGenerateResponse(gen.Result))
}

// RegisterNeurobossRoutes registers the generation route on the given group.
func (h *NeurobossHandler) RegisterNeurobossRoutes(rg *gin.RouterGroup) {
	rg.POST("/neuroboss", h.Generate)
}
