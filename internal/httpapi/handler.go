package httpapi

import (
	"errors"
	"net/http"

	"pricewatch/internal/commands"
	"pricewatch/internal/components/assert"
	"pricewatch/internal/components/telemetry"

	"github.com/gin-gonic/gin"
)

const report_http_command = "http.command"

type Handler struct {
	registry *commands.Registry
	tel      telemetry.API
}

func NewHandler(registry *commands.Registry, tel telemetry.API) *Handler {
	assert.NotNil(registry)
	assert.NotNil(tel)
	return &Handler{
		registry: registry,
		tel:      telemetry.NewScopedAPI("httpapi", tel),
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

type commandInfo struct {
	Name        string `json:"name"`
	Usage       string `json:"usage,omitempty"`
	Description string `json:"description"`
}

func (h *Handler) ListCommands(c *gin.Context) {
	registered := h.registry.Commands()
	out := make([]commandInfo, len(registered))
	for i, command := range registered {
		out[i] = commandInfo{
			Name:        command.Name,
			Usage:       command.Usage,
			Description: command.Description,
		}
	}
	c.JSON(http.StatusOK, gin.H{"commands": out})
}

type runCommandRequest struct {
	Args string `json:"args"`
}

func (h *Handler) RunCommand(c *gin.Context) {
	name := c.Param("name")

	var req runCommandRequest
	if c.Request.ContentLength != 0 {
		err := c.ShouldBindJSON(&req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	res, err := h.registry.Dispatch(c.Request.Context(), name, commands.Request{Args: req.Args})
	if errors.Is(err, commands.ErrUnknownCommand) {
		c.JSON(http.StatusNotFound, gin.H{"error": commands.UnknownResponse(name).Text})
		return
	}
	if err != nil {
		h.tel.ReportBroken(report_http_command, err, name)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": res.Text})
}
