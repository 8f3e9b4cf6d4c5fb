package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/tldw/pkg/domain"

	"github.com/gin-gonic/gin"
)

type agentCardController struct{ card domain.AgentCard }

func NewAgentCardController(card domain.AgentCard) *agentCardController {
	return &agentCardController{card}
}

func (h *agentCardController) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, h.card)
}
