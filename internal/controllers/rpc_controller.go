package controllers

import (
	"fmt"
	"net/http"

	"github.com/osvaldoandrade/tldw/internal/services"
	"github.com/osvaldoandrade/tldw/pkg/domain"

	"github.com/gin-gonic/gin"
)

type rpcController struct{ svc services.PipelineService }

func NewRPCController(svc services.PipelineService) *rpcController {
	return &rpcController{svc}
}

// Handle serves the message/send JSON-RPC operation. Envelope problems are
// reported as JSON-RPC error objects: -32700 for unparseable bodies, -32601
// for unknown methods, -32602 for structurally invalid params. Unexpected
// faults surface as -32603 with HTTP 500, never as a partial result.
func (h *rpcController) Handle(c *gin.Context) {
	var req domain.JSONRPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.NewRPCError(nil, domain.CodeParseError, "Parse error", err.Error()))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			c.JSON(http.StatusInternalServerError, domain.NewRPCError(req.ID, domain.CodeInternalError, "Internal error", fmt.Sprint(r)))
		}
	}()

	if req.Method != domain.MethodMessageSend {
		c.JSON(http.StatusBadRequest, domain.NewRPCError(req.ID, domain.CodeMethodNotFound, "Method must be 'message/send'", nil))
		return
	}

	msg := req.Params.Message
	if len(msg.Parts) == 0 {
		c.JSON(http.StatusBadRequest, domain.NewRPCError(req.ID, domain.CodeInvalidParams, "Invalid params", "message must carry at least one part"))
		return
	}

	var cfg domain.MessageSendConfiguration
	if req.Params.Configuration != nil {
		cfg = *req.Params.Configuration
	}

	result := h.svc.Process(c.Request.Context(), msg, cfg)
	c.JSON(http.StatusOK, domain.NewRPCResult(req.ID, result))
}
