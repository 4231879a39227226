package routes

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wacrm/pkg/constant"
	"github.com/wacrm/pkg/domains/gateway"
	"github.com/wacrm/pkg/dtos"
	"github.com/wacrm/pkg/entities"
	"github.com/wacrm/pkg/middleware"
	"gorm.io/gorm"
)

func GatewayRoutes(r *gin.RouterGroup, s gateway.Service) {
	// All gateway endpoints require JWT authentication
	authGroup := r.Group("", middleware.CheckAuth())
	{
		authGroup.GET("", listGateways(s))
		authGroup.POST("", createGateway(s))
		authGroup.PUT("/:id", updateGateway(s))
		authGroup.DELETE("/:id", deleteGateway(s))

		authGroup.POST("/:id/connect", connectGateway(s))
		authGroup.POST("/:id/disconnect", disconnectGateway(s))
		authGroup.GET("/:id/status", gatewayStatus(s))
		authGroup.GET("/:id/qr", gatewayQR(s))
		authGroup.POST("/:id/session", startSession(s))
		authGroup.DELETE("/:id/session", removeSession(s))

		authGroup.POST("/:id/send-text", sendText(s))
		authGroup.POST("/:id/send-image", sendImage(s))
		authGroup.POST("/:id/send-file", sendFile(s))
		authGroup.POST("/:id/mark-read", markRead(s))

		authGroup.GET("/:id/chats", listChats(s))
		authGroup.GET("/:id/chats/:chatId/messages", chatMessages(s))
		authGroup.GET("/:id/messages", recentMessages(s))
		authGroup.POST("/:id/pull", pullMessages(s))
	}
}

func gatewayID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
		return 0, false
	}
	return uint(id), true
}

func limitQuery(c *gin.Context, fallback int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(fallback)))
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func listGateways(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		gateways, err := s.ListGateways(c)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"gateways": gateways})
	}
}

func createGateway(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.GatewayCreateDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		gw, err := s.CreateGateway(c, req)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(201, gin.H{
			"message": fmt.Sprintf(constant.CREATED, "Gateway"),
			"data":    gw,
		})
	}
}

func updateGateway(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := gatewayID(c)
		if !ok {
			return
		}
		var req dtos.GatewayUpdateDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		gw, err := s.UpdateGateway(c, id, req)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(404, gin.H{"error": constant.GATEWAY_NOT_FOUND})
				return
			}
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"message": constant.UPDATED, "data": gw})
	}
}

func deleteGateway(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := gatewayID(c)
		if !ok {
			return
		}
		if err := s.DeleteGateway(c, id); err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"message": constant.DELETED})
	}
}

func connectGateway(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := gatewayID(c)
		if !ok {
			return
		}
		gw, err := s.Connect(c, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(404, gin.H{"error": constant.GATEWAY_NOT_FOUND})
				return
			}
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		if gw.Status != entities.GatewayStatusConnected {
			c.JSON(502, gin.H{"error": gw.ErrorMessage, "status": gw.Status})
			return
		}
		c.JSON(200, gin.H{"message": constant.GATEWAY_CONNECTED, "data": gw})
	}
}

func disconnectGateway(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := gatewayID(c)
		if !ok {
			return
		}
		var req dtos.DisconnectDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		if err := s.Disconnect(c, id, req.Confirm); err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(404, gin.H{"error": constant.GATEWAY_NOT_FOUND})
				return
			}
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"message": constant.GATEWAY_DISCONNECTED})
	}
}

func gatewayStatus(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := gatewayID(c)
		if !ok {
			return
		}
		status, err := s.GetStatus(c, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(404, gin.H{"error": constant.GATEWAY_NOT_FOUND})
				return
			}
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, status)
	}
}

func gatewayQR(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := gatewayID(c)
		if !ok {
			return
		}
		resp, err := s.GetQR(c, id)
		if err != nil {
			c.JSON(502, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{
			"qr_code": resp.Map(),
			"message": "Scan this QR code with the WhatsApp mobile app",
		})
	}
}

func startSession(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := gatewayID(c)
		if !ok {
			return
		}
		resp, err := s.StartSession(c, id)
		if err != nil {
			c.JSON(502, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"data": resp.Map()})
	}
}

func removeSession(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := gatewayID(c)
		if !ok {
			return
		}
		if err := s.RemoveSession(c, id); err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"message": constant.DELETED})
	}
}

func sendText(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := gatewayID(c)
		if !ok {
			return
		}
		var req dtos.SendTextDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		resp, err := s.SendText(c, id, req)
		if err != nil {
			c.JSON(502, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"message": constant.GATEWAY_SEND_OK, "data": resp.Map()})
	}
}

func sendImage(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := gatewayID(c)
		if !ok {
			return
		}
		var req dtos.SendImageDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		resp, err := s.SendImage(c, id, req)
		if err != nil {
			c.JSON(502, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"message": constant.GATEWAY_SEND_OK, "data": resp.Map()})
	}
}

func sendFile(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := gatewayID(c)
		if !ok {
			return
		}
		var req dtos.SendFileDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		resp, err := s.SendFile(c, id, req)
		if err != nil {
			c.JSON(502, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"message": constant.GATEWAY_SEND_OK, "data": resp.Map()})
	}
}

func markRead(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := gatewayID(c)
		if !ok {
			return
		}
		var req dtos.MarkReadDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		resp, err := s.MarkRead(c, id, req)
		if err != nil {
			c.JSON(502, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"message": constant.GATEWAY_READ_OK, "data": resp.Map()})
	}
}

func listChats(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := gatewayID(c)
		if !ok {
			return
		}
		chats, err := s.GetChats(c, id)
		if err != nil {
			c.JSON(502, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"chats": chats})
	}
}

func chatMessages(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := gatewayID(c)
		if !ok {
			return
		}
		messages, err := s.GetChatMessages(c, id, c.Param("chatId"), limitQuery(c, 10))
		if err != nil {
			c.JSON(502, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"messages": messages})
	}
}

func recentMessages(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := gatewayID(c)
		if !ok {
			return
		}
		messages, err := s.GetRecentMessages(c, id, limitQuery(c, 50))
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"messages": messages})
	}
}

func pullMessages(s gateway.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := gatewayID(c)
		if !ok {
			return
		}
		messages, err := s.PullMessages(c, id, limitQuery(c, 50))
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"messages": messages})
	}
}
