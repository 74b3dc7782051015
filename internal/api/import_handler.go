package api

import (
	"errors"
	"net/http"
	"strconv"

	"WarTrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ImportHandler 手动导入触发与审计查询接口
type ImportHandler struct {
	importService *service.ImportService
	logger        *logrus.Logger
}

// NewImportHandler 创建ImportHandler
func NewImportHandler(importService *service.ImportService, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		logger:        logger,
	}
}

// ImportEquipments 触发按日装备损失导入（?full=true 时全量重导）
// POST /import/equipments
func (h *ImportHandler) ImportEquipments(c *gin.Context) {
	res, err := h.importService.RunEquipments(c.Request.Context(), service.TriggerManual, fullParam(c))
	h.respond(c, "equipment", res, err)
}

// ImportAllEquipments 触发装备总量导入
// POST /import/all-equipments
func (h *ImportHandler) ImportAllEquipments(c *gin.Context) {
	res, err := h.importService.RunAllEquipments(c.Request.Context(), service.TriggerManual)
	h.respond(c, "all_equipment", res, err)
}

// ImportSystems 触发武器系统损失导入（?full=true 时全量重导）
// POST /import/systems
func (h *ImportHandler) ImportSystems(c *gin.Context) {
	res, err := h.importService.RunSystems(c.Request.Context(), service.TriggerManual, fullParam(c))
	h.respond(c, "system", res, err)
}

// ImportAllSystems 触发武器系统总量导入
// POST /import/all-systems
func (h *ImportHandler) ImportAllSystems(c *gin.Context) {
	res, err := h.importService.RunAllSystems(c.Request.Context(), service.TriggerManual)
	h.respond(c, "all_system", res, err)
}

// ImportAll 顺序触发全部四类导入
// POST /import/all
func (h *ImportHandler) ImportAll(c *gin.Context) {
	results, err := h.importService.RunAll(c.Request.Context(), service.TriggerManual, fullParam(c))
	if err != nil {
		h.respondError(c, "all", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "全部数据导入成功",
		"results": results,
	})
}

// ListRuns 查询最近的导入审计记录
// GET /import/runs?limit=
func (h *ImportHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := h.importService.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("ListRuns failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *ImportHandler) respond(c *gin.Context, entity string, res service.ImportResult, err error) {
	if err != nil {
		h.respondError(c, entity, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": entity + "数据导入成功",
		"result":  res,
	})
}

// respondError 运行锁占用映射409，其余导入失败映射500
func (h *ImportHandler) respondError(c *gin.Context, entity string, err error) {
	if errors.Is(err, service.ErrImportBusy) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.logger.WithError(err).Errorf("导入%s失败", entity)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func fullParam(c *gin.Context) bool {
	return c.Query("full") == "true"
}
