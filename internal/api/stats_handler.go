package api

import (
	"errors"
	"io"
	"net/http"

	"WarTrack/internal/model"
	"WarTrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StatsHandler 统计查询接口
type StatsHandler struct {
	equipments *service.EquipmentsService
	systems    *service.SystemsService
	logger     *logrus.Logger
}

// NewStatsHandler 创建StatsHandler
func NewStatsHandler(equipments *service.EquipmentsService, systems *service.SystemsService, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{
		equipments: equipments,
		systems:    systems,
		logger:     logger,
	}
}

// EquipmentsRequest 装备明细查询请求体
type EquipmentsRequest struct {
	Types []string `json:"types"` // 装备类型集合（可空）
	Date  []string `json:"date"`  // [开始日期, 结束日期]（可空）
}

// TotalEquipmentsRequest 装备总量查询请求体
type TotalEquipmentsRequest struct {
	Country string   `json:"country"` // 国家（可空，等价all）
	Types   []string `json:"types"`   // 装备类型集合（可空）
}

// SystemsRequest 武器系统明细查询请求体
type SystemsRequest struct {
	Systems []string `json:"systems"` // 系统名称集合（可空）
	Status  []string `json:"status"`  // 损失状态集合（可空）
	Date    []string `json:"date"`    // [开始日期, 结束日期]（可空）
}

// TotalSystemsRequest 武器系统总量查询请求体
type TotalSystemsRequest struct {
	Country string   `json:"country"` // 国家（可空，等价all）
	Systems []string `json:"systems"` // 系统名称集合（可空）
}

// GetEquipments 按国家查询装备损失明细
// POST /stats/equipments/:country
func (h *StatsHandler) GetEquipments(c *gin.Context) {
	country, err := model.ParseCountry(c.Param("country"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req EquipmentsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	types, err := parseEquipmentTypes(req.Types)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.equipments.GetEquipments(c.Request.Context(), country, types, req.Date)
	if err != nil {
		h.respondQueryError(c, "GetEquipments", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetTotalEquipments 查询装备累计总量
// POST /stats/equipments
func (h *StatsHandler) GetTotalEquipments(c *gin.Context) {
	var req TotalEquipmentsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	country, err := parseOptionalCountry(req.Country)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	types, err := parseEquipmentTypes(req.Types)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.equipments.GetTotalEquipments(c.Request.Context(), country, types)
	if err != nil {
		h.respondQueryError(c, "GetTotalEquipments", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetEquipmentTypes 查询库中出现过的装备类型
// GET /stats/equipment-types?country=
func (h *StatsHandler) GetEquipmentTypes(c *gin.Context) {
	country, err := parseOptionalCountry(c.Query("country"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	types, err := h.equipments.GetEquipmentTypes(c.Request.Context(), country)
	if err != nil {
		h.respondQueryError(c, "GetEquipmentTypes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"types": types})
}

// GetSystems 按国家查询武器系统损失明细
// POST /stats/systems/:country
func (h *StatsHandler) GetSystems(c *gin.Context) {
	country, err := model.ParseCountry(c.Param("country"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req SystemsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := parseStatuses(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.systems.GetSystems(c.Request.Context(), country, req.Systems, status, req.Date)
	if err != nil {
		h.respondQueryError(c, "GetSystems", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetTotalSystems 查询武器系统累计总量
// POST /stats/systems
func (h *StatsHandler) GetTotalSystems(c *gin.Context) {
	var req TotalSystemsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	country, err := parseOptionalCountry(req.Country)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.systems.GetTotalSystems(c.Request.Context(), country, req.Systems)
	if err != nil {
		h.respondQueryError(c, "GetTotalSystems", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetSystemTypes 查询库中出现过的系统名称
// GET /stats/system-types?country=
func (h *StatsHandler) GetSystemTypes(c *gin.Context) {
	country, err := parseOptionalCountry(c.Query("country"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	systems, err := h.systems.GetSystemTypes(c.Request.Context(), country)
	if err != nil {
		h.respondQueryError(c, "GetSystemTypes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"systems": systems})
}

// respondQueryError 校验错误映射400，其余映射500
func (h *StatsHandler) respondQueryError(c *gin.Context, op string, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
		return
	}
	h.logger.WithError(err).Errorf("%s failed", op)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// bindOptionalJSON 请求体可空：空body按零值请求处理，格式错误返回错误
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// parseOptionalCountry 空串等价all
func parseOptionalCountry(s string) (model.Country, error) {
	if s == "" {
		return model.CountryAll, nil
	}
	return model.ParseCountry(s)
}

func parseEquipmentTypes(raw []string) ([]model.EquipmentType, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	types := make([]model.EquipmentType, 0, len(raw))
	for _, s := range raw {
		t, err := model.ParseEquipmentType(s)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func parseStatuses(raw []string) ([]model.Status, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	status := make([]model.Status, 0, len(raw))
	for _, s := range raw {
		st, err := model.ParseStatus(s)
		if err != nil {
			return nil, err
		}
		status = append(status, st)
	}
	return status, nil
}
