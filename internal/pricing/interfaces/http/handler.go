package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/response"
	"github.com/wyfcoding/optionpricing/pkg/xerrors"
)

// PricingHandler HTTP 处理器
// 负责处理与定价相关的 HTTP 请求
type PricingHandler struct {
	svc *application.PricingService
}

// NewPricingHandler 创建 HTTP 处理器实例
func NewPricingHandler(svc *application.PricingService) *PricingHandler {
	return &PricingHandler{svc: svc}
}

// RegisterRoutes 注册路由
// 将处理器方法绑定到 Gin 路由引擎
func (h *PricingHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1/pricing")
	{
		api.POST("/option/price", h.PriceOption)
		api.POST("/option/greeks", h.GetGreeks)
		api.POST("/option/payoff", h.GetPayoffCurve)
		api.POST("/option/batch", h.BatchPriceOptions)
		api.GET("/quote/:symbol", h.Quote)
		api.GET("/results/:symbol", h.GetLatestResult)
		api.GET("/results/:symbol/history", h.GetHistory)
	}
}

// PriceOption 计算期权价格与希腊字母
func (h *PricingHandler) PriceOption(c *gin.Context) {
	var cmd application.PriceOptionCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	result, err := h.svc.PriceOption(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, "Failed to price option", err)
		return
	}
	response.Success(c, result)
}

// GetGreeks 只计算希腊字母
func (h *PricingHandler) GetGreeks(c *gin.Context) {
	var cmd application.PriceOptionCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	greeks, err := h.svc.GetGreeks(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, "Failed to calculate Greeks", err)
		return
	}
	response.Success(c, greeks)
}

// GetPayoffCurve 生成到期损益曲线
func (h *PricingHandler) GetPayoffCurve(c *gin.Context) {
	var cmd application.PayoffCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	curve, err := h.svc.GetPayoffCurve(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, "Failed to generate payoff curve", err)
		return
	}
	response.Success(c, curve)
}

// BatchPriceOptions 批量定价，单个合约失败不影响其他合约
func (h *PricingHandler) BatchPriceOptions(c *gin.Context) {
	var cmd application.BatchPriceOptionsCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	result, err := h.svc.BatchPriceOptions(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, "Failed to price batch", err)
		return
	}
	response.Success(c, result)
}

// Quote 仪表盘查询
// 查询参数：strike, maturity, rate, vol, payoff_type
func (h *PricingHandler) Quote(c *gin.Context) {
	cmd := application.QuoteCommand{
		Symbol:     c.Param("symbol"),
		PayoffType: c.Query("payoff_type"),
	}
	var err error
	if cmd.Strike, err = queryFloat(c, "strike"); err != nil {
		response.Error(c, err)
		return
	}
	if cmd.Maturity, err = queryFloat(c, "maturity"); err != nil {
		response.Error(c, err)
		return
	}
	if cmd.Rate, err = optionalQueryFloat(c, "rate"); err != nil {
		response.Error(c, err)
		return
	}
	if cmd.Volatility, err = optionalQueryFloat(c, "vol"); err != nil {
		response.Error(c, err)
		return
	}

	dto, err := h.svc.Quote(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, "Failed to build quote", err)
		return
	}
	response.Success(c, dto)
}

// GetLatestResult 获取最新定价结果
func (h *PricingHandler) GetLatestResult(c *gin.Context) {
	result, err := h.svc.GetLatestResult(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.fail(c, "Failed to get latest result", err)
		return
	}
	response.Success(c, result)
}

// GetHistory 获取定价历史
func (h *PricingHandler) GetHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		response.Error(c, xerrors.InvalidArg("limit must be an integer"))
		return
	}

	results, err := h.svc.GetHistory(c.Request.Context(), c.Param("symbol"), limit)
	if err != nil {
		h.fail(c, "Failed to get pricing history", err)
		return
	}
	response.Success(c, results)
}

// fail 参数类错误只记 Warn，其余记 Error
func (h *PricingHandler) fail(c *gin.Context, msg string, err error) {
	ctx := c.Request.Context()
	switch xerrors.TypeOf(err) {
	case xerrors.ErrInvalidArg, xerrors.ErrDomain, xerrors.ErrNotFound:
		logger.Warn(ctx, msg, "path", c.FullPath(), "error", err)
	default:
		logger.Error(ctx, msg, "path", c.FullPath(), "error", err)
	}
	response.Error(c, err)
}

func queryFloat(c *gin.Context, key string) (float64, error) {
	v, err := optionalQueryFloat(c, key)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

func optionalQueryFloat(c *gin.Context, key string) (*float64, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, xerrors.InvalidArg("%s must be a number, got %q", key, raw)
	}
	return &v, nil
}
