package handler

import (
	"errors"
	"food_delivery/internal/domain/store/service"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/internal/pkg/uploader"
	"food_delivery/pkg/logger"
	"food_delivery/pkg/response"
	"food_delivery/pkg/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StoreHandler struct {
	service service.StoreService
}

func NewStoreHandler(s service.StoreService) *StoreHandler {
	return &StoreHandler{service: s}
}

type OpenInput struct {
	Open bool `json:"open"`
}

// ListStores 门店列表
// @Summary 门店列表
// @Tags Store
// @Produce json
// @Param q query string false "Search"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /stores [get]
func (h *StoreHandler) ListStores(c *gin.Context) {
	var q service.ListQuery
	_ = c.ShouldBindQuery(&q)

	stores, total, err := h.service.ListStores(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, utils.NewPageResult(stores, total, q.Pagination))
}

// GetStore 门店详情 (ID 或 slug)
// @Summary 门店详情
// @Tags Store
// @Produce json
// @Param id path string true "Store ID or slug"
// @Success 200 {object} response.Response{data=model.Store}
// @Router /stores/{id} [get]
func (h *StoreHandler) GetStore(c *gin.Context) {
	store, err := h.service.GetStore(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, store)
}

// GetMenu 门店菜单
// @Summary 门店菜单
// @Tags Store
// @Produce json
// @Param id path string true "Store ID or slug"
// @Success 200 {object} response.Response{data=model.Menu}
// @Router /stores/{id}/menu [get]
func (h *StoreHandler) GetMenu(c *gin.Context) {
	menu, err := h.service.GetMenu(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, menu)
}

// ListOwnedStores 我的门店
// @Summary 我的门店
// @Tags Owner
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]model.Store}
// @Router /owner/stores [get]
func (h *StoreHandler) ListOwnedStores(c *gin.Context) {
	stores, err := h.service.ListOwnedStores(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, stores)
}

// CreateStore 创建门店
// @Summary 创建门店
// @Tags Owner
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.StoreInput true "Store"
// @Success 201 {object} response.Response{data=model.Store}
// @Router /owner/stores [post]
func (h *StoreHandler) CreateStore(c *gin.Context) {
	var in service.StoreInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	store, err := h.service.CreateStore(c.Request.Context(), middleware.CurrentActor(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, store)
}

// UpdateStore 更新门店
// @Summary 更新门店
// @Tags Owner
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Param body body service.StoreInput true "Store"
// @Success 200 {object} response.Response{data=model.Store}
// @Router /owner/stores/{id} [put]
func (h *StoreHandler) UpdateStore(c *gin.Context) {
	var in service.StoreInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	store, err := h.service.UpdateStore(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, store)
}

// SetOpen 营业/打烊
// @Summary 营业/打烊
// @Tags Owner
// @Accept json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Param body body OpenInput true "Open"
// @Success 200 {object} response.Response
// @Router /owner/stores/{id}/open [put]
func (h *StoreHandler) SetOpen(c *gin.Context) {
	var in OpenInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	if err := h.service.SetOpen(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), in.Open); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"open": in.Open})
}

// DeleteStore 删除门店
// @Summary 删除门店
// @Tags Owner
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Success 200 {object} response.Response
// @Router /owner/stores/{id} [delete]
func (h *StoreHandler) DeleteStore(c *gin.Context) {
	if err := h.service.DeleteStore(c.Request.Context(), middleware.CurrentActor(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, true)
}

// UploadStoreImage 上传门店 logo/banner
// @Summary 上传门店图片
// @Tags Owner
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Param kind formData string false "logo | banner"
// @Param file formData file true "Image"
// @Success 200 {object} response.Response{data=string}
// @Router /owner/stores/{id}/image [post]
func (h *StoreHandler) UploadStoreImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "file is required")
		return
	}
	src, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	defer src.Close()

	url, err := h.service.UploadStoreImage(c.Request.Context(), middleware.CurrentActor(c),
		c.Param("id"), c.DefaultPostForm("kind", "logo"), file.Filename, src)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, url)
}

// ListProducts 商品管理列表
// @Summary 商品管理列表
// @Tags Owner
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Success 200 {object} response.Response{data=[]model.Product}
// @Router /owner/stores/{id}/products [get]
func (h *StoreHandler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, products)
}

// CreateProduct 新建商品
// @Summary 新建商品
// @Tags Owner
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Param body body service.ProductInput true "Product"
// @Success 201 {object} response.Response{data=model.Product}
// @Router /owner/stores/{id}/products [post]
func (h *StoreHandler) CreateProduct(c *gin.Context) {
	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	p, err := h.service.CreateProduct(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, p)
}

// UpdateProduct 更新商品
// @Summary 更新商品
// @Tags Owner
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param body body service.ProductInput true "Product"
// @Success 200 {object} response.Response{data=model.Product}
// @Router /owner/products/{id} [put]
func (h *StoreHandler) UpdateProduct(c *gin.Context) {
	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	p, err := h.service.UpdateProduct(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, p)
}

// DeleteProduct 删除商品
// @Summary 删除商品
// @Tags Owner
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} response.Response
// @Router /owner/products/{id} [delete]
func (h *StoreHandler) DeleteProduct(c *gin.Context) {
	if err := h.service.DeleteProduct(c.Request.Context(), middleware.CurrentActor(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, true)
}

// UploadProductImage 上传商品图片
// @Summary 上传商品图片
// @Tags Owner
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param file formData file true "Image"
// @Success 200 {object} response.Response{data=string}
// @Router /owner/products/{id}/image [post]
func (h *StoreHandler) UploadProductImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "file is required")
		return
	}
	src, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	defer src.Close()

	url, err := h.service.UploadProductImage(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), file.Filename, src)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, url)
}

func (h *StoreHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStoreNotFound):
		response.Error(c, http.StatusNotFound, response.ErrStoreNotFound, err.Error())
	case errors.Is(err, service.ErrProductNotFound):
		response.Error(c, http.StatusNotFound, response.ErrProductNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, err.Error())
	case errors.Is(err, service.ErrInvalidPrice), errors.Is(err, uploader.ErrUnsupportedFileType):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	case errors.Is(err, service.ErrNoUploader):
		response.Error(c, http.StatusServiceUnavailable, response.ErrServerInternal, err.Error())
	default:
		logger.Log.Error("store request failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal error")
	}
}
