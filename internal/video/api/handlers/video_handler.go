package handlers

import (
	"net/http"
	"strconv"

	"pet_adoption_service/internal/video/app"
	"pet_adoption_service/internal/video/domain"
	"pet_adoption_service/pkg/logger"
	"pet_adoption_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// VideoHandler 定義影片上傳與播放處理器
type VideoHandler struct {
	usecase app.VideoUseCase
}

// NewVideoHandler create VideoHandler
func NewVideoHandler(usecase app.VideoUseCase) *VideoHandler {
	return &VideoHandler{usecase: usecase}
}

// UploadVideo 接收上傳請求，後續流程交給 usecase
func (h *VideoHandler) UploadVideo(c *fiber.Ctx) error {
	title := c.FormValue("title")
	desc := c.FormValue("description")
	petID := c.FormValue("pet_id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "未檢測到檔案"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "讀取檔案失敗"})
	}
	defer file.Close()

	uploadedBy, _ := c.Locals(middlewares.TokenMemberID).(string)

	res, err := h.usecase.UploadVideo(c.Context(), domain.UploadVideoReq{
		Title:       title,
		Description: desc,
		PetID:       petID,
		FileName:    fileHeader.Filename,
		UploadedBy:  uploadedBy,
		File:        file,
	})
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"msg":      res.Message,
		"video_id": res.VideoID,
	})
}

// GetVideo get video
func (h *VideoHandler) GetVideo(c *fiber.Ctx) error {
	videoID := c.Params("id")

	res, err := h.usecase.GetVideo(c.Context(), videoID)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "找不到影片"})
	}

	return c.JSON(fiber.Map{
		"video_id":      res.VideoID,
		"title":         res.Title,
		"status":        res.Status,
		"hls_url":       res.HlsURL,
		"thumbnail_url": res.ThumbnailURL,
	})
}

// GetEncodeProgress 查詢轉碼進度
func (h *VideoHandler) GetEncodeProgress(c *fiber.Ctx) error {
	videoID := c.Params("id")

	res, err := h.usecase.GetEncodeProgress(c.Context(), videoID)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "找不到影片"})
	}

	return c.JSON(fiber.Map{
		"video_id": res.VideoID,
		"status":   res.Status,
		"progress": res.Progress,
	})
}

// Search Search video
func (h *VideoHandler) Search(c *fiber.Ctx) error {
	keyword := c.Query("q")
	videos, err := h.usecase.Search(c.Context(), keyword)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "搜尋失敗"})
	}
	return c.JSON(videos)
}

// GetRecommendations get recommendations
func (h *VideoHandler) GetRecommendations(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		logger.Log.Errorf("GetRecommendations limit transfer err :", err)
		limit = 10
	}

	videos, err := h.usecase.GetRecommendations(c.Context(), limit)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "推薦失敗"})
	}
	return c.JSON(videos)
}

// GetMasterPlaylist 代理返回 master 播放清單
func (h *VideoHandler) GetMasterPlaylist(c *fiber.Ctx) error {
	videoID := c.Params("id")

	content, err := h.usecase.GetMasterPlaylist(c.Context(), videoID)
	if err != nil {
		return c.Status(http.StatusInternalServerError).SendString("無法取得 m3u8 檔案: " + err.Error())
	}

	c.Set("Content-Type", "application/vnd.apple.mpegurl")
	return c.Send(content)
}

// GetHlsFile 代理返回子播放清單或 TS 段檔案
func (h *VideoHandler) GetHlsFile(c *fiber.Ctx) error {
	videoID := c.Params("id")
	fileName := c.Params("file") // 例如 "720p.m3u8" 或 "720p_000.ts"

	content, err := h.usecase.GetHlsFile(c.Context(), videoID, fileName)
	if err != nil {
		return c.Status(http.StatusInternalServerError).SendString("無法取得 HLS 檔案: " + err.Error())
	}

	c.Set("Content-Type", hlsContentType(fileName))
	return c.Send(content)
}

// hlsContentType 依檔名決定回應的 Content-Type
func hlsContentType(fileName string) string {
	if len(fileName) > 5 && fileName[len(fileName)-5:] == ".m3u8" {
		return "application/vnd.apple.mpegurl"
	}
	return "video/mp2t"
}
