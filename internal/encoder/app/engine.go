package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"pet_adoption_service/internal/encoder/domain"
)

// TranscodingEngine 轉碼引擎介面，測試時可用假引擎替代真正的 ffmpeg
type TranscodingEngine interface {
	// Probe 探測影片長度與解析度
	Probe(ctx context.Context, inputPath string) (*domain.VideoMetadata, error)
	// TranscodeToHLS 將 inputPath 轉成多解析度 HLS，輸出到 outDir
	TranscodeToHLS(ctx context.Context, inputPath, outDir string, resolutions []int) error
	// ExtractThumbnail 擷取單張代表畫面存成 JPEG
	ExtractThumbnail(ctx context.Context, inputPath, outPath string) error
}

// FFmpegEngine 以外部 ffmpeg/ffprobe 執行檔實作 TranscodingEngine
type FFmpegEngine struct {
	FFmpegPath  string
	FFprobePath string
}

// NewFFmpegEngine create FFmpegEngine，路徑留空時使用 PATH 上的執行檔
func NewFFmpegEngine(ffmpegPath, ffprobePath string) *FFmpegEngine {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegEngine{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}
}

// probeResult ffprobe -of json 的輸出結構
type probeResult struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe 使用 ffprobe 取得影片長度與解析度
func (e *FFmpegEngine) Probe(ctx context.Context, inputPath string) (*domain.VideoMetadata, error) {
	cmdArgs := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-show_entries", "format=duration",
		"-of", "json",
		inputPath,
	}
	cmd := exec.CommandContext(ctx, e.FFprobePath, cmdArgs...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe 執行失敗: %v", err)
	}
	return parseProbeOutput(output)
}

// parseProbeOutput 解析 ffprobe JSON 輸出並驗證必要欄位
// 解析度 <= 0 或長度無法解析都視為無效影片，不往下轉碼
func parseProbeOutput(output []byte) (*domain.VideoMetadata, error) {
	var res probeResult
	if err := json.Unmarshal(output, &res); err != nil {
		return nil, fmt.Errorf("ffprobe 輸出解析失敗: %v", err)
	}
	if len(res.Streams) == 0 {
		return nil, fmt.Errorf("ffprobe 找不到視訊串流")
	}
	duration, err := strconv.ParseFloat(res.Format.Duration, 64)
	if err != nil {
		return nil, fmt.Errorf("ffprobe 影片長度無法解析: %v", err)
	}
	meta := &domain.VideoMetadata{
		DurationSeconds: duration,
		Width:           res.Streams[0].Width,
		Height:          res.Streams[0].Height,
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return nil, fmt.Errorf("ffprobe 解析度異常 width=%d height=%d", meta.Width, meta.Height)
	}
	return meta, nil
}

// TranscodeToHLS 將 inputPath 轉成多解析度 HLS 格式，輸出到 outDir
// 每檔解析度產生 {height}p.m3u8 與 {height}p_%03d.ts 分段，最後寫出 master.m3u8
func (e *FFmpegEngine) TranscodeToHLS(ctx context.Context, inputPath, outDir string, resolutions []int) error {
	cmdArgs := []string{"-y", "-i", inputPath}
	for _, h := range resolutions {
		v := hlsVariants[h]
		cmdArgs = append(cmdArgs,
			"-vf", fmt.Sprintf("scale=w=%d:h=%d:force_original_aspect_ratio=decrease", v.Width, v.Height),
			"-c:a", "aac",
			"-ar", "48000",
			"-b:a", v.AudioBitrate,
			"-c:v", "libx264",
			"-profile:v", "main",
			"-crf", "20",
			"-sc_threshold", "0",
			"-g", "48",
			"-keyint_min", "48",
			"-b:v", v.VideoBitrate,
			"-maxrate", v.MaxRate,
			"-bufsize", v.BufSize,
			"-f", "hls",
			"-hls_time", "4",
			"-hls_playlist_type", "vod",
			"-hls_segment_filename", filepath.Join(outDir, fmt.Sprintf("%dp_%%03d.ts", h)),
			filepath.Join(outDir, fmt.Sprintf("%dp.m3u8", h)),
		)
	}
	log.Printf("執行 FFmpeg HLS: %s %v", e.FFmpegPath, cmdArgs)
	cmd := exec.CommandContext(ctx, e.FFmpegPath, cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("FFmpeg HLS 錯誤: %v, output: %s", err, string(output))
	}

	// master 播放清單由這一層自己產生，檔名與分段命名是本層的輸出契約
	masterPath := filepath.Join(outDir, "master.m3u8")
	if err := os.WriteFile(masterPath, BuildMasterPlaylist(resolutions), 0644); err != nil {
		return fmt.Errorf("寫入 master.m3u8 失敗: %v", err)
	}
	return nil
}

// ExtractThumbnail 擷取影片第 1 秒畫面存成 JPEG
func (e *FFmpegEngine) ExtractThumbnail(ctx context.Context, inputPath, outPath string) error {
	cmdArgs := []string{
		"-i", inputPath,
		"-ss", "00:00:01.000",
		"-vframes", "1",
		"-vf", "scale=640:-1",
		"-y",
		outPath,
	}
	log.Printf("執行 FFmpeg 縮圖: %s %v", e.FFmpegPath, cmdArgs)
	cmd := exec.CommandContext(ctx, e.FFmpegPath, cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("FFmpeg 縮圖錯誤: %v, output: %s", err, string(output))
	}
	return nil
}
