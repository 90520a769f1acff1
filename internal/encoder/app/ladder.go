package app

import (
	"fmt"
	"strings"
)

// hlsVariant 單一解析度的輸出參數
type hlsVariant struct {
	Width        int
	Height       int
	VideoBitrate string
	MaxRate      string
	BufSize      string
	AudioBitrate string
	Bandwidth    int // master playlist 的 BANDWIDTH 欄位
}

// hlsCandidates 固定候選解析度階梯，由低到高
var hlsCandidates = []int{360, 480, 720}

// hlsVariants 各解析度的編碼參數
var hlsVariants = map[int]hlsVariant{
	360: {Width: 640, Height: 360, VideoBitrate: "800k", MaxRate: "856k", BufSize: "1200k", AudioBitrate: "96k", Bandwidth: 800000},
	480: {Width: 842, Height: 480, VideoBitrate: "1400k", MaxRate: "1498k", BufSize: "2100k", AudioBitrate: "128k", Bandwidth: 1400000},
	720: {Width: 1280, Height: 720, VideoBitrate: "2800k", MaxRate: "2996k", BufSize: "4200k", AudioBitrate: "128k", Bandwidth: 2800000},
}

// SelectResolutionLadder 依原始影片高度挑選輸出解析度
// 純函式：過濾候選值 <= sourceHeight；全部被過濾掉時退回最低檔
// （原始檔低於 360p 時寧可放大也要有一檔可播，不會再往下產生第二檔）
func SelectResolutionLadder(sourceHeight int) []int {
	ladder := make([]int, 0, len(hlsCandidates))
	for _, h := range hlsCandidates {
		if h <= sourceHeight {
			ladder = append(ladder, h)
		}
	}
	if len(ladder) == 0 {
		ladder = append(ladder, hlsCandidates[0])
	}
	return ladder
}

// BuildMasterPlaylist 產生 master.m3u8 內容，引用各解析度的子播放清單
func BuildMasterPlaylist(resolutions []int) []byte {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")
	for _, h := range resolutions {
		v := hlsVariants[h]
		b.WriteString(fmt.Sprintf("#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d\n", v.Bandwidth, v.Width, v.Height))
		b.WriteString(fmt.Sprintf("%dp.m3u8\n", h))
	}
	return []byte(b.String())
}
