package app

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

// 測試 SelectResolutionLadder
func TestSelectResolutionLadder(t *testing.T) {
	tests := []struct {
		name         string
		sourceHeight int
		expected     []int
	}{
		{"1080p 原始檔輸出全部三檔", 1080, []int{360, 480, 720}},
		{"720p 原始檔輸出三檔", 720, []int{360, 480, 720}},
		{"719p 原始檔輸出兩檔", 719, []int{360, 480}},
		{"480p 原始檔輸出兩檔", 480, []int{360, 480}},
		{"360p 原始檔輸出一檔", 360, []int{360}},
		{"359p 原始檔退回最低檔", 359, []int{360}},
		{"240p 原始檔退回最低檔", 240, []int{360}},
		{"100p 原始檔退回最低檔", 100, []int{360}},
		{"4K 原始檔也只輸出三檔", 2160, []int{360, 480, 720}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectResolutionLadder(tt.sourceHeight)
			assert.Equal(t, tt.expected, got)
		})
	}

	// 任何輸入都要有至少一檔輸出，且由低到高排序
	t.Run("任何高度都有輸出且升序", func(t *testing.T) {
		for h := 0; h <= 2200; h += 7 {
			got := SelectResolutionLadder(h)
			assert.NotEmpty(t, got)
			assert.True(t, sort.IntsAreSorted(got))
			for _, r := range got {
				assert.Contains(t, hlsCandidates, r)
			}
		}
	})
}

// 測試 BuildMasterPlaylist
func TestBuildMasterPlaylist(t *testing.T) {
	t.Run("三檔解析度的 master 播放清單", func(t *testing.T) {
		content := string(BuildMasterPlaylist([]int{360, 480, 720}))

		expected := "#EXTM3U\n" +
			"#EXT-X-VERSION:3\n" +
			"#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360\n" +
			"360p.m3u8\n" +
			"#EXT-X-STREAM-INF:BANDWIDTH=1400000,RESOLUTION=842x480\n" +
			"480p.m3u8\n" +
			"#EXT-X-STREAM-INF:BANDWIDTH=2800000,RESOLUTION=1280x720\n" +
			"720p.m3u8\n"
		assert.Equal(t, expected, content)
	})

	t.Run("單檔解析度的 master 播放清單", func(t *testing.T) {
		content := string(BuildMasterPlaylist([]int{360}))

		expected := "#EXTM3U\n" +
			"#EXT-X-VERSION:3\n" +
			"#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360\n" +
			"360p.m3u8\n"
		assert.Equal(t, expected, content)
	})
}
