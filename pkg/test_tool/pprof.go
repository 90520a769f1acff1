package testtool

import (
	"net/http"
	_ "net/http/pprof" // 匯入後會自動註冊 pprof endpoint

	"pet_adoption_service/pkg/config"
	"pet_adoption_service/pkg/logger"
)

// StartPprof 非正式環境時啟動 pprof 監控伺服器
// 轉碼 worker 會吃滿 CPU，pprof 用來觀察 goroutine 與記憶體狀況
func StartPprof() {
	if config.IsProduction() {
		logger.Log.Info("Production environment detected, pprof is disabled.")
		return
	}

	// 非 production 環境時，在預設 port 6060 上啟動 pprof 監控伺服器
	go func() {
		logger.Log.Info("Starting pprof server on :6060")
		if err := http.ListenAndServe(":6060", nil); err != nil {
			logger.Log.Infof("pprof server failed: ", err)
		}
	}()
}
