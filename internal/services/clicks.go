package services

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"inkwell/internal/db"
	"inkwell/internal/logging"
	"inkwell/internal/models"
)

// ClickService 异步累计短链接点击数。
// Increment 永不阻塞、永不报错：点击计数是 best-effort 的遥测，
// 失败一律吞掉，绝不能挡住跳转门的状态迁移。
type ClickService struct {
	queue chan uint // 待累计的链接 ID
	log   *zap.Logger
}

var (
	clickService *ClickService
	clickOnce    sync.Once
)

// GetClickService 获取单例点击计数服务
func GetClickService() *ClickService {
	clickOnce.Do(func() {
		clickService = &ClickService{
			queue: make(chan uint, 1000), // 缓冲队列，防止阻塞
			log:   logging.WithComponent("clicks"),
		}
		go clickService.worker()
	})
	return clickService
}

// Increment 把一次点击放进队列。队列满了直接丢弃这一次计数。
func (s *ClickService) Increment(linkID uint) {
	select {
	case s.queue <- linkID:
	default:
		s.log.Warn("click queue full, dropping increment", zap.Uint("link_id", linkID))
	}
}

// worker 批量落库：累计同一链接的点击，每 500ms 或攒满 50 条刷一次
func (s *ClickService) worker() {
	pending := make(map[uint]int)
	total := 0
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case linkID := <-s.queue:
			pending[linkID]++
			total++
			if total >= 50 {
				s.flush(pending)
				pending = make(map[uint]int)
				total = 0
			}
		case <-ticker.C:
			if total > 0 {
				s.flush(pending)
				pending = make(map[uint]int)
				total = 0
			}
		}
	}
}

// flush 把累计值写回数据库，失败只记日志
func (s *ClickService) flush(pending map[uint]int) {
	for linkID, n := range pending {
		err := db.DB.Model(&models.ShortenedLink{}).Where("id = ?", linkID).
			UpdateColumn("clicks", gorm.Expr("clicks + ?", n)).Error
		if err != nil {
			s.log.Warn("click flush failed", zap.Uint("link_id", linkID), zap.Error(err))
		}
	}
}
