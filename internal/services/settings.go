package services

import (
	"sync"

	"go.uber.org/zap"

	"inkwell/internal/db"
	"inkwell/internal/logging"
	"inkwell/internal/models"
)

// SettingsService 站点设置的共享缓存单元。
// 懒加载：第一次读取时才查库，之后整个会话复用；
// 后台保存设置后调用 Invalidate 强制下次读取重新拉取。
// loader 可注入，测试里不需要数据库。
type SettingsService struct {
	mu     sync.Mutex
	loaded bool
	values map[string]string
	loader func() (map[string]string, error)
}

var (
	settingsService *SettingsService
	settingsOnce    sync.Once
)

// GetSettingsService 获取单例设置服务（从数据库加载）
func GetSettingsService() *SettingsService {
	settingsOnce.Do(func() {
		settingsService = NewSettingsService(loadSettingsFromDB)
	})
	return settingsService
}

// NewSettingsService 用指定的 loader 构造设置单元
func NewSettingsService(loader func() (map[string]string, error)) *SettingsService {
	return &SettingsService{loader: loader}
}

func loadSettingsFromDB() (map[string]string, error) {
	var rows []models.Setting
	if err := db.DB.Find(&rows).Error; err != nil {
		return nil, err
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

// ensure 首次访问时加载；加载失败保持未加载状态，下次访问重试
func (s *SettingsService) ensure() {
	if s.loaded {
		return
	}
	values, err := s.loader()
	if err != nil {
		logging.WithComponent("settings").Error("Failed to load site settings", zap.Error(err))
		s.values = map[string]string{}
		return
	}
	s.values = values
	s.loaded = true
}

// Get 读取单个设置项，缺失返回空串
func (s *SettingsService) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	return s.values[key]
}

// All 返回全部设置的副本
func (s *SettingsService) All() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Invalidate 丢弃缓存，下次读取重新走 loader。
// 后台保存设置后以及测试用例之间都靠它复位。
func (s *SettingsService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.values = nil
}

// Save 写入一个设置项并使缓存失效
func (s *SettingsService) Save(key, value string) error {
	err := db.DB.Where(models.Setting{Key: key}).
		Assign(models.Setting{Value: value}).
		FirstOrCreate(&models.Setting{}).Error
	if err != nil {
		return err
	}
	s.Invalidate()
	return nil
}
