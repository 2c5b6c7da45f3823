package linkgate

import (
	"sync"
	"time"
)

const (
	// 被遗弃的门超过该时长没有任何交互就回收，避免定时器泄漏
	gateIdleTTL = 10 * time.Minute

	janitorInterval = time.Minute
)

// Registry 按访客会话持有存活的门。
// 浏览器离开页面不会发任何通知，所以靠空闲超时来兜底回收。
type Registry struct {
	mu    sync.Mutex
	gates map[string]*Gate
	stop  chan struct{}
	once  sync.Once
}

func NewRegistry() *Registry {
	r := &Registry{
		gates: make(map[string]*Gate),
		stop:  make(chan struct{}),
	}
	go r.janitor()
	return r
}

// Get 返回 key 对应的存活门，没有则返回 nil
func (r *Registry) Get(key string) *Gate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gates[key]
}

// Put 登记一个新门，同 key 的旧门先停掉再替换
func (r *Registry) Put(key string, g *Gate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.gates[key]; ok {
		old.Stop()
	}
	r.gates[key] = g
}

// Remove 停掉并移除一个门
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gates[key]; ok {
		g.Stop()
		delete(r.gates, key)
	}
}

// Len 当前存活的门数量
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.gates)
}

// Close 停掉清理协程和所有存活的门
func (r *Registry) Close() {
	r.once.Do(func() { close(r.stop) })
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, g := range r.gates {
		g.Stop()
		delete(r.gates, key)
	}
}

func (r *Registry) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.sweep(time.Now())
		case <-r.stop:
			return
		}
	}
}

// sweep 回收空闲超时的门
func (r *Registry) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, g := range r.gates {
		if now.Sub(g.idleSince()) > gateIdleTTL {
			g.Stop()
			delete(r.gates, key)
		}
	}
}
