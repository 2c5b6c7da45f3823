package linkgate

import (
	"sync"
	"time"

	"inkwell/internal/models"
)

// Phase 跳转门所处的阶段。
// timer → ready → (password | access)，access 为终态；
// absent 表示 token 没有命中任何链接，门不存在，页面正常渲染。
type Phase int

const (
	PhaseAbsent Phase = iota
	PhaseTimer
	PhaseReady
	PhasePassword
	PhaseAccess
)

func (p Phase) String() string {
	switch p {
	case PhaseAbsent:
		return "absent"
	case PhaseTimer:
		return "timer"
	case PhaseReady:
		return "ready"
	case PhasePassword:
		return "password"
	case PhaseAccess:
		return "access"
	}
	return "unknown"
}

// CountdownSeconds 倒计时长度。这只是客户端体验上的延迟闸，
// 不是安全控制——能读网络流量的人可以直接跳过，这是已知且接受的限制。
const CountdownSeconds = 15

// Gate 单个访客会话上的跳转门状态机。
// 倒计时是唯一由时间驱动的迁移，其余都由用户动作驱动。
type Gate struct {
	mu            sync.Mutex
	link          *models.ShortenedLink
	phase         Phase
	remaining     int
	passwordError bool
	onContinue    func(linkID uint) // 点击计数回调，fire-and-forget
	stop          chan struct{}
	stopOnce      sync.Once
	touched       time.Time
}

// New 创建一个门。link 为 nil 时进入 absent 终态（token 未命中）。
func New(link *models.ShortenedLink, onContinue func(linkID uint)) *Gate {
	g := &Gate{
		link:       link,
		onContinue: onContinue,
		stop:       make(chan struct{}),
		touched:    time.Now(),
	}
	if link == nil {
		g.phase = PhaseAbsent
	} else {
		g.phase = PhaseTimer
		g.remaining = CountdownSeconds
	}
	return g
}

// Phase 当前阶段
func (g *Gate) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Remaining 倒计时剩余时长（仅 timer 阶段有意义）
func (g *Gate) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remaining
}

// PasswordError 上一次密码尝试是否失败
func (g *Gate) PasswordError() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.passwordError
}

// Tick 倒计时减一。到零迁移到 ready，且只迁移一次：
// 之后的 Tick 在非 timer 阶段一律空转。
func (g *Gate) Tick() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.touched = time.Now()

	if g.phase != PhaseTimer {
		return
	}
	g.remaining--
	if g.remaining <= 0 {
		g.remaining = 0
		g.phase = PhaseReady
	}
}

// Continue 用户在 ready 阶段点击"继续"。
// 先异步触发一次点击计数（失败被吞掉，绝不阻塞门本身），
// 然后根据链接是否带密码进入 password 或直接 access。
func (g *Gate) Continue() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.touched = time.Now()

	if g.phase != PhaseReady {
		return g.phase
	}

	if g.onContinue != nil {
		go g.onContinue(g.link.ID)
	}

	if g.link.Password != nil {
		g.phase = PhasePassword
	} else {
		g.phase = PhaseAccess
	}
	return g.phase
}

// SubmitPassword 密码阶段提交口令，与存储的明文逐字节精确比对（区分大小写）。
// 错误则停留在 password 并置错误标记；正确则清除标记进入 access。
func (g *Gate) SubmitPassword(secret string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.touched = time.Now()

	if g.phase != PhasePassword {
		return false
	}
	if g.link.Password == nil || secret != *g.link.Password {
		g.passwordError = true
		return false
	}
	g.passwordError = false
	g.phase = PhaseAccess
	return true
}

// Destination 终态下暴露跳转目标。由用户显式打开，从不自动跳转。
func (g *Gate) Destination() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseAccess || g.link == nil {
		return "", false
	}
	return g.link.OriginalURL, true
}

// Link 返回门背后的链接记录（absent 时为 nil）
func (g *Gate) Link() *models.ShortenedLink {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.link
}

// Start 启动真实时钟驱动的倒计时。离开 timer 阶段后自行退出。
func (g *Gate) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				g.Tick()
				if g.Phase() != PhaseTimer {
					return
				}
			case <-g.stop:
				return
			}
		}
	}()
}

// Stop 取消倒计时。视图卸载或阶段切换后必须调用，
// 保证不会有迟到的减数落在已经移走的状态上。多次调用安全。
func (g *Gate) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// idleSince 最后一次交互时间，注册表用来清理被遗弃的门
func (g *Gate) idleSince() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.touched
}
